// Package slug derives URL-safe identifiers from Vietnamese and other
// accented text.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9]+`)
	dReplacer  = strings.NewReplacer("đ", "d", "Đ", "D")
)

// Fold strips diacritics, mapping "Đường" to "Duong". đ has no
// decomposition and is replaced explicitly.
func Fold(s string) string {
	s = dReplacer.Replace(s)

	// transform.Chain keeps state, so build one per call
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return folded
}

// Make lowercases and folds s, then joins its letters and digits with
// single dashes: "Tin tức Đại học" becomes "tin-tuc-dai-hoc".
func Make(s string) string {
	s = strings.ToLower(Fold(s))
	return strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
}
