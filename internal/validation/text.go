package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var languageCode = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

// ValidateRequired checks that a trimmed text field is present and at most
// max characters long
func ValidateRequired(field, value string, max int) error {
	trimmed := strings.TrimSpace(value)

	if trimmed == "" {
		return fmt.Errorf("%s is required", field)
	}

	if utf8.RuneCountInString(trimmed) > max {
		return fmt.Errorf("%s is too long (max %d characters)", field, max)
	}

	return nil
}

// ValidateLanguageCode accepts ISO 639-1 codes with an optional region ("vi", "en-US")
func ValidateLanguageCode(code string) error {
	if !languageCode.MatchString(code) {
		return fmt.Errorf("invalid language code: %q", code)
	}
	return nil
}

// ValidateLink validates an absolute http(s) URL
func ValidateLink(raw string) error {
	if raw == "" {
		return errors.New("link is required")
	}
	if len(raw) > 2048 {
		return errors.New("link is too long (max 2048 characters)")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("invalid link: must be an absolute http or https URL")
	}

	return nil
}
