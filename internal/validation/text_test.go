package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRequired(t *testing.T) {
	assert.NoError(t, ValidateRequired("title", "Tin tức", 10))
	assert.ErrorContains(t, ValidateRequired("title", "   ", 10), "title is required")
	assert.ErrorContains(t, ValidateRequired("title", strings.Repeat("ệ", 11), 10), "too long")
	assert.NoError(t, ValidateRequired("title", strings.Repeat("ệ", 10), 10), "counts characters, not bytes")
}

func TestValidateLanguageCode(t *testing.T) {
	for _, code := range []string{"vi", "en", "en-US"} {
		assert.NoError(t, ValidateLanguageCode(code), code)
	}
	for _, code := range []string{"", "VI", "english", "en_us"} {
		assert.Error(t, ValidateLanguageCode(code), code)
	}
}

func TestValidateLink(t *testing.T) {
	assert.NoError(t, ValidateLink("https://vhu.edu.vn/tuyen-sinh"))
	assert.Error(t, ValidateLink(""))
	assert.Error(t, ValidateLink("javascript:alert(1)"))
	assert.Error(t, ValidateLink("/relative"))
}
