package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, ValidateTitle("Summer giveaway"))
	assert.Error(t, ValidateTitle(""))
	assert.Error(t, ValidateTitle("   "))
	assert.NoError(t, ValidateTitle(strings.Repeat("a", MaxTitleLength)))
	assert.Error(t, ValidateTitle(strings.Repeat("a", MaxTitleLength+1)))
}

func TestValidateInstagramUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "jane.doe_99", false},
		{"leading at", "@jane", false},
		{"empty", "", true},
		{"only at", "@", true},
		{"space inside", "jane doe", true},
		{"dash", "jane-doe", true},
		{"too long", strings.Repeat("a", 31), true},
		{"max length", strings.Repeat("a", 30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInstagramUsername(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeInstagramUsername(t *testing.T) {
	assert.Equal(t, "jane", NormalizeInstagramUsername("  @jane "))
	assert.Equal(t, "jane", NormalizeInstagramUsername("jane"))
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL(""))
	assert.NoError(t, ValidateURL("https://example.com/me"))
	assert.NoError(t, ValidateURL("http://example.com"))
	assert.Error(t, ValidateURL("ftp://example.com"))
	assert.Error(t, ValidateURL("example.com"))
	assert.Error(t, ValidateURL("https://"))
}

func TestValidateDisplayName(t *testing.T) {
	assert.NoError(t, ValidateDisplayName(strings.Repeat("é", MaxDisplayNameLength)))
	assert.Error(t, ValidateDisplayName(strings.Repeat("x", MaxDisplayNameLength+1)))
}
