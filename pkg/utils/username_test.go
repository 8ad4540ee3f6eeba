package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "alice", false},
		{"digits and underscore", "alice_99", false},
		{"dot", "alice.b", false},
		{"surrounding spaces", "  alice  ", false},
		{"empty", "", true},
		{"too short", "al", true},
		{"too long", "abcdefghijabcdefghijabcdefghijk", true},
		{"bad chars", "alice!", true},
		{"leading underscore", "_alice", true},
		{"space inside", "ali ce", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.input)
			if tt.wantErr {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "username", ve.Field)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"alice@x.com", "bob.smith+tag@mail.example.org", " carol@x.io "}
	for _, e := range valid {
		assert.NoError(t, ValidateEmail(e), e)
	}

	invalid := []string{"", "alice", "alice@", "@x.com", "Alice <alice@x.com>", "alice@localhost"}
	for _, e := range invalid {
		assert.Error(t, ValidateEmail(e), e)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("  Alice "))
	assert.Equal(t, "alice@x.com", NormalizeEmail(" Alice@X.com"))
}

func TestValidatePasswordAndFullName(t *testing.T) {
	assert.NoError(t, ValidatePassword("pw123"))
	assert.Error(t, ValidatePassword("   "))
	assert.Error(t, ValidatePassword(strings.Repeat("x", MaxPasswordLength+1)))

	assert.NoError(t, ValidateFullName("Alice Liddell"))
	assert.Error(t, ValidateFullName(" "))
}
