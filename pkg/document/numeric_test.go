package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOptionalInt(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  int
		valid bool
	}{
		{"plain number", "1994", 1994, true},
		{"surrounding whitespace", "  42 ", 42, true},
		{"negative", "-3", -3, true},
		{"empty", "", 0, false},
		{"roman numerals", "MCMXCIV", 0, false},
		{"range", "12-15", 0, false},
		{"trailing text", "1994a", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOptionalInt(tt.in)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.Equal(t, tt.want, got.Int)
			}
		})
	}
}

func TestOptionalInt_Ptr(t *testing.T) {
	assert.Nil(t, ParseOptionalInt("volume II").Ptr())

	p := ParseOptionalInt("7").Ptr()
	if assert.NotNil(t, p) {
		assert.Equal(t, 7, *p)
	}
}
