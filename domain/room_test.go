package domain

import (
	"clipchat/errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRoomKey(t *testing.T) {
	req := require.New(t)

	key, err := NewRoomKey()
	req.NoError(err)
	req.Len(key.String(), 64)
	req.Len(key.Bytes(), 32)

	// Two draws must differ, otherwise the source is not random at all
	other, err := NewRoomKey()
	req.NoError(err)
	req.NotEqual(key, other)
}

func TestParseRoomKey(t *testing.T) {
	req := require.New(t)

	valid := strings.Repeat("a1", 32)
	key, err := ParseRoomKey(valid)
	req.NoError(err)
	req.Equal(valid, key.String())

	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"Too short", "abc123"},
		{"Too long", valid + "ff"},
		{"Uppercase hex", strings.Repeat("A1", 32)},
		{"Non hex character", strings.Repeat("g1", 32)},
		{"Path traversal attempt", "../" + strings.Repeat("a", 61)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoomKey(tt.input)
			require.ErrorIs(t, err, errors.ErrInvalidRoomKey)
		})
	}
}

func TestRoomKeyRoundTrip(t *testing.T) {
	req := require.New(t)

	key, err := NewRoomKey()
	req.NoError(err)

	parsed, err := ParseRoomKey(key.String())
	req.NoError(err)
	req.Equal(key, parsed)
	req.Equal(key.Bytes(), parsed.Bytes())
}
