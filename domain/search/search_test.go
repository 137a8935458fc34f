package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Query
	}{
		{
			name:  "Plain terms",
			input: "deployment keys",
			want:  Query{Terms: "deployment keys", Limit: 10},
		},
		{
			name:  "Command prefix is dropped",
			input: "/find invoice",
			want:  Query{Terms: "invoice", Limit: 10},
		},
		{
			name:  "Limit flag",
			input: "invoice --limit 5",
			want:  Query{Terms: "invoice", Limit: 5},
		},
		{
			name:  "Lang flag is lowered",
			input: "facture --lang FR",
			want:  Query{Terms: "facture", Lang: "fr", Limit: 10},
		},
		{
			name:  "Invalid limit keeps default",
			input: "invoice --limit zero",
			want:  Query{Terms: "invoice", Limit: 10},
		},
		{
			name:  "Flags mixed with terms",
			input: "/find room key --lang en --limit 3 backup",
			want:  Query{Terms: "room key backup", Lang: "en", Limit: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			tt.want.RawInput = tt.input
			require.Equal(t, tt.want, *got)
		})
	}
}
