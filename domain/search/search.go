package search

import (
	"strconv"
	"strings"
)

// Query represents the structured parameters for a message search.
// It decouples the raw shell input from the actual index engine requirements.
type Query struct {
	RawInput string // The original input typed by the user
	Terms    string // The actual text to search in the index
	Lang     string // Optional ISO 639-1 language filter
	Limit    int    // Number of results
}

// Parse extracts command-line style arguments from a raw string.
// Example: /find invoice --lang en --limit 5
func Parse(input string) *Query {
	query := &Query{
		RawInput: input,
		Limit:    10, // Default limit
	}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		// Handle flags like --limit 5 or --lang fr
		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			key := strings.TrimPrefix(part, "--")
			val := parts[i+1]

			switch key {
			case "limit":
				if n, err := strconv.Atoi(val); err == nil && n > 0 {
					query.Limit = n
				}
			case "lang":
				query.Lang = strings.ToLower(val)
			}
			i++ // Skip the value part in next iteration
			continue
		}

		// If it's not a flag, it's a search term
		if !strings.HasPrefix(part, "/") {
			textTerms = append(textTerms, part)
		}
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}
