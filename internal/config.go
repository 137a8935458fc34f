package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath             string        `env:"BLUGE_FILEPATH,required=true"`
	LogLevel                  string        `env:"LOG_LEVEL,default=info"`
	LockTimeout               time.Duration `env:"LOCK_TIMEOUT,default=5s"`
	AuthTokenSecret           string        `env:"AUTH_TOKEN_SECRET,required=true"`
	AuthTokenDuration         time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	ModerationWords           string        `env:"MODERATION_WORDS"`
	ModerationCharReplacement string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	MaxContentLength          int           `env:"MAX_CONTENT_LENGTH,default=4096"`
	AnnounceDelay             time.Duration `env:"ANNOUNCE_DELAY,default=100ms"`
	DebugPort                 int           `env:"DEBUG_PORT,default=8090"`
}

// CensoredWords splits the comma-separated moderation list. An empty
// variable means an empty dictionary, which the moderator accepts.
func (c Config) CensoredWords() []string {
	if strings.TrimSpace(c.ModerationWords) == "" {
		return nil
	}
	parts := strings.Split(c.ModerationWords, ",")
	words := make([]string, 0, len(parts))
	for _, part := range parts {
		if word := strings.TrimSpace(part); word != "" {
			words = append(words, word)
		}
	}
	return words
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
