// Package session holds the ephemeral process-wide login state.
// One slot, last write wins, nothing survives the process.
package session

import "sync"

// Session is the single-slot current-identity holder. It is set on a
// successful signup or login and cleared on logout. Nothing here is
// persisted; the shell owns any longer-lived token it wants to keep.
type Session struct {
	mu           sync.Mutex
	publicKeyHex string
	username     string
	loggedIn     bool
}

func New() *Session {
	return &Session{}
}

// Login replaces whatever identity currently occupies the slot.
func (s *Session) Login(publicKeyHex, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publicKeyHex = publicKeyHex
	s.username = username
	s.loggedIn = true
}

func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publicKeyHex = ""
	s.username = ""
	s.loggedIn = false
}

// Current returns the identity handle occupying the slot, if any.
func (s *Session) Current() (publicKeyHex string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publicKeyHex, s.loggedIn
}

// Username returns the display name of the logged-in identity.
func (s *Session) Username() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username, s.loggedIn
}
