// Package domain contains core concepts of the clipboard chat system.
// This file defines the User identity record and its invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// User is an identity record from the append-only user log.
// Username and PublicKeyHex are both unique across the log; PublicKeyHex
// is the primary identity handle used by the membership store.
// Records are never mutated or deleted once appended.
type User struct {
	Username     string
	PublicKeyHex string
	PasswordHash string // argon2id encoded hash, never log or display
	CreatedAt    time.Time
}
