package domain

import (
	"clipchat/errors"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// RoomKey is an opaque 32-byte peer-discovery topic, carried around as its
// 64-character lowercase hex rendering. It doubles as the message store
// partition key, so it is validated before ever reaching storage.
type RoomKey string

// NewRoomKey draws a fresh 32-byte key from the system CSPRNG.
func NewRoomKey() (RoomKey, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return RoomKey(hex.EncodeToString(buf)), nil
}

// ParseRoomKey validates a user-supplied key: exactly 64 lowercase hex
// characters. Anything else is rejected so a key can never address an
// unintended storage location.
func ParseRoomKey(s string) (RoomKey, error) {
	if len(s) != 64 {
		return "", fmt.Errorf("%w: got %d characters", errors.ErrInvalidRoomKey, len(s))
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", fmt.Errorf("%w: unexpected character %q", errors.ErrInvalidRoomKey, r)
		}
	}
	return RoomKey(s), nil
}

func (k RoomKey) String() string { return string(k) }

// Bytes returns the raw 32-byte topic handed to the discovery collaborator.
func (k RoomKey) Bytes() []byte {
	b, _ := hex.DecodeString(string(k))
	return b
}

// Role records whether a membership originated from creating or joining
// a room. The same identity may hold both roles for one key, but never
// the same role twice.
type Role string

const (
	RoleCreated Role = "created"
	RoleJoined  Role = "joined"
)

// Membership ties an identity to a room key in a given role.
// Memberships are additive: the source domain never removes a room.
type Membership struct {
	RoomKey    RoomKey
	Role       Role
	RecordedAt time.Time
}
