//go:generate go run go.uber.org/mock/mockgen -source=membership.go -destination=../mocks/mock_membership_repository.go -package=mocks
package repositories

import (
	"clipchat/domain"
	"clipchat/errors"
	"clipchat/locks"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const membershipKeyPrefix = "rooms:"

// Role prefixes are the on-disk encoding of the role: stripped on read,
// re-applied on write, never shown to the user.
const (
	createPrefix = "create-"
	joinPrefix   = "join-"
)

type IMembershipRepository interface {
	Record(publicKeyHex string, roomKey domain.RoomKey, role domain.Role) error
	List(publicKeyHex string) ([]domain.Membership, error)
}

// MembershipRepository keeps one JSON document per identity under
// "rooms:<publicKeyHex>": an array of prefixed room keys in record order.
type MembershipRepository struct {
	db    *badger.DB
	locks *locks.Keyed
	log   *slog.Logger
}

func NewMembershipRepository(db *badger.DB, keyed *locks.Keyed, log *slog.Logger) IMembershipRepository {
	return &MembershipRepository{db: db, locks: keyed, log: log}
}

type storedMembership struct {
	Key       string `json:"key"` // "create-"|"join-" + roomKeyHex
	TimeStamp int64  `json:"timestamp"`
}

// Record appends a membership for this identity. Idempotent: an existing
// (room, role) pair is a successful no-op, not a conflict. The duplicate
// check and the conditional append run under the per-identity lock.
func (m MembershipRepository) Record(publicKeyHex string, roomKey domain.RoomKey, role domain.Role) error {
	release, err := m.locks.Acquire(publicKeyHex)
	if err != nil {
		return err
	}
	defer release()

	storedKey := rolePrefix(role) + roomKey.String()
	dbKey := []byte(membershipKeyPrefix + publicKeyHex)

	return m.db.Update(func(txn *badger.Txn) error {
		records, err := readMemberships(txn, dbKey)
		if err != nil {
			return err
		}

		for _, record := range records {
			if record.Key == storedKey {
				m.log.Debug("membership already recorded", "key", storedKey)
				return nil
			}
		}

		records = append(records, storedMembership{
			Key:       storedKey,
			TimeStamp: time.Now().UTC().UnixMilli(),
		})
		data, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("%w: marshal memberships: %v", errors.ErrStorage, err)
		}
		return txn.Set(dbKey, data)
	})
}

// List returns memberships in storage order, oldest first. An identity
// with no document has an empty list, not an error.
func (m MembershipRepository) List(publicKeyHex string) ([]domain.Membership, error) {
	var records []storedMembership

	err := m.db.View(func(txn *badger.Txn) error {
		var err error
		records, err = readMemberships(txn, []byte(membershipKeyPrefix+publicKeyHex))
		return err
	})
	if err != nil {
		return nil, err
	}

	memberships := make([]domain.Membership, 0, len(records))
	for _, record := range records {
		membership, err := toMembership(record)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, membership)
	}
	return memberships, nil
}

func readMemberships(txn *badger.Txn, dbKey []byte) ([]storedMembership, error) {
	item, err := txn.Get(dbKey)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read memberships: %v", errors.ErrStorage, err)
	}

	var records []storedMembership
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &records)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt membership document: %v", errors.ErrStorage, err)
	}
	return records, nil
}

func rolePrefix(role domain.Role) string {
	if role == domain.RoleCreated {
		return createPrefix
	}
	return joinPrefix
}

func toMembership(record storedMembership) (domain.Membership, error) {
	var role domain.Role
	var raw string

	switch {
	case strings.HasPrefix(record.Key, createPrefix):
		role, raw = domain.RoleCreated, strings.TrimPrefix(record.Key, createPrefix)
	case strings.HasPrefix(record.Key, joinPrefix):
		role, raw = domain.RoleJoined, strings.TrimPrefix(record.Key, joinPrefix)
	default:
		return domain.Membership{}, fmt.Errorf("%w: membership key %q has no role prefix", errors.ErrStorage, record.Key)
	}

	roomKey, err := domain.ParseRoomKey(raw)
	if err != nil {
		return domain.Membership{}, fmt.Errorf("%w: membership key %q: %v", errors.ErrStorage, record.Key, err)
	}

	return domain.Membership{
		RoomKey:    roomKey,
		Role:       role,
		RecordedAt: time.UnixMilli(record.TimeStamp).UTC(),
	}, nil
}
