//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"clipchat/domain"
	"clipchat/errors"
	"clipchat/locks"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// userLogLock is the single lock scope of the identity store: the whole
// log is one append-only sequence, so the duplicate scan and the append
// serialize globally.
const userLogLock = "userlog"

const userKeyPrefix = "user:"

type IUserRepository interface {
	CreateUser(username, publicKeyHex, passwordHash string) (domain.User, error)
	GetUserByUsername(username string) (domain.User, error)
	GetUserByPublicKey(publicKeyHex string) (domain.User, error)
}

// UserRepository is the append-only identity log on BadgerDB.
// Keys are "user:%019d" so lexicographic iteration is insertion order.
type UserRepository struct {
	db    *badger.DB
	locks *locks.Keyed
	log   *slog.Logger
}

func NewUserRepository(db *badger.DB, keyed *locks.Keyed, log *slog.Logger) IUserRepository {
	return &UserRepository{db: db, locks: keyed, log: log}
}

// storedUser is the persisted JSON layout, field for field the document
// the original log kept: a type discriminator, the credentials, and a
// millisecond timestamp.
type storedUser struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	PublicKey string `json:"publicKey"`
	Password  string `json:"password"`
	TimeStamp int64  `json:"timeStamp"`
}

// CreateUser appends a new identity record after a full duplicate scan.
// The scan and the append run under the store-global lock and inside a
// single transaction, so two concurrent signups can never both pass the
// duplicate check.
func (u UserRepository) CreateUser(username, publicKeyHex, passwordHash string) (domain.User, error) {
	release, err := u.locks.Acquire(userLogLock)
	if err != nil {
		return domain.User{}, err
	}
	defer release()

	record := storedUser{
		Type:      "user",
		Username:  username,
		PublicKey: publicKeyHex,
		Password:  passwordHash,
		TimeStamp: time.Now().UTC().UnixMilli(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: marshal user: %v", errors.ErrStorage, err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		seq := 0
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var existing storedUser
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			})
			if err != nil {
				return fmt.Errorf("%w: corrupt user record: %v", errors.ErrStorage, err)
			}
			if existing.Username == username {
				return fmt.Errorf("%w: %q", errors.ErrDuplicateUsername, username)
			}
			// The identity handle is unique across the log too.
			if existing.PublicKey == publicKeyHex {
				return fmt.Errorf("%w: %q", errors.ErrDuplicateIdentity, publicKeyHex)
			}
			seq++
		}

		key := fmt.Sprintf("%s%019d", userKeyPrefix, seq)
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return domain.User{}, err
	}

	return toUser(record), nil
}

// GetUserByUsername scans oldest-to-newest and stops at the first match,
// the reference login behavior.
func (u UserRepository) GetUserByUsername(username string) (domain.User, error) {
	return u.scan(func(record storedUser) bool {
		return record.Username == username
	})
}

func (u UserRepository) GetUserByPublicKey(publicKeyHex string) (domain.User, error) {
	return u.scan(func(record storedUser) bool {
		return record.PublicKey == publicKeyHex
	})
}

func (u UserRepository) scan(match func(storedUser) bool) (domain.User, error) {
	var found *storedUser

	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record storedUser
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return fmt.Errorf("%w: corrupt user record: %v", errors.ErrStorage, err)
			}
			if match(record) {
				found = &record
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	if found == nil {
		return domain.User{}, errors.ErrUserNotFound
	}
	return toUser(*found), nil
}

func toUser(record storedUser) domain.User {
	return domain.User{
		Username:     record.Username,
		PublicKeyHex: record.PublicKey,
		PasswordHash: record.Password,
		CreatedAt:    time.UnixMilli(record.TimeStamp).UTC(),
	}
}
