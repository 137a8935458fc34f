package repositories

import (
	"clipchat/errors"
	"clipchat/locks"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLocks() *locks.Keyed {
	return locks.NewKeyed(2 * time.Second)
}

func Test_CreateUser_And_Scan(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t), testLocks(), slog.Default())

	alice, err := repository.CreateUser("alice", "aaaa1111", "$argon2id$fake")
	req.NoError(err)
	req.Equal("alice", alice.Username)
	req.Equal("aaaa1111", alice.PublicKeyHex)
	req.False(alice.CreatedAt.IsZero())

	bob, err := repository.CreateUser("bob", "bbbb2222", "$argon2id$fake")
	req.NoError(err)

	fetched, err := repository.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal(alice, fetched)

	fetched, err = repository.GetUserByPublicKey("bbbb2222")
	req.NoError(err)
	req.Equal(bob, fetched)
}

func Test_CreateUser_DuplicateUsername(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t), testLocks(), slog.Default())

	_, err := repository.CreateUser("alice", "aaaa1111", "hash-1")
	req.NoError(err)

	// Same username, different key and password: still a conflict
	_, err = repository.CreateUser("alice", "cccc3333", "hash-2")
	req.ErrorIs(err, errors.ErrDuplicateUsername)

	// The log kept exactly one alice
	fetched, err := repository.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal("aaaa1111", fetched.PublicKeyHex)
}

func Test_CreateUser_DuplicateIdentityKey(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t), testLocks(), slog.Default())

	_, err := repository.CreateUser("alice", "aaaa1111", "hash-1")
	req.NoError(err)

	// Different username, same identity handle: still a conflict
	_, err = repository.CreateUser("mallory", "aaaa1111", "hash-2")
	req.ErrorIs(err, errors.ErrDuplicateIdentity)

	_, err = repository.GetUserByUsername("mallory")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func Test_GetUser_NotFound(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t), testLocks(), slog.Default())

	_, err := repository.GetUserByUsername("ghost")
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = repository.GetUserByPublicKey("dead")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func Test_Scan_OldestFirst(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t), testLocks(), slog.Default())

	// More records than a single digit so key padding matters
	for i := 0; i < 12; i++ {
		_, err := repository.CreateUser(username(i), publicKey(i), "hash")
		req.NoError(err)
	}

	fetched, err := repository.GetUserByUsername(username(10))
	req.NoError(err)
	req.Equal(publicKey(10), fetched.PublicKeyHex)
}

func username(i int) string {
	return string(rune('a'+i)) + "user"
}

func publicKey(i int) string {
	return string(rune('a'+i)) + "key"
}
