package repositories

import (
	"clipchat/domain"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

const testIdentity = "aaaa1111bbbb2222"

func testRoomKey(t *testing.T, seed string) domain.RoomKey {
	t.Helper()
	key, err := domain.ParseRoomKey(strings.Repeat(seed, 64/len(seed)))
	require.NoError(t, err)
	return key
}

func Test_Record_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repository := NewMembershipRepository(openTestDB(t), testLocks(), slog.Default())
	roomKey := testRoomKey(t, "ab12")

	req.NoError(repository.Record(testIdentity, roomKey, domain.RoleCreated))
	req.NoError(repository.Record(testIdentity, roomKey, domain.RoleCreated))

	memberships, err := repository.List(testIdentity)
	req.NoError(err)
	req.Len(memberships, 1)
	req.Equal(roomKey, memberships[0].RoomKey)
	req.Equal(domain.RoleCreated, memberships[0].Role)
}

func Test_Record_Distinct_Roles(t *testing.T) {
	req := require.New(t)
	repository := NewMembershipRepository(openTestDB(t), testLocks(), slog.Default())
	roomKey := testRoomKey(t, "cd34")

	req.NoError(repository.Record(testIdentity, roomKey, domain.RoleCreated))
	req.NoError(repository.Record(testIdentity, roomKey, domain.RoleJoined))

	memberships, err := repository.List(testIdentity)
	req.NoError(err)
	req.Len(memberships, 2)
	req.Equal(domain.RoleCreated, memberships[0].Role)
	req.Equal(domain.RoleJoined, memberships[1].Role)
}

func Test_List_Unknown_Identity_Is_Empty(t *testing.T) {
	req := require.New(t)
	repository := NewMembershipRepository(openTestDB(t), testLocks(), slog.Default())

	memberships, err := repository.List("nobody")
	req.NoError(err)
	req.Empty(memberships)
}

func Test_List_Preserves_Storage_Order(t *testing.T) {
	req := require.New(t)
	repository := NewMembershipRepository(openTestDB(t), testLocks(), slog.Default())

	keys := []domain.RoomKey{
		testRoomKey(t, "0a1b"),
		testRoomKey(t, "2c3d"),
		testRoomKey(t, "4e5f"),
	}
	for _, key := range keys {
		req.NoError(repository.Record(testIdentity, key, domain.RoleJoined))
	}

	memberships, err := repository.List(testIdentity)
	req.NoError(err)
	req.Len(memberships, len(keys))
	for i, key := range keys {
		req.Equal(key, memberships[i].RoomKey)
	}
}

// The on-disk document must carry the role as a "create-"/"join-" prefix
// on the stored key so existing documents keep loading.
func Test_Persisted_Layout(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMembershipRepository(db, testLocks(), slog.Default())
	roomKey := testRoomKey(t, "ef67")

	req.NoError(repository.Record(testIdentity, roomKey, domain.RoleCreated))
	req.NoError(repository.Record(testIdentity, roomKey, domain.RoleJoined))

	var raw []struct {
		Key       string `json:"key"`
		TimeStamp int64  `json:"timestamp"`
	}
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("rooms:" + testIdentity))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &raw)
		})
	})
	req.NoError(err)
	req.Len(raw, 2)
	req.Equal("create-"+roomKey.String(), raw[0].Key)
	req.Equal("join-"+roomKey.String(), raw[1].Key)
	req.NotZero(raw[0].TimeStamp)
}
