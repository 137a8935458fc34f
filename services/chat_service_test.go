package services

import (
	"clipchat/domain"
	"clipchat/errors"
	"clipchat/mocks"
	"clipchat/moderation"
	"clipchat/repositories"
	"clipchat/session"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type chatFixture struct {
	rooms   *mocks.MockIRoomRepository
	session *session.Session
	svc     IChatService
}

func newChatFixture(t *testing.T, censoredWords []string, maxContent int) chatFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	moderator, err := moderation.NewModerator(censoredWords, '*', slog.Default())
	require.NoError(t, err)

	rooms := mocks.NewMockIRoomRepository(ctrl)
	sess := session.New()
	index := repositories.NewSearchIndex(writer, slog.Default())

	return chatFixture{
		rooms:   rooms,
		session: sess,
		svc:     NewChatService(rooms, index, &moderator, sess, maxContent, slog.Default()),
	}
}

func chatRoomKey(seed string) domain.RoomKey {
	return domain.RoomKey(strings.Repeat(seed, 16))
}

func TestChatService_Post(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, []string{"password"}, 0)
	f.session.Login("aaaa1111", "alice")
	roomKey := chatRoomKey("aa11")

	f.rooms.EXPECT().
		Append(roomKey, "alice", "rotate the deployment keys", gomock.Any(), gomock.Any()).
		DoAndReturn(func(key domain.RoomKey, author, content, kind, lang string) (domain.Message, error) {
			return domain.Message{
				ID:       uuid.New(),
				Author:   author,
				Content:  content,
				Kind:     kind,
				Lang:     lang,
				PostedAt: time.Now().UTC(),
			}, nil
		}).Times(1)

	message, err := f.svc.Post(roomKey, "rotate the deployment keys")
	req.NoError(err)
	req.Equal("alice", message.Author)
	req.Equal("rotate the deployment keys", message.Content)
}

func TestChatService_Post_Censors(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, []string{"password"}, 0)
	f.session.Login("aaaa1111", "alice")
	roomKey := chatRoomKey("bb22")

	// The store must only ever see the sanitized content
	f.rooms.EXPECT().
		Append(roomKey, "alice", "the ******** is hunter2", gomock.Any(), gomock.Any()).
		Return(domain.Message{}, nil).Times(1)

	_, err := f.svc.Post(roomKey, "the password is hunter2")
	req.NoError(err)
}

func TestChatService_Post_Validation(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil, 16)
	roomKey := chatRoomKey("cc33")

	// Not logged in
	f.rooms.EXPECT().Append(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	_, err := f.svc.Post(roomKey, "hello")
	req.ErrorIs(err, errors.ErrNotLoggedIn)

	f.session.Login("aaaa1111", "alice")

	_, err = f.svc.Post(roomKey, "   ")
	req.ErrorIs(err, errors.ErrEmptyContent)

	_, err = f.svc.Post(roomKey, strings.Repeat("x", 17))
	req.ErrorIs(err, errors.ErrContentTooLong)
}

func TestChatService_Post_UnknownRoom(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil, 0)
	f.session.Login("aaaa1111", "alice")
	roomKey := chatRoomKey("dd44")

	f.rooms.EXPECT().
		Append(roomKey, "alice", "hello", gomock.Any(), gomock.Any()).
		Return(domain.Message{}, errors.ErrRoomNotFound).Times(1)

	_, err := f.svc.Post(roomKey, "hello")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestChatService_PostClip(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil, 0)
	f.session.Login("aaaa1111", "alice")
	roomKey := chatRoomKey("ee55")

	var storedKind string
	f.rooms.EXPECT().
		Append(roomKey, "alice", "key=value", gomock.Any(), gomock.Any()).
		DoAndReturn(func(key domain.RoomKey, author, content, kind, lang string) (domain.Message, error) {
			storedKind = kind
			return domain.Message{Author: author, Content: content, Kind: kind}, nil
		}).Times(1)

	_, err := f.svc.PostClip(roomKey, []byte("key=value"))
	req.NoError(err)
	req.True(strings.HasPrefix(storedKind, "text/"))

	// A binary payload is refused before reaching the store
	pngHeader := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	_, err = f.svc.PostClip(roomKey, pngHeader)
	req.ErrorIs(err, errors.ErrNotText)
}

func TestChatService_Find(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t, nil, 0)
	f.session.Login("aaaa1111", "alice")
	roomKey := chatRoomKey("ff66")

	f.rooms.EXPECT().
		Append(roomKey, "alice", "rotate the deployment keys", gomock.Any(), gomock.Any()).
		DoAndReturn(func(key domain.RoomKey, author, content, kind, lang string) (domain.Message, error) {
			return domain.Message{
				ID:       uuid.New(),
				Author:   author,
				Content:  content,
				Kind:     kind,
				Lang:     lang,
				PostedAt: time.Now().UTC(),
			}, nil
		}).Times(1)

	posted, err := f.svc.Post(roomKey, "rotate the deployment keys")
	req.NoError(err)

	f.rooms.EXPECT().Messages(roomKey).Return([]domain.Message{posted}, nil).Times(1)

	hits, err := f.svc.Find(context.Background(), roomKey, "deployment")
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("alice", hits[0].Author)

	// Searching a room that was never created surfaces the store error
	unknown := chatRoomKey("0077")
	f.rooms.EXPECT().Messages(unknown).Return(nil, errors.ErrRoomNotFound).Times(1)
	_, err = f.svc.Find(context.Background(), unknown, "anything")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}
