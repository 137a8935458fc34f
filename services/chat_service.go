package services

import (
	"clipchat/domain"
	"clipchat/domain/search"
	"clipchat/errors"
	"clipchat/moderation"
	"clipchat/repositories"
	"clipchat/session"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/gabriel-vasile/mimetype"
)

type IChatService interface {
	Post(roomKey domain.RoomKey, content string) (domain.Message, error)
	PostClip(roomKey domain.RoomKey, payload []byte) (domain.Message, error)
	History(roomKey domain.RoomKey) ([]domain.Message, error)
	Find(ctx context.Context, roomKey domain.RoomKey, rawQuery string) ([]repositories.Hit, error)
}

// ChatService runs the message pipeline: moderation, language detection,
// durable append, search indexing. The store document stays the source
// of truth; an index failure is logged, not surfaced, since the index is
// rebuildable.
type ChatService struct {
	rooms      repositories.IRoomRepository
	index      *repositories.SearchIndex
	moderator  *moderation.Moderator
	session    *session.Session
	maxContent int
	log        *slog.Logger
}

func NewChatService(
	rooms repositories.IRoomRepository,
	index *repositories.SearchIndex,
	moderator *moderation.Moderator,
	sess *session.Session,
	maxContent int,
	log *slog.Logger,
) IChatService {
	return &ChatService{
		rooms:      rooms,
		index:      index,
		moderator:  moderator,
		session:    sess,
		maxContent: maxContent,
		log:        log,
	}
}

// Post appends a typed message to the room sequence.
func (s *ChatService) Post(roomKey domain.RoomKey, content string) (domain.Message, error) {
	return s.post(roomKey, content, "text/plain")
}

// PostClip appends a pasted clipboard payload. Only textual payloads are
// accepted; the sniffed MIME type is stored as the message kind.
func (s *ChatService) PostClip(roomKey domain.RoomKey, payload []byte) (domain.Message, error) {
	kind := mimetype.Detect(payload)
	if !strings.HasPrefix(kind.String(), "text/") {
		return domain.Message{}, fmt.Errorf("%w: detected %s", errors.ErrNotText, kind.String())
	}
	return s.post(roomKey, string(payload), kind.String())
}

func (s *ChatService) post(roomKey domain.RoomKey, content, kind string) (domain.Message, error) {
	username, ok := s.session.Username()
	if !ok {
		return domain.Message{}, errors.ErrNotLoggedIn
	}

	if strings.TrimSpace(content) == "" {
		return domain.Message{}, errors.ErrEmptyContent
	}
	if s.maxContent > 0 && len(content) > s.maxContent {
		return domain.Message{}, fmt.Errorf("%w: %d bytes", errors.ErrContentTooLong, len(content))
	}

	sanitized, foundWords := s.moderator.Censor(content)
	if len(foundWords) > 0 {
		s.log.Warn("message censored", "author", username, "words", len(foundWords))
	}

	info := whatlanggo.Detect(sanitized)
	lang := info.Lang.Iso6391()

	message, err := s.rooms.Append(roomKey, username, sanitized, kind, lang)
	if err != nil {
		return domain.Message{}, err
	}

	if err := s.index.Index(roomKey, message); err != nil {
		s.log.Error("indexing failed", "room", roomKey.String(), "error", err)
	}
	return message, nil
}

// History returns the full room sequence in append order.
func (s *ChatService) History(roomKey domain.RoomKey) ([]domain.Message, error) {
	return s.rooms.Messages(roomKey)
}

// Find runs a shell search query against the room's index.
func (s *ChatService) Find(ctx context.Context, roomKey domain.RoomKey, rawQuery string) ([]repositories.Hit, error) {
	// The store is the existence oracle; the index may lag behind it.
	if _, err := s.rooms.Messages(roomKey); err != nil {
		return nil, err
	}
	return s.index.Search(ctx, roomKey, search.Parse(rawQuery))
}
