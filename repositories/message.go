//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_room_repository.go -package=mocks
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
	"github.com/google/uuid"
)

const (
	roomKeyPrefix    = "room:"
	roomLogKeyPrefix = "roomlog:"
)

type IRoomRepository interface {
	Create(roomKey domain.RoomKey) error
	Append(roomKey domain.RoomKey, author, content, kind, lang string) (domain.Message, error)
	Messages(roomKey domain.RoomKey) ([]domain.Message, error)
	Log(roomKey domain.RoomKey) ([]RoomOp, error)
}

// RoomRepository keeps one JSON document per room under "room:<keyHex>"
// holding the full message array, plus an operation log under
// "roomlog:<keyHex>" recording create and append events.
type RoomRepository struct {
	db    *badger.DB
	locks *locks.Keyed
	log   *slog.Logger
}

func NewRoomRepository(db *badger.DB, keyed *locks.Keyed, log *slog.Logger) IRoomRepository {
	return &RoomRepository{db: db, locks: keyed, log: log}
}

// storedMessage is the persisted layout. The original array held only
// username, content and timestamp; id, kind and lang are additive, so a
// bare legacy document still unmarshals.
type storedMessage struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Kind      string `json:"kind,omitempty"`
	Lang      string `json:"lang,omitempty"`
	TimeStamp int64  `json:"timestamp"`
}

// RoomOp is one entry of the per-room operation log.
type RoomOp struct {
	Op    string    `json:"op"` // "create" or "append"
	Actor string    `json:"actor,omitempty"`
	At    time.Time `json:"timestamp"`
}

// Create initializes an empty message array and an empty operation log
// for the room. A room that already has a message array is left alone.
func (r RoomRepository) Create(roomKey domain.RoomKey) error {
	release, err := r.locks.Acquire(roomKey.String())
	if err != nil {
		return err
	}
	defer release()

	msgKey := []byte(roomKeyPrefix + roomKey.String())
	logKey := []byte(roomLogKeyPrefix + roomKey.String())

	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(msgKey); err == nil {
			r.log.Debug("room already initialized", "room", roomKey.String())
			return nil
		} else if err != badger.ErrKeyNotFound {
			return fmt.Errorf("%w: probe room: %v", errors.ErrStorage, err)
		}

		if err := txn.Set(msgKey, []byte("[]")); err != nil {
			return fmt.Errorf("%w: init room: %v", errors.ErrStorage, err)
		}
		ops := []RoomOp{{Op: "create", At: time.Now().UTC()}}
		return appendOps(txn, logKey, ops, true)
	})
}

// Append adds one message to the end of the room sequence. The content
// must be non-empty after trimming and the room must have been created.
func (r RoomRepository) Append(roomKey domain.RoomKey, author, content, kind, lang string) (domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, errors.ErrEmptyContent
	}

	release, err := r.locks.Acquire(roomKey.String())
	if err != nil {
		return domain.Message{}, err
	}
	defer release()

	message := domain.Message{
		ID:      uuid.New(),
		Author:  author,
		Content: content,
		Kind:    kind,
		Lang:    lang,
		// Millisecond precision survives the persisted layout round trip
		PostedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	msgKey := []byte(roomKeyPrefix + roomKey.String())
	logKey := []byte(roomLogKeyPrefix + roomKey.String())

	err = r.db.Update(func(txn *badger.Txn) error {
		records, err := readMessages(txn, msgKey)
		if err != nil {
			return err
		}

		records = append(records, fromMessage(message))
		data, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("%w: marshal messages: %v", errors.ErrStorage, err)
		}
		if err := txn.Set(msgKey, data); err != nil {
			return fmt.Errorf("%w: write messages: %v", errors.ErrStorage, err)
		}

		op := RoomOp{Op: "append", Actor: author, At: message.PostedAt}
		return appendOps(txn, logKey, []RoomOp{op}, false)
	})
	if err != nil {
		return domain.Message{}, err
	}

	return message, nil
}

// Messages returns the full sequence in append order.
func (r RoomRepository) Messages(roomKey domain.RoomKey) ([]domain.Message, error) {
	var records []storedMessage

	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		records, err = readMessages(txn, []byte(roomKeyPrefix+roomKey.String()))
		return err
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, toMessage(record))
	}
	return messages, nil
}

// Log returns the room's operation log, oldest first.
func (r RoomRepository) Log(roomKey domain.RoomKey) ([]RoomOp, error) {
	var ops []RoomOp

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(roomLogKeyPrefix + roomKey.String()))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", errors.ErrRoomNotFound, roomKey.String())
		}
		if err != nil {
			return fmt.Errorf("%w: read room log: %v", errors.ErrStorage, err)
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &ops); err != nil {
				return fmt.Errorf("%w: corrupt room log: %v", errors.ErrStorage, err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ops, nil
}

// readMessages loads the room document. A missing document means the room
// was never created, which is the caller's RoomNotFound.
func readMessages(txn *badger.Txn, msgKey []byte) ([]storedMessage, error) {
	item, err := txn.Get(msgKey)
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("%w: %s", errors.ErrRoomNotFound, strings.TrimPrefix(string(msgKey), roomKeyPrefix))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read messages: %v", errors.ErrStorage, err)
	}

	var records []storedMessage
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &records)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt message document: %v", errors.ErrStorage, err)
	}
	return records, nil
}

// appendOps extends the operation log, creating it when init is set.
func appendOps(txn *badger.Txn, logKey []byte, ops []RoomOp, init bool) error {
	var existing []RoomOp

	item, err := txn.Get(logKey)
	switch {
	case err == badger.ErrKeyNotFound:
		if !init {
			// Room exists without a log: tolerate and start one.
			existing = nil
		}
	case err != nil:
		return fmt.Errorf("%w: read room log: %v", errors.ErrStorage, err)
	default:
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &existing)
		})
		if err != nil {
			return fmt.Errorf("%w: corrupt room log: %v", errors.ErrStorage, err)
		}
	}

	existing = append(existing, ops...)
	data, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("%w: marshal room log: %v", errors.ErrStorage, err)
	}
	return txn.Set(logKey, data)
}

func fromMessage(message domain.Message) storedMessage {
	return storedMessage{
		ID:        message.ID.String(),
		Username:  message.Author,
		Content:   message.Content,
		Kind:      message.Kind,
		Lang:      message.Lang,
		TimeStamp: message.PostedAt.UnixMilli(),
	}
}

func toMessage(record storedMessage) domain.Message {
	// Legacy documents have no id; a zero UUID keeps them readable.
	id, _ := uuid.Parse(record.ID)
	return domain.Message{
		ID:       id,
		Author:   record.Username,
		Content:  record.Content,
		Kind:     record.Kind,
		Lang:     record.Lang,
		PostedAt: time.UnixMilli(record.TimeStamp).UTC(),
	}
}
