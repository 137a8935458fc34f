package projection

import "clipchat/domain"

// Timeline holds a simple local view of one room's messages, refreshed
// from the store and extended as the session posts.
type Timeline struct {
	RoomKey  domain.RoomKey
	Messages []domain.Message
}

func NewTimeline(roomKey domain.RoomKey, messages []domain.Message) *Timeline {
	return &Timeline{RoomKey: roomKey, Messages: messages}
}

func (t *Timeline) Add(message domain.Message) {
	t.Messages = append(t.Messages, message)
}

// Recent returns the last n messages in chronological order.
func (t *Timeline) Recent(n int) []domain.Message {
	if n <= 0 || n >= len(t.Messages) {
		return t.Messages
	}
	return t.Messages[len(t.Messages)-n:]
}
