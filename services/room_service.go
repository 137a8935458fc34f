package services

import (
	"clipchat/domain"
	"clipchat/errors"
	"clipchat/projection"
	"clipchat/repositories"
	"clipchat/session"
	"clipchat/swarm"
	"context"
	"log/slog"
)

type IRoomService interface {
	CreateRoom(ctx context.Context) (domain.RoomKey, error)
	JoinRoom(ctx context.Context, rawKey string) (domain.RoomKey, error)
	Rooms() (projection.RoomView, error)
}

// RoomService ties the membership and message stores to the discovery
// collaborator. Local state is established first, then the topic is
// announced; a failed announcement leaves the durable records in place
// so a retry is a plain re-join.
type RoomService struct {
	memberships repositories.IMembershipRepository
	rooms       repositories.IRoomRepository
	discovery   swarm.Discovery
	session     *session.Session
	log         *slog.Logger
}

func NewRoomService(
	memberships repositories.IMembershipRepository,
	rooms repositories.IRoomRepository,
	discovery swarm.Discovery,
	sess *session.Session,
	log *slog.Logger,
) IRoomService {
	return &RoomService{
		memberships: memberships,
		rooms:       rooms,
		discovery:   discovery,
		session:     sess,
		log:         log,
	}
}

// CreateRoom draws a fresh key, initializes the local message store,
// records the creator membership and announces the topic.
func (s *RoomService) CreateRoom(ctx context.Context) (domain.RoomKey, error) {
	identity, ok := s.session.Current()
	if !ok {
		return "", errors.ErrNotLoggedIn
	}

	roomKey, err := domain.NewRoomKey()
	if err != nil {
		return "", err
	}

	if err := s.rooms.Create(roomKey); err != nil {
		return "", err
	}
	if err := s.memberships.Record(identity, roomKey, domain.RoleCreated); err != nil {
		return "", err
	}
	if err := s.discovery.Join(ctx, roomKey); err != nil {
		return "", err
	}

	s.log.Info("room created", "room", roomKey.String())
	return roomKey, nil
}

// JoinRoom parses a user-supplied key, initializes the local replica of
// the room, records the joiner membership and announces the topic.
// Joining the same room twice is harmless: both the store create and the
// membership record are idempotent.
func (s *RoomService) JoinRoom(ctx context.Context, rawKey string) (domain.RoomKey, error) {
	identity, ok := s.session.Current()
	if !ok {
		return "", errors.ErrNotLoggedIn
	}

	roomKey, err := domain.ParseRoomKey(rawKey)
	if err != nil {
		return "", err
	}

	if err := s.rooms.Create(roomKey); err != nil {
		return "", err
	}
	if err := s.memberships.Record(identity, roomKey, domain.RoleJoined); err != nil {
		return "", err
	}
	if err := s.discovery.Join(ctx, roomKey); err != nil {
		return "", err
	}

	s.log.Info("room joined", "room", roomKey.String())
	return roomKey, nil
}

// Rooms returns the logged-in identity's memberships partitioned for
// display.
func (s *RoomService) Rooms() (projection.RoomView, error) {
	identity, ok := s.session.Current()
	if !ok {
		return projection.RoomView{}, errors.ErrNotLoggedIn
	}

	memberships, err := s.memberships.List(identity)
	if err != nil {
		return projection.RoomView{}, err
	}
	return projection.PartitionRooms(memberships), nil
}
