package e2e

import (
	"encoding/json"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"

	"clipchat/auth"
	"clipchat/internal"
	"clipchat/locks"
	"clipchat/moderation"
	"clipchat/repositories"
	"clipchat/services"
	"clipchat/session"
	"clipchat/swarm"
)

// BaseSuite wires the whole stack against throwaway stores, the same
// assembly the shell binary performs, so scenarios exercise real
// persistence and indexing rather than mocks.
type BaseSuite struct {
	suite.Suite
	Config Config

	Auth  services.IAuthService
	Rooms services.IRoomService
	Chat  services.IChatService

	RoomStore repositories.IRoomRepository
	db        *badger.DB
	writer    *bluge.Writer
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

// SetupTest rebuilds the stack from scratch so scenarios never share state
func (s *BaseSuite) SetupTest() {
	var err error
	s.db, err = badger.Open(badger.DefaultOptions(s.T().TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	s.Require().NoError(err)

	s.writer, err = bluge.OpenWriter(bluge.DefaultConfig(s.T().TempDir()))
	s.Require().NoError(err)

	log := internal.LoggerFromString("warn")
	keyed := locks.NewKeyed(s.Config.LockTimeout)
	sess := session.New()
	tokens := auth.NewTokenIssuer(s.Config.TokenSecret, time.Hour)
	moderator, err := moderation.NewModerator([]string{"secret"}, '*', log)
	s.Require().NoError(err)
	discovery := swarm.NewLoopback(10*time.Millisecond, log)

	users := repositories.NewUserRepository(s.db, keyed, log)
	memberships := repositories.NewMembershipRepository(s.db, keyed, log)
	s.RoomStore = repositories.NewRoomRepository(s.db, keyed, log)
	index := repositories.NewSearchIndex(s.writer, log)

	s.Auth = services.NewAuthService(users, tokens, sess)
	s.Rooms = services.NewRoomService(memberships, s.RoomStore, discovery, sess, log)
	s.Chat = services.NewChatService(s.RoomStore, index, &moderator, sess, 4096, log)
}

func (s *BaseSuite) TearDownTest() {
	s.Require().NoError(s.writer.Close())
	s.Require().NoError(s.db.Close())
}

// Step prints a colorized header so long scenario logs stay readable
func (s *BaseSuite) Step(name string) {
	header := "  ====== " + name + " ======"
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Dump logs any value as indented JSON if E2E_DEBUG_JSON is enabled
func (s *BaseSuite) Dump(label string, v any) {
	if !s.Config.DebugJSON {
		return
	}
	body, err := json.MarshalIndent(v, "", "  ")
	s.Require().NoError(err)
	s.T().Logf("%s:\n%s", label, body)
}
