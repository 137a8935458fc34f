package main

import (
	"bufio"
	"clipchat/auth"
	"clipchat/domain"
	"clipchat/internal"
	"clipchat/locks"
	"clipchat/moderation"
	"clipchat/projection"
	"clipchat/repositories"
	"clipchat/services"
	"clipchat/session"
	"clipchat/swarm"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and drives the interactive shell.
// Deferred cleanups (database close, index close) execute before run
// returns anything to main, so every exit path releases the stores.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.LoggerFromString(config.LogLevel)

	// 2. Stores (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = writer.Close()
	}()

	// 3. Core wiring
	keyed := locks.NewKeyed(config.LockTimeout)
	sess := session.New()
	issuer := auth.NewTokenIssuer(config.AuthTokenSecret, config.AuthTokenDuration)

	censoredChar, err := internal.CharacterRune(config.ModerationCharReplacement)
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(config.CensoredWords(), censoredChar, log)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}

	discovery := swarm.NewLoopback(config.AnnounceDelay, log)
	defer discovery.Close()

	users := repositories.NewUserRepository(db, keyed, log)
	memberships := repositories.NewMembershipRepository(db, keyed, log)
	rooms := repositories.NewRoomRepository(db, keyed, log)
	index := repositories.NewSearchIndex(writer, log)

	authService := services.NewAuthService(users, issuer, sess)
	roomService := services.NewRoomService(memberships, rooms, discovery, sess, log)
	chatService := services.NewChatService(rooms, index, &moderator, sess, config.MaxContentLength, log)

	// 4. Debug inspector
	internal.StartDebugServer(db, config.DebugPort)
	log.Info("Inspector available", "url", fmt.Sprintf("http://127.0.0.1:%d/inspect", config.DebugPort))

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shell := &shell{
		ctx:   ctx,
		auth:  authService,
		rooms: roomService,
		chat:  chatService,
		sess:  sess,
	}
	return shell.loop()
}

type shell struct {
	ctx     context.Context
	auth    services.IAuthService
	rooms   services.IRoomService
	chat    services.IChatService
	sess    *session.Session
	current domain.RoomKey
}

func (s *shell) loop() error {
	color.Cyan.Println("clipchat shell - type 'help' for commands")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		s.prompt()
		if !scanner.Scan() {
			return scanner.Err()
		}
		select {
		case <-s.ctx.Done():
			color.Yellow.Println("shutting down")
			return nil
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		if err := s.dispatch(cmd, args, line); err != nil {
			color.Red.Println(err.Error())
		}
	}
}

func (s *shell) prompt() {
	if username, ok := s.sess.Username(); ok {
		room := "no room"
		if s.current != "" {
			room = shortKey(s.current)
		}
		color.Green.Printf("%s@%s> ", username, room)
		return
	}
	color.Gray.Print("anonymous> ")
}

func (s *shell) dispatch(cmd string, args []string, line string) error {
	switch cmd {
	case "help":
		s.help()
		return nil
	case "signup":
		if len(args) != 3 {
			return fmt.Errorf("usage: signup <username> <password> <confirm>")
		}
		_, err := s.auth.Register(args[0], args[1], args[2])
		if err == nil {
			color.Green.Println("signed up and logged in")
		}
		return err
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: login <username> <password>")
		}
		_, err := s.auth.Login(args[0], args[1])
		if err == nil {
			color.Green.Println("logged in")
		}
		return err
	case "logout":
		s.auth.Logout()
		s.current = ""
		return nil
	case "create":
		roomKey, err := s.rooms.CreateRoom(s.ctx)
		if err != nil {
			return err
		}
		s.current = roomKey
		color.Green.Println("room key (share it to invite):")
		fmt.Println(roomKey.String())
		return nil
	case "join":
		if len(args) != 1 {
			return fmt.Errorf("usage: join <64-hex-room-key>")
		}
		roomKey, err := s.rooms.JoinRoom(s.ctx, args[0])
		if err != nil {
			return err
		}
		s.current = roomKey
		return nil
	case "use":
		if len(args) != 1 {
			return fmt.Errorf("usage: use <64-hex-room-key>")
		}
		roomKey, err := domain.ParseRoomKey(args[0])
		if err != nil {
			return err
		}
		s.current = roomKey
		return nil
	case "rooms":
		view, err := s.rooms.Rooms()
		if err != nil {
			return err
		}
		s.printRooms(view)
		return nil
	case "send":
		if s.current == "" {
			return fmt.Errorf("no current room: create, join or use one first")
		}
		content := strings.TrimSpace(strings.TrimPrefix(line, "send"))
		message, err := s.chat.Post(s.current, content)
		if err != nil {
			return err
		}
		color.Gray.Printf("sent %s\n", message.ID)
		return nil
	case "clip":
		if len(args) != 1 {
			return fmt.Errorf("usage: clip <file>")
		}
		if s.current == "" {
			return fmt.Errorf("no current room: create, join or use one first")
		}
		payload, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		message, err := s.chat.PostClip(s.current, payload)
		if err != nil {
			return err
		}
		color.Gray.Printf("clipped as %s\n", message.Kind)
		return nil
	case "history":
		if s.current == "" {
			return fmt.Errorf("no current room: create, join or use one first")
		}
		messages, err := s.chat.History(s.current)
		if err != nil {
			return err
		}
		timeline := projection.NewTimeline(s.current, messages)
		s.printMessages(timeline.Recent(50))
		return nil
	case "find":
		if s.current == "" {
			return fmt.Errorf("no current room: create, join or use one first")
		}
		hits, err := s.chat.Find(s.ctx, s.current, strings.TrimPrefix(line, "find"))
		if err != nil {
			return err
		}
		for _, hit := range hits {
			fmt.Printf("[%s] %s\n", hit.Author, hit.Content)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
}

func (s *shell) help() {
	fmt.Println(`commands:
  signup <username> <password> <confirm>
  login <username> <password>
  logout
  create                      create a room and print its key
  join <key>                  join a room by key
  use <key>                   switch the current room
  rooms                       list your rooms
  send <text>                 post a message to the current room
  clip <file>                 post a text file as a clip
  history                     show the current room's messages
  find <terms> [--lang xx] [--limit n]
  quit`)
}

func (s *shell) printRooms(view projection.RoomView) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Room", "Role", "Recorded"})
	for _, membership := range view.Created {
		table.Append([]string{shortKey(membership.RoomKey), string(membership.Role), membership.RecordedAt.Format("2006-01-02 15:04")})
	}
	for _, membership := range view.Joined {
		table.Append([]string{shortKey(membership.RoomKey), string(membership.Role), membership.RecordedAt.Format("2006-01-02 15:04")})
	}
	table.Render()
}

func (s *shell) printMessages(messages []domain.Message) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"At", "Author", "Lang", "Content"})
	for _, message := range messages {
		table.Append([]string{
			message.PostedAt.Format("15:04:05"),
			message.Author,
			message.Lang,
			message.Content,
		})
	}
	table.Render()
}

func shortKey(key domain.RoomKey) string {
	raw := key.String()
	return raw[:8] + "..." + raw[len(raw)-4:]
}
