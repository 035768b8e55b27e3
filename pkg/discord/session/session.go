package session

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/small-frappuccino/nicknamebot/pkg/errutil"
	"github.com/small-frappuccino/nicknamebot/pkg/log"
)

// Error messages
const (
	ErrSessionCreationFailed   = "failed to create Discord session: %w"
	ErrSessionConnectionFailed = "failed to connect to Discord: %w"
)

// Intents are the gateway intents the bot needs: guild state for the
// permission checks and member data for target lookups.
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

// Swapped out in tests.
var (
	newSession   = discordgo.New
	openSession  = func(s *discordgo.Session) error { return s.Open() }
	closeSession = func(s *discordgo.Session) error { return s.Close() }
)

// Options configures NewDiscordSession.
type Options struct {
	Token  string
	Logger *slog.Logger
	// DiscordgoLevel filters discordgo's own log lines.
	DiscordgoLevel slog.Level
}

// NewDiscordSession creates a session, routes discordgo's logging through
// slog and connects to the gateway.
func NewDiscordSession(opts Options) (*discordgo.Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.DiscordLogger()
	}

	if opts.Token == "" {
		logger.Error("Discord bot token is empty")
		return nil, fmt.Errorf("discord bot token is empty")
	}

	discordgo.Logger = log.DiscordgoLogger(logger)

	var s *discordgo.Session
	if err := errutil.HandleDiscordError("create_session", func() error {
		var sessionErr error
		s, sessionErr = newSession("Bot " + opts.Token)
		return sessionErr
	}); err != nil {
		return nil, fmt.Errorf(ErrSessionCreationFailed, err)
	}

	s.LogLevel = log.DiscordgoLevel(opts.DiscordgoLevel)
	s.Identify.Intents = Intents
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		logger.Info("Logged in",
			slog.String("user", r.User.Username),
			slog.String("user_id", r.User.ID),
			slog.Int("guilds", len(r.Guilds)))
	})

	logger.Info("Connecting to Discord")
	if err := errutil.HandleDiscordError("connect", func() error {
		return openSession(s)
	}); err != nil {
		_ = closeSession(s)
		return nil, fmt.Errorf(ErrSessionConnectionFailed, err)
	}

	logger.Info("Connected to Discord")
	return s, nil
}

// Close disconnects the gateway.
func Close(s *discordgo.Session) error {
	if s == nil {
		return nil
	}
	return closeSession(s)
}
