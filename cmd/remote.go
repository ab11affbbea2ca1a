package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"bugsync/core/config"
	"bugsync/core/logger"
	"bugsync/core/transport"
	"bugsync/feature/bug"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// session is what every tracker command needs.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	client *transport.Client
	ctrl   *bug.Controller
}

// connect loads the configuration and logs in to the tracker.
func connect(cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	client, err := transport.Connect(cmd.Context(), cfg.Remote, transport.WithLogger(logg))
	if err != nil {
		return nil, err
	}
	logg.Debug("Connected to tracker",
		zap.String("url", cfg.Remote.URL),
		zap.Bool("authenticated", client.Authenticated()))
	return &session{
		cfg:    cfg,
		logger: logg,
		client: client,
		ctrl:   bug.NewController(client, logg),
	}, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// stub returns a persisted bug carrying only its id, enough to list its
// comments or attachments without fetching it.
func stub(id int64) (*bug.Bug, error) {
	return bug.Decode(map[string]any{"id": id})
}

// parseAssignment splits field=value. Integers and booleans are typed, the
// rest stays a string.
func parseAssignment(s string) (string, any, error) {
	field, raw, ok := strings.Cut(s, "=")
	if !ok || field == "" {
		return "", nil, fmt.Errorf("expected field=value, got %q", s)
	}
	return field, parseValue(raw), nil
}

func parseValue(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}
