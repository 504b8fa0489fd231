package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emosense/internal/repositories"
	"github.com/desertthunder/emosense/internal/services"
	"github.com/desertthunder/emosense/internal/session"
	"github.com/desertthunder/emosense/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The session stack (database, session, API services) is opened lazily by the first command that
// needs it, after the root Before hook has settled the configuration.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	notifier   session.Notifier

	db      *sql.DB
	router  *session.Router
	session *session.Session
	client  *services.Client
	auth    *services.AuthService
	emotion *services.EmotionService
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Notifier   session.Notifier
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		notifier:   opts.Notifier,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, usersCommand, historyCommand, detectCommand, captureCommand, apiCommand, dashboardCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and everything it opens afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// configure loads the configuration file (when present), applies .env and EMOSENSE_* overrides and
// sets the log level.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if err := shared.ApplyEnv(r.config, cmd.String("env-file")); err != nil {
		return ctx, err
	}

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	return ctx, r.config.Validate()
}

// open builds the session stack once.
func (r *Runner) open(ctx context.Context) error {
	if r.session != nil {
		return nil
	}
	if r.config == nil {
		return shared.ErrMissingConfig
	}

	db, err := shared.OpenStorage(r.config.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open session storage: %w", err)
	}

	notifier := r.notifier
	if notifier == nil {
		notifier = session.NewLogNotifier(r.logger)
	}

	kv := repositories.NewKVRepository(db)
	router := session.NewRouter(session.HomePath)
	sess := session.New(repositories.NewSessionStore(kv, r.logger), repositories.NewTokenHolder(kv), router, notifier, r.logger)
	sess.Init(ctx)

	client, err := services.NewClient(services.ClientOptions{
		BaseURL:        r.config.API.BaseURL,
		HTTPClient:     r.httpClient,
		Timeout:        r.config.API.RequestTimeout(),
		UseCredentials: r.config.API.UseCredentials,
		RateLimit:      r.config.API.RateLimit,
		Logger:         r.logger,
	}, sess)
	if err != nil {
		db.Close()
		return err
	}

	auth := services.NewAuthService(client, sess, r.logger)
	r.db, r.router, r.session = db, router, sess
	r.client, r.auth = client, auth
	r.emotion = services.NewEmotionService(client, auth, sess, r.logger)
	return nil
}

// requireSession opens the session stack and refuses to continue without a token.
func (r *Runner) requireSession(ctx context.Context) error {
	if err := r.open(ctx); err != nil {
		return err
	}
	return r.session.RequireActive(ctx)
}

// handleAuthError reports a failed data fetch and ends the session when the failure is an auth
// error, navigating to redirectTo if set. It returns err unchanged.
func (r *Runner) handleAuthError(ctx context.Context, err error, redirectTo string) error {
	if err == nil || r.session == nil {
		return err
	}
	session.NewErrorHandler(r.session, redirectTo).Handle(ctx, err)
	return err
}

// close releases the database. Safe to call when nothing was opened.
func (r *Runner) close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.session = nil, nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
