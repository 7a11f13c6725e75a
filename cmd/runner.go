package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tvbf/internal/repositories"
	"github.com/desertthunder/tvbf/internal/services"
	"github.com/desertthunder/tvbf/internal/session"
	"github.com/desertthunder/tvbf/internal/shared"
	"github.com/desertthunder/tvbf/internal/tokens"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	store      tokens.Store
	users      *services.UserService
	catalog    *services.CatalogService
	session    *session.Manager
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	lines      *bufio.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      tokens.Store
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration.
//
// Without a Store, tokens are held in memory until [Runner.Before] opens the database.
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.HTTP.Timeout}
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
	r.wire(opts.Store)
	return r
}

// wire builds the service clients and session manager around store.
func (r *Runner) wire(store tokens.Store) {
	if store == nil {
		store = tokens.NewMemoryStore()
	}

	r.store = store
	r.users = services.NewUserService(services.UserServiceOpts{
		BaseURL:    r.config.Services.UserURL,
		HTTPClient: r.httpClient,
		Store:      store,
		Logger:     r.logger,
	})
	r.catalog = services.NewCatalogService(services.CatalogServiceOpts{
		ShowURL:           r.config.Services.ShowURL,
		SeasonURL:         r.config.Services.SeasonURL,
		EpisodeURL:        r.config.Services.EpisodeURL,
		HTTPClient:        r.httpClient,
		RequestsPerSecond: r.config.Catalog.RequestsPerSecond,
		Burst:             r.config.Catalog.Burst,
		SearchLimit:       r.config.Catalog.SearchLimit,
		Logger:            r.logger,
	})
	r.session = session.NewManager(r.users, store, r.logger)
}

// Before runs ahead of every command: it applies --debug, loads --config and opens the token database.
//
// With --ephemeral tokens stay in memory and nothing is written to disk.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.logger.Debug("loaded config", "path", r.configPath)
	} else {
		r.config.ApplyEnv(os.Getenv)
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if r.config.HTTP.Timeout > 0 {
		r.httpClient.Timeout = r.config.HTTP.Timeout
	}

	if cmd.Bool("ephemeral") {
		r.wire(tokens.NewMemoryStore())
		return ctx, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return ctx, fmt.Errorf("failed to open token database: %w", err)
	}
	r.db = db
	r.wire(tokens.NewSQLStore(repositories.NewKVRepository(db), r.logger))
	return ctx, nil
}

// After closes the token database.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the logger used by the runner and rebuilds the clients that log through it.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.wire(r.store)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, accountCommand, showsCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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

func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
