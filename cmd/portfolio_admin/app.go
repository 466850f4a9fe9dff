package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nathanieluriri/omas-portfolio/internal/apiclient"
	"github.com/nathanieluriri/omas-portfolio/internal/config"
	"github.com/nathanieluriri/omas-portfolio/internal/content"
	"github.com/nathanieluriri/omas-portfolio/internal/draft"
	"github.com/nathanieluriri/omas-portfolio/internal/observability"
	"github.com/nathanieluriri/omas-portfolio/internal/schemas"
	"github.com/nathanieluriri/omas-portfolio/internal/session"
)

var (
	configPath      string
	flagAPIBaseURL  string
	flagUserID      string
	flagSessionFile string
	flagTimeout     int
	flagVerbose     bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to JSON config file")
	flags.StringVar(&flagAPIBaseURL, "api-base-url", "", "Portfolio API base URL (overrides "+config.EnvAPIBaseURL+")")
	flags.StringVar(&flagUserID, "user-id", "", "Portfolio owner for public reads (overrides "+config.EnvUserID+")")
	flags.StringVar(&flagSessionFile, "session-file", "", "Where tokens are kept between runs (overrides "+config.EnvSessionFile+")")
	flags.IntVar(&flagTimeout, "timeout", config.DefaultTimeoutSeconds, "HTTP timeout in seconds")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "Print detailed debug information")
}

// app bundles what every command needs once configuration is resolved.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	printer  *observability.Printer
	out      io.Writer
	sessions *session.FileStore
	client   *apiclient.Client
}

// newApp resolves configuration (flags > env > config file > defaults) and builds
// the API client on top of the file-backed session.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, err
	}

	// CLI flags override config file and environment only when explicitly set
	flags := cmd.Flags()
	if flags.Changed("api-base-url") {
		cfg.APIBaseURL = flagAPIBaseURL
	}
	if flags.Changed("user-id") {
		cfg.UserID = flagUserID
	}
	if flags.Changed("session-file") {
		cfg.SessionFile = flagSessionFile
	}
	if flags.Changed("timeout") {
		cfg.TimeoutSeconds = flagTimeout
	}
	if flags.Changed("verbose") {
		cfg.Verbose = flagVerbose
	}

	cfg.SchemaPath = resolveSchemaPath(cfg.SchemaPath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	sessions, err := session.OpenFileStore(cfg.SessionFile)
	if err != nil {
		return nil, err
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL:  cfg.APIBaseURL,
		Timeout:  cfg.Timeout(),
		Sessions: sessions,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("configuration resolved",
		zap.String("api_base_url", cfg.APIBaseURL),
		zap.String("session_file", cfg.SessionFile),
		zap.Duration("timeout", cfg.Timeout()),
		zap.Bool("signed_in", !sessions.Get().Empty()),
	)

	out := cmd.OutOrStdout()
	return &app{
		cfg:      cfg,
		logger:   logger,
		printer:  observability.NewPrinter(out),
		out:      out,
		sessions: sessions,
		client:   client,
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// resolveSchemaPath finds a relative schema path from the working directory or
// the repo root above it. Unknown paths are returned unchanged so validation
// reports them.
func resolveSchemaPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if resolved := schemas.ResolveSchemaPath(path); resolved != "" {
		return resolved
	}
	return path
}

// validator returns the schema drafts are checked against before saving.
func (a *app) validator() (*schemas.Validator, error) {
	if a.cfg.SchemaPath != "" {
		return schemas.LoadValidator(a.cfg.SchemaPath)
	}
	return schemas.PortfolioValidator()
}

// loadDraft loads the signed-in user's portfolio into a draft store.
func (a *app) loadDraft(cmd *cobra.Command) (*draft.Store, error) {
	v, err := a.validator()
	if err != nil {
		return nil, err
	}
	store := draft.NewStore(a.client, draft.Options{Validator: v, Logger: a.logger})
	if err := store.Load(cmd.Context()); err != nil {
		return nil, a.explain(err)
	}
	return store, nil
}

func unauthorized(err error) bool {
	return errors.Is(err, apiclient.ErrUnauthorized)
}

// explain points the user at login when the session is gone.
func (a *app) explain(err error) error {
	if unauthorized(err) {
		return fmt.Errorf("%w (run 'portfolio_admin login')", err)
	}
	return err
}

func (a *app) status(store *draft.Store) observability.DraftStatus {
	doc := store.Draft()
	return observability.DraftStatus{
		Exists:     !doc.IsNull(),
		HasChanges: store.HasChanges(),
		Sections:   doc.Keys(),
		Error:      store.ErrorMessage(),
	}
}

// printf writes to the command output.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// printDocument writes doc as indented JSON, keeping its key order.
func (a *app) printDocument(doc content.Value) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	a.printf("%s\n", data)
	return nil
}

// parseAssignment splits "path=value".
func parseAssignment(arg string) (content.Path, string, error) {
	raw, value, ok := strings.Cut(arg, "=")
	if !ok {
		return nil, "", fmt.Errorf("expected path=value, got %q", arg)
	}
	path, err := content.ParsePath(strings.TrimSpace(raw))
	if err != nil {
		return nil, "", err
	}
	return path, value, nil
}

func since(start time.Time) zap.Field {
	return zap.Duration("elapsed", time.Since(start))
}
