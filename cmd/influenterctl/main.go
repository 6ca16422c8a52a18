// Command influenterctl drives an Influenter session from the terminal. It
// keeps its local cache on disk, so commands keep working while the backend
// is down and `influenterctl sync` replays what was created offline.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/designcomb/influenter/client"
	"github.com/designcomb/influenter/client/internal/logger"
)

const commandTimeout = 30 * time.Second

// env is the state shared by every subcommand of one invocation.
type env struct {
	api      string
	token    string
	cacheDir string
	logLevel string

	cfg    client.Config
	logger zerolog.Logger
}

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	e := &env{}
	rootCmd := &cobra.Command{
		Use:           "influenterctl",
		Short:         "Manage Influenter cases, tasks and catalog from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e.logger = logger.NewWithWriter(cmd.ErrOrStderr(), "influenterctl", e.logLevel)
			cfg, err := client.LoadConfig(e.logger)
			if err != nil {
				return err
			}
			e.cfg = cfg
			if !cmd.Flags().Changed("api") {
				e.api = cfg.APIBase
			}
			if !cmd.Flags().Changed("cache") {
				e.cacheDir = cfg.CacheDir
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&e.api, "api", "", "Backend base URL (default $INFLUENTER_API_BASE)")
	rootCmd.PersistentFlags().StringVar(&e.token, "token", os.Getenv("INFLUENTER_TOKEN"), "Bearer token; the stored session is used when empty")
	rootCmd.PersistentFlags().StringVar(&e.cacheDir, "cache", "", "Local cache directory (default ~/.influenter)")
	rootCmd.PersistentFlags().StringVar(&e.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newCasesCmd(e))
	rootCmd.AddCommand(newTasksCmd(e))
	rootCmd.AddCommand(newItemsCmd(e))
	rootCmd.AddCommand(newFieldsCmd(e))
	rootCmd.AddCommand(newWorkflowsCmd(e))
	rootCmd.AddCommand(newEmailsCmd(e))
	rootCmd.AddCommand(newSyncCmd(e))
	rootCmd.AddCommand(newLogoutCmd(e))
	return rootCmd
}

// open builds a session over the on-disk cache. The returned func releases
// the client and the cache.
func (e *env) open(ctx context.Context) (*client.Session, func(), error) {
	opts := append(e.cfg.Options(), client.WithLogger(e.logger))
	if e.token != "" {
		tok := e.token
		opts = append(opts, client.WithTokenSource(func() string { return tok }))
	}
	c, err := client.New(e.api, opts...)
	if err != nil {
		return nil, nil, err
	}
	cache, err := client.OpenCache(e.cacheDir, e.logger)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	s := c.NewSession(cache)
	if e.token == "" {
		if err := s.Auth.Init(ctx); err != nil && !errors.Is(err, client.ErrNoToken) {
			e.logger.Warn().Err(err).Msg("stored session not restored")
		}
	}
	release := func() {
		_ = c.Close()
		_ = cache.Close()
	}
	return s, release, nil
}

// run opens a session with a bounded context and hands it to fn.
func (e *env) run(cmd *cobra.Command, fn func(ctx context.Context, s *client.Session) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	s, release, err := e.open(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, s)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// note prints how a value was obtained when it is not confirmed.
func note(w io.Writer, origin client.Origin, remoteErr error) {
	switch origin {
	case client.Cached:
		if remoteErr != nil {
			_, _ = fmt.Fprintln(w, "(offline: showing cached data)")
		}
	case client.Provisional:
		_, _ = fmt.Fprintln(w, "(offline: saved locally, run `influenterctl sync` later)")
	}
}
