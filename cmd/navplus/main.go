// Command navplus builds the condensed navigation of a generated
// documentation set and browses it in the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vanderheijden86/navplus/internal/app"
	"github.com/vanderheijden86/navplus/pkg/config"
	"github.com/vanderheijden86/navplus/pkg/debug"
	"github.com/vanderheijden86/navplus/pkg/metrics"
	"github.com/vanderheijden86/navplus/pkg/version"
)

// initializeAppContext loads configuration and prepares logging once the
// command line has been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	env := app.EnvFromContext(ctx)

	var (
		cfg config.Config
		err error
	)
	if path := cmd.String("config"); path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if root := cmd.String("root"); root != "" {
		cfg.DocRoot = root
	}
	if err := cfg.Validate(); err != nil {
		return ctx, fmt.Errorf("invalid configuration: %w", err)
	}
	env.Cfg = &cfg

	verbose := cmd.Bool("debug")
	env.Log = app.NewLogger(os.Stderr, verbose)
	env.RedirectStdLog()
	if verbose {
		debug.SetEnabled(true)
		debug.SetLogger(env.Log)
		metrics.SetEnabled(true)
	}

	env.Log.Debug("Program started",
		zap.Strings("args", os.Args),
		zap.String("ver", version.String()),
		zap.String("runtime", runtime.Version()))
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	env := app.EnvFromContext(ctx)
	if metrics.Enabled() {
		for _, s := range metrics.AllTimingStats() {
			if s.Count > 0 {
				env.Log.Debug("timing", zap.String("metric", s.Name), zap.Int64("count", s.Count), zap.Float64("avg_ms", s.AvgMs))
			}
		}
	}
	env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	env.RestoreStdLog()
	return nil
}

var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := app.EnvFromContext(ctx)
	if env.Cfg != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

// newApp returns the command tree writing its output to w.
func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:            "navplus",
		Usage:           "condensed navigation for generated documentation",
		Version:         version.String() + " (" + runtime.Version() + ")",
		Writer:          w,
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "documentation `DIR` holding navtreedata.js"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "verbose logging with timings"},
		},
		Commands: commands(),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(app.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	// os.Exit skips deferred calls, so this must stay the only one.
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp(os.Stdout).Run(ctx, os.Args)
}

// withSession opens the documentation set for the duration of fn. A nil log
// uses the run's logger.
func withSession(ctx context.Context, log *zap.Logger, fn func(*app.Session) error) (err error) {
	env := app.EnvFromContext(ctx)
	if log == nil {
		log = env.Log
	}
	s, err := app.Open(ctx, *env.Cfg, log, env.Cfg.DocRoot)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("closing store: %w", cerr))
		}
	}()
	return fn(s)
}
