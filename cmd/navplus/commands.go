package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/navplus/internal/app"
	"github.com/vanderheijden86/navplus/pkg/config"
	"github.com/vanderheijden86/navplus/pkg/forest"
	"github.com/vanderheijden86/navplus/pkg/loader"
	"github.com/vanderheijden86/navplus/pkg/navtree"
	"github.com/vanderheijden86/navplus/pkg/store"
	"github.com/vanderheijden86/navplus/pkg/watcher"
)

const (
	formatGroup = "group"
	formatTable = "table"
	formatJSON  = "json"
)

func commands() []*cli.Command {
	formatFlag := &cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatGroup,
		Usage: "output `TYPE` (" + strings.Join([]string{formatGroup, formatTable, formatJSON}, ", ") + ")"}

	return []*cli.Command{
		{
			Name:         "build",
			Usage:        "Builds the navigation forest and prints a summary",
			OnUsageError: usageErrorHandler,
			Action:       runBuild,
		},
		{
			Name:         "dump",
			Usage:        "Prints the navigation forest, or the generator's default tree",
			OnUsageError: usageErrorHandler,
			Flags: []cli.Flag{
				formatFlag,
				&cli.BoolFlag{Name: "default", Usage: "dump the complete default tree instead of the forest"},
			},
			Action: runDump,
		},
		{
			Name:         "missed",
			Usage:        "Lists pages of the default tree that the forest does not link to",
			OnUsageError: usageErrorHandler,
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "sorted", Value: true, Usage: "order rows naturally by name"},
			},
			Action: runMissed,
		},
		{
			Name:         "browse",
			Usage:        "Browses the documentation in the terminal",
			OnUsageError: usageErrorHandler,
			Action:       runBrowse,
		},
		{
			Name:         "watch",
			Usage:        "Rebuilds the navigation whenever the documentation is regenerated",
			OnUsageError: usageErrorHandler,
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "poll", Usage: "poll instead of using file system events"},
				&cli.DurationFlag{Name: "interval", Value: watcher.DefaultPollInterval, Usage: "polling `INTERVAL`"},
			},
			Action: runWatch,
		},
		{
			Name:         "purge",
			Usage:        "Removes expired entries from the store",
			OnUsageError: usageErrorHandler,
			Action:       runPurge,
		},
		{
			Name:         "reset",
			Usage:        "Forgets the cached forest and layout state of the documentation set",
			OnUsageError: usageErrorHandler,
			Action:       runReset,
		},
		{
			Name:         "namespace",
			Usage:        "Prints the store namespace of the documentation set",
			OnUsageError: usageErrorHandler,
			Action:       runNamespace,
		},
		{
			Name:  "dumpconfig",
			Usage: "Dumps either default or actual configuration (YAML)",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "default", Usage: "output default configuration"},
			},
			OnUsageError: usageErrorHandler,
			ArgsUsage:    "DESTINATION",
			Action:       outputConfiguration,
		},
	}
}

// build runs the forest pipeline. Unless strict, a documentation set without
// navigation is logged and treated as empty.
func build(ctx context.Context, s *app.Session, strict bool) (forest.Result, error) {
	res, err := s.Build(ctx)
	if err == nil || strict {
		return res, err
	}
	if errors.Is(err, loader.ErrUnavailable) || errors.Is(err, forest.ErrNoSections) {
		s.Log().Warn("navigation unavailable", zap.Error(err))
		return res, nil
	}
	return res, err
}

func runBuild(ctx context.Context, cmd *cli.Command) error {
	return withSession(ctx, nil, func(s *app.Session) error {
		res, err := build(ctx, s, true)
		if err != nil {
			return err
		}
		w := cmd.Root().Writer
		fmt.Fprintf(w, "namespace: %s\n", s.Project.Namespace())
		fmt.Fprintf(w, "sections:  %s\n", strings.Join(res.Forest.Names(), ", "))
		fmt.Fprintf(w, "indented:  %t\n", res.Indented)
		fmt.Fprintf(w, "cached:    %t\n", res.FromCache)
		if res.Report != nil {
			fmt.Fprintf(w, "chunks:    %d fetched, %d failed\n", res.Report.Fetched, len(res.Report.Failed))
			if err := res.Report.Err(); err != nil {
				s.Log().Warn("some chunks failed to load", zap.Error(err))
			}
		}
		return nil
	})
}

func runDump(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	switch format {
	case formatGroup, formatTable, formatJSON:
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	return withSession(ctx, nil, func(s *app.Session) error {
		var tree []*navtree.Node
		if cmd.Bool("default") {
			var err error
			if tree, err = s.DefaultTree(ctx); err != nil {
				if tree == nil {
					return err
				}
				s.Log().Warn("some chunks failed to load", zap.Error(err))
			}
		} else {
			res, err := build(ctx, s, false)
			if err != nil {
				return err
			}
			tree = res.Forest
		}
		return writeTree(cmd.Root().Writer, format, tree)
	})
}

func writeTree(w io.Writer, format string, tree []*navtree.Node) error {
	switch format {
	case formatTable:
		return forest.DumpTable(w, forest.TableRows(tree))
	case formatJSON:
		data, err := navtree.Encode(tree)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	default:
		return forest.DumpGroup(w, tree)
	}
}

func runMissed(ctx context.Context, cmd *cli.Command) error {
	return withSession(ctx, nil, func(s *app.Session) error {
		res, err := build(ctx, s, false)
		if err != nil {
			return err
		}
		def, err := s.DefaultTree(ctx)
		if err != nil {
			if def == nil {
				return err
			}
			s.Log().Warn("some chunks failed to load", zap.Error(err))
		}
		return forest.DumpTable(cmd.Root().Writer, forest.MissedPages(res.Forest, def, cmd.Bool("sorted")))
	})
}

func runBrowse(ctx context.Context, _ *cli.Command) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("browse needs an interactive terminal")
	}
	env := app.EnvFromContext(ctx)

	// The terminal belongs to the browser, so logs go to a file next to the
	// store.
	dir := filepath.Dir(env.Cfg.Store.Path)
	if env.Cfg.Store.Path == app.MemoryStore {
		dir = filepath.Dir(config.DefaultStorePath())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	log, closeLog, err := app.NewFileLogger(filepath.Join(dir, "navplus.log"), env.Log.Core().Enabled(zap.DebugLevel))
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = log.Sync(); _ = closeLog() }()

	return withSession(ctx, log, func(s *app.Session) error {
		res, err := build(ctx, s, false)
		if err != nil {
			return err
		}
		return s.Browse(ctx, res)
	})
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	return withSession(ctx, nil, func(s *app.Session) error {
		if _, err := build(ctx, s, false); err != nil {
			return err
		}
		rebuild := func() {
			res, err := build(ctx, s, false)
			if err != nil {
				s.Log().Error("rebuilding navigation", zap.Error(err))
				return
			}
			s.Log().Info("navigation rebuilt",
				zap.Bool("cached", res.FromCache),
				zap.Strings("sections", res.Forest.Names()))
		}
		w, err := s.Watch(rebuild,
			watcher.WithForcePoll(cmd.Bool("poll")),
			watcher.WithPollInterval(cmd.Duration("interval")))
		if err != nil {
			return err
		}
		s.Log().Info("watching for regeneration",
			zap.String("path", w.Path()),
			zap.Bool("polling", w.IsPolling()),
			zap.Stringer("filesystem", w.FilesystemType()))

		<-ctx.Done()
		return w.Stop()
	})
}

func runPurge(ctx context.Context, cmd *cli.Command) error {
	return withSession(ctx, nil, func(s *app.Session) error {
		n, err := s.Store.PurgeExpired(ctx, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.Root().Writer, "removed %d expired entries\n", n)
		return nil
	})
}

// resetKeys are the project keys reset forgets. Member tree state is keyed
// by page and left to expire.
var resetKeys = []string{
	store.KeyGenData,
	store.KeyPriTree,
	store.KeyPriTreeIndented,
	store.KeyPriNavExpandedNodes,
	store.KeyPrevURL,
	store.KeyDualNav,
	store.KeyPriWidth,
	store.KeySecWidth,
}

func runReset(ctx context.Context, cmd *cli.Command) error {
	return withSession(ctx, nil, func(s *app.Session) error {
		var err error
		for _, k := range resetKeys {
			err = multierr.Append(err, s.Project.Delete(ctx, k))
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.Root().Writer, "reset %s\n", s.Project.Namespace())
		return nil
	})
}

func runNamespace(ctx context.Context, cmd *cli.Command) error {
	env := app.EnvFromContext(ctx)
	root, err := loader.FindDocRoot(env.Cfg.DocRoot)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, store.Namespace(app.URLRoot(root)))
	return err
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := app.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	cfg, state := *env.Cfg, "actual"
	if cmd.Bool("default") {
		cfg, state = config.DefaultConfig(), "default"
	}

	fname := cmd.Args().Get(0)
	if fname != "" {
		env.Log.Info("Outputing configuration", zap.String("state", state), zap.String("file", fname))
		return config.SaveTo(cfg, fname)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}
	if _, err := cmd.Root().Writer.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
