// Package cli implements the subclip command line.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/runnerr0/subclip/internal/config"
	"github.com/runnerr0/subclip/internal/logging"
	"github.com/runnerr0/subclip/internal/storage"
)

// UsageError reports a bad flag combination. The usage text goes to
// stderr and the process exits with status 2.
type UsageError struct {
	Msg   string
	Usage string
}

func (e *UsageError) Error() string {
	if e.Usage == "" {
		return e.Msg
	}
	return e.Msg + "\n\n" + e.Usage
}

// ExitCode maps an error returned by Run to a process exit status.
func ExitCode(err error) int {
	var usage *UsageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usage):
		return 2
	default:
		return 1
	}
}

// buildParser constructs the go-flags parser for opts.
func buildParser(opts *Options) *goflags.Parser {
	parser := goflags.NewParser(opts, goflags.HelpFlag|goflags.PassDoubleDash)
	parser.Name = "subclip"
	parser.Usage = "[OPTIONS]"
	parser.LongDescription = "Index the subtitles of a media library and turn text searches into playable clips."
	return parser
}

func usageText(parser *goflags.Parser) string {
	var buf bytes.Buffer
	parser.WriteHelp(&buf)
	return buf.String()
}

// Run is the main entry point for the subclip CLI using os.Args.
func Run(ctx context.Context, version string) error {
	return RunWithArgs(ctx, version, os.Args[1:])
}

// RunWithArgs parses args and executes the selected modes in order:
// index, search, stats.
func RunWithArgs(ctx context.Context, version string, args []string) error {
	var opts Options
	parser := buildParser(&opts)

	rest, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			fmt.Print(usageText(parser))
			return nil
		}
		return &UsageError{Msg: err.Error(), Usage: usageText(parser)}
	}
	if len(rest) > 0 {
		return &UsageError{Msg: fmt.Sprintf("unexpected argument %q", rest[0]), Usage: usageText(parser)}
	}

	if opts.Version {
		fmt.Printf("subclip %s\n", version)
		return nil
	}

	if err := validate(&opts); err != nil {
		if errors.Is(err, errNothingToDo) {
			fmt.Print(usageText(parser))
			return nil
		}
		return &UsageError{Msg: err.Error(), Usage: usageText(parser)}
	}

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return err
	}
	applyFlags(parser, &opts, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logFile, err := config.ExpandPath(cfg.Logging.File)
	if err != nil {
		return err
	}
	closer, err := logging.Init(logging.Options{
		Level:   cfg.Logging.Level,
		Verbose: opts.Verbose,
		File:    logFile,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	a := &app{
		opts:    &opts,
		cfg:     cfg,
		version: version,
		log:     logging.WithComponent("cli"),
	}
	return a.run(ctx)
}

var errNothingToDo = errors.New("nothing to do")

// validate checks flag combinations that go-flags cannot express.
func validate(opts *Options) error {
	switch {
	case opts.Reload && opts.Update:
		return errors.New("--reload and --update cannot be combined")
	case opts.indexing() && opts.Args.Directory == "":
		return errors.New("--reload and --update require a directory")
	case !opts.indexing() && opts.Args.Directory != "" && opts.Query == "" && !opts.Stats:
		return fmt.Errorf("directory %q given without --reload or --update", opts.Args.Directory)
	case !opts.indexing() && opts.Query == "" && !opts.Stats:
		return errNothingToDo
	case opts.Before < 0 || opts.After < 0:
		return errors.New("--before and --after must be non-negative")
	}
	return nil
}

// applyFlags lets explicitly given flags override the config file.
func applyFlags(parser *goflags.Parser, opts *Options, cfg *config.Config) {
	if isSet(parser, "before") {
		cfg.Search.Before = opts.Before
	}
	if isSet(parser, "after") {
		cfg.Search.After = opts.After
	}
	if opts.OutputDir != "" {
		cfg.Output.Dir = opts.OutputDir
	}
	if opts.Strict {
		cfg.Library.DecodePolicy = config.DecodePolicyStrict
	}
}

func isSet(parser *goflags.Parser, long string) bool {
	opt := parser.FindOptionByLongName(long)
	return opt != nil && opt.IsSet() && !opt.IsSetDefault()
}

// app holds the state of one invocation.
type app struct {
	opts    *Options
	cfg     *config.Config
	version string
	log     zerolog.Logger
}

func (a *app) run(ctx context.Context) error {
	if !a.opts.indexing() && a.opts.Args.Directory != "" {
		a.log.Debug().Str("directory", a.opts.Args.Directory).Msg("directory ignored without --reload or --update")
	}

	dbPath := a.opts.DB
	if dbPath == "" {
		var err error
		if dbPath, err = a.cfg.DatabasePath(); err != nil {
			return err
		}
	}

	lock, err := acquireLock(dbPath, a.opts.indexing())
	if err != nil {
		return err
	}
	defer lock.Unlock()

	store, db, err := storage.Open(dbPath, a.cfg.Storage.SQLiteJournalMode)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	if a.opts.indexing() {
		if err := a.runIndex(ctx, store); err != nil {
			return err
		}
	}
	if a.opts.Query != "" {
		if err := a.runSearch(ctx, store); err != nil {
			return err
		}
	}
	if a.opts.Stats {
		if err := a.runStats(ctx, store, dbPath); err != nil {
			return err
		}
	}
	return nil
}
