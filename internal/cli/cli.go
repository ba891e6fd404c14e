package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agatinet31/pep-parser/internal/config"
	"github.com/agatinet31/pep-parser/internal/docs"
	"github.com/agatinet31/pep-parser/internal/fetch"
	"github.com/agatinet31/pep-parser/internal/logger"
	"github.com/agatinet31/pep-parser/internal/output"
	"github.com/agatinet31/pep-parser/internal/pep"
	"github.com/agatinet31/pep-parser/internal/storage"
	"github.com/agatinet31/pep-parser/internal/table"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// Parser modes
const (
	ModeWhatsNew       = "whats-new"
	ModeLatestVersions = "latest-versions"
	ModeDownload       = "download"
	ModePEP            = "pep"
)

// app is the wiring shared by every mode for one invocation.
type app struct {
	cfg     *config.Config
	session *fetch.Session
	log     *logger.Logger
	metrics *logger.Metrics
	stdout  io.Writer
}

type modeFunc func(ctx context.Context, a *app) (*table.Table, error)

var modes = map[string]modeFunc{
	ModeWhatsNew:       runWhatsNew,
	ModeLatestVersions: runLatestVersions,
	ModeDownload:       runDownload,
	ModePEP:            runPEP,
}

// Modes returns the mode names in alphabetical order.
func Modes() []string {
	names := make([]string, 0, len(modes))
	for name := range modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type options struct {
	configFile string
	output     string
	clearCache bool
	verbose    bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	formats := make([]string, 0, len(output.Formats()))
	for _, f := range output.Formats() {
		formats = append(formats, string(f))
	}

	cmd := &cobra.Command{
		Use:   "pep-parser <mode>",
		Short: "Parse the Python documentation and PEP index",
		Long: `A CLI tool that extracts tables from docs.python.org and peps.python.org.

Modes:
  whats-new        list "What's New" articles with their editors
  latest-versions  list documentation versions and their status
  download         save the A4 PDF documentation archive
  pep              count PEPs by status, checking the index against each PEP page`,
		Args:          cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:     Modes(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", string(output.FormatConsole),
		"Output format: "+strings.Join(formats, ", "))
	cmd.Flags().BoolVarP(&opts.clearCache, "clear-cache", "c", false, "Clear the HTTP cache before running")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "Path to a YAML config file")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().String("taxonomy-file", "", "YAML file mapping PEP status codes to status names")
	cmd.Flags().String("results-dir", "", "Directory for file and xlsx output")
	cmd.Flags().String("log-file", "", "Path of the JSON log file")

	return cmd
}

// run is the main command logic
func run(cmd *cobra.Command, mode string, opts *options) error {
	cfg, err := config.Load(opts.configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	if opts.verbose {
		level = logger.LevelDebug
	}
	log, closeLog, err := logger.Open(logger.Options{Level: level, File: cfg.LogFile, Console: cmd.ErrOrStderr()})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer closeLog()

	log = log.With(logger.Fields{"run_id": uuid.NewString(), "mode": mode})
	prev := logger.Default()
	logger.SetDefault(log)
	defer logger.SetDefault(prev)

	log.Info("Parser started", nil)
	log.Info("Command line arguments", logger.Fields{
		"mode":        mode,
		"output":      opts.output,
		"clear_cache": opts.clearCache,
		"config":      opts.configFile,
	})

	metrics := logger.NewMetrics()
	sessionOpts := fetch.Options{
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            log,
		Metrics:           metrics,
	}
	if cfg.CacheEnabled() {
		cache, err := fetch.OpenCache(cfg.CachePath, cfg.CacheTTL)
		if err != nil {
			log.Error("Cache unavailable", logger.Fields{"path": cfg.CachePath}, err)
			return err
		}
		defer cache.Close()
		if removed, err := cache.CleanExpired(); err == nil && removed > 0 {
			log.Debug("Expired cache entries removed", logger.Fields{"count": removed})
		}
		sessionOpts.Cache = cache
	}
	session := fetch.New(sessionOpts)

	if opts.clearCache {
		if err := session.ClearCache(); err != nil {
			return err
		}
		log.Info("Cache cleared", nil)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, session: session, log: log, metrics: metrics, stdout: cmd.OutOrStdout()}
	result, err := modes[mode](ctx, a)
	if err != nil {
		log.Error("Parser failed", nil, err)
		return err
	}

	if result != nil {
		if err := a.write(mode, output.ParseFormat(opts.output), result); err != nil {
			log.Error("Writing results failed", nil, err)
			return err
		}
	}

	log.Debug("Run metrics", logger.Fields{"metrics": metrics.GetSnapshot()})
	log.Info("Parser finished", nil)
	return nil
}

func (a *app) write(mode string, format output.Format, result *table.Table) error {
	opts := output.Options{
		Stdout:     a.stdout,
		Mode:       mode,
		TimeFormat: a.cfg.DatetimeFormat,
		Logger:     a.log,
	}
	if format == output.FormatFile || format == output.FormatXLSX {
		results, err := storage.New(a.cfg.ResultsDir)
		if err != nil {
			return err
		}
		opts.Results = results
	}

	_, err := output.Write(format, result, opts)
	return err
}

func runWhatsNew(ctx context.Context, a *app) (*table.Table, error) {
	return docs.New(a.session, a.cfg.MainDocURL, a.log).WhatsNew(ctx)
}

func runLatestVersions(ctx context.Context, a *app) (*table.Table, error) {
	return docs.New(a.session, a.cfg.MainDocURL, a.log).LatestVersions(ctx)
}

func runDownload(ctx context.Context, a *app) (*table.Table, error) {
	dest, err := storage.New(a.cfg.DownloadsDir)
	if err != nil {
		return nil, err
	}
	if _, err := docs.New(a.session, a.cfg.MainDocURL, a.log).Download(ctx, dest); err != nil {
		return nil, err
	}
	return nil, nil
}

func runPEP(ctx context.Context, a *app) (*table.Table, error) {
	taxonomy := pep.DefaultTaxonomy()
	if a.cfg.TaxonomyFile != "" {
		t, err := pep.LoadTaxonomy(a.cfg.TaxonomyFile)
		if err != nil {
			return nil, err
		}
		taxonomy = t
	}
	a.log.Debug("Status taxonomy", logger.Fields{
		"codes": taxonomy.Codes(),
		"names": taxonomy.ValidNames(),
		"file":  a.cfg.TaxonomyFile,
	})

	index, err := a.session.Document(ctx, a.cfg.PepsURL)
	if err != nil {
		return nil, fmt.Errorf("fetching PEP index: %w", err)
	}

	engine := pep.NewEngine(taxonomy, &pep.DetailResolver{Pages: a.session}, a.log, a.metrics)
	report, err := engine.Run(ctx, index)
	if err != nil {
		return nil, err
	}
	return report.Table(), nil
}

// Execute runs the CLI and exits non-zero on setup or fatal failures.
func Execute() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
