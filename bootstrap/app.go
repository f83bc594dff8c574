package bootstrap

import (
	"fmt"
	"io"

	"matchkit/config"
	"matchkit/dsl"
	"matchkit/expect"
	"matchkit/matchers"
	"matchkit/pretty"

	"go.uber.org/zap"
)

// App holds the wired components of a matchkit process.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	Formatter *pretty.Formatter
	Registry  *dsl.Registry
	Engine    *expect.Engine
}

// Options tune NewApp.
type Options struct {
	// ConfigPath is an explicit config file; empty searches the defaults
	ConfigPath string
	// LogWriter receives log output; nil means stderr
	LogWriter io.Writer
	// LogLevel overrides the configured level when set
	LogLevel string
}

// NewApp loads configuration, initializes logging and wires the registry,
// the stock matchers and the expectation engine.
func NewApp(opts Options) (*App, error) {
	// a bootstrap logger reports config loading before the configured one exists
	_, bootSugar, err := InitLogger("warn", false, opts.LogWriter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := InitConfig(opts.ConfigPath, bootSugar)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	return NewAppWithConfig(cfg, opts.LogWriter)
}

// NewAppWithConfig wires an App from an already loaded configuration.
func NewAppWithConfig(cfg *config.Config, logWriter io.Writer) (*App, error) {
	logger, sugar, err := InitLogger(cfg.Log.Level, cfg.Output.Color, logWriter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	formatter := pretty.New(cfg.Formatting.MaxLength)
	registry := dsl.NewRegistry(
		dsl.WithLogger(sugar),
		dsl.WithPhraser(formatter),
		dsl.WithChainClauses(cfg.Descriptions.IncludeChainClauses),
	)

	if err := matchers.RegisterAll(registry, matchers.Options{
		PatternTimeout:   cfg.Patterns.Timeout,
		PatternCacheSize: cfg.Patterns.CacheSize,
		Formatter:        formatter,
		Logger:           sugar,
		Metrics:          cfg.Metrics.Enabled,
	}); err != nil {
		return nil, fmt.Errorf("failed to register stock matchers: %w", err)
	}

	engine := expect.NewEngine(
		expect.WithLogger(sugar),
		expect.WithMetrics(cfg.Metrics.Enabled),
	)

	sugar.Debugw("Application initialized",
		"matchers", len(registry.Names()),
		"include_chain_clauses", cfg.Descriptions.IncludeChainClauses)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Sugar:     sugar,
		Formatter: formatter,
		Registry:  registry,
		Engine:    engine,
	}, nil
}

// Shutdown flushes buffered log entries.
func (a *App) Shutdown() {
	// Sync fails on console writers such as /dev/stderr; nothing to recover
	_ = a.Logger.Sync()
}
