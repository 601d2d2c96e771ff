package internal

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/probify/internal/dist"
	"github.com/gnoswap-labs/probify/internal/parser"
	"github.com/gnoswap-labs/probify/internal/program"
	"github.com/gnoswap-labs/probify/internal/symbolic"
)

// Config holds the engine settings.
type Config struct {
	// Output is the variable reported for every program.
	Output string
	// MaxRows bounds the joint state of a single evaluation; 0 means no bound.
	MaxRows int
	// CacheMaxAge expires cached results; 0 keeps them until the source changes.
	CacheMaxAge time.Duration
}

// Result is the evaluation of one program.
type Result struct {
	Filename     string
	Output       string
	Distribution dist.Distribution
	// Cached is set when the source was unchanged since its last evaluation.
	Cached bool
}

// Engine parses and evaluates dice programs.
type Engine struct {
	config    Config
	evaluator *symbolic.Evaluator
	logger    *zap.Logger
	cache     *Cache

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	watchFiles  map[string]bool
	watchDirs   map[string]bool
	watchDone   chan struct{}
	isWatching  bool
	reportEvent ReportFunc
}

// NewEngine creates a new evaluation engine.
func NewEngine(config Config, logger *zap.Logger) *Engine {
	if config.Output == "" {
		config.Output = symbolic.DefaultOutput
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		config: config,
		evaluator: symbolic.NewEvaluator(symbolic.Config{
			Output:  config.Output,
			MaxRows: config.MaxRows,
			Logger:  logger.Named("symbolic"),
		}),
		logger: logger,
		cache:  NewCache(config.CacheMaxAge),
	}
}

// Output returns the name of the reported variable.
func (e *Engine) Output() string {
	return e.config.Output
}

// Run evaluates the program stored in filename.
func (e *Engine) Run(filename string) (Result, error) {
	source, err := os.ReadFile(filename)
	if err != nil {
		return Result{}, fmt.Errorf("error reading file: %w", err)
	}
	return e.RunSource(filename, source)
}

// RunSource evaluates a program given as text. The name is used for
// caching and reporting only.
func (e *Engine) RunSource(name string, source []byte) (Result, error) {
	if result, ok := e.cache.Get(name, source); ok {
		e.logger.Debug("cache hit", zap.String("file", name))
		result.Cached = true
		return result, nil
	}

	prog, err := parser.Parse(string(source))
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	d, err := e.evaluator.Run(prog)
	if err != nil {
		return Result{}, err
	}
	e.logger.Debug("program evaluated",
		zap.String("file", name),
		zap.Int("outcomes", d.Len()),
		zap.Duration("elapsed", time.Since(start)))

	result := Result{Filename: name, Output: e.config.Output, Distribution: d}
	e.cache.Set(name, source, result)
	return result, nil
}

// Compare evaluates two program files and reports whether their outputs
// have the same law.
func (e *Engine) Compare(left, right string) (symbolic.ComparisonReport, error) {
	lp, err := e.parseFile(left)
	if err != nil {
		return symbolic.ComparisonReport{}, err
	}
	rp, err := e.parseFile(right)
	if err != nil {
		return symbolic.ComparisonReport{}, err
	}
	return e.evaluator.Compare(lp, rp)
}

func (e *Engine) parseFile(filename string) (program.Program, error) {
	source, err := os.ReadFile(filename)
	if err != nil {
		return program.Program{}, fmt.Errorf("error reading file: %w", err)
	}
	prog, err := parser.Parse(string(source))
	if err != nil {
		return program.Program{}, fmt.Errorf("%s: %w", filename, err)
	}
	return prog, nil
}
