// Package runner evaluates dice program files and directories of them.
package runner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/probify/internal"
)

// Engine evaluates single programs.
type Engine interface {
	Run(filePath string) (internal.Result, error)
	RunSource(name string, source []byte) (internal.Result, error)
}

// Outcome is the evaluation of one file. Err is set when it failed, in
// which case Result carries no distribution.
type Outcome struct {
	Filename string
	Result   internal.Result
	Err      error
}

// Failed reports whether the evaluation failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// New creates an engine from the given configuration.
func New(config Config, logger *zap.Logger) *internal.Engine {
	return internal.NewEngine(config.Engine(), logger)
}

func ProcessSources(
	ctx context.Context,
	logger *zap.Logger,
	engine Engine,
	sources [][]byte,
	processor func(Engine, string, []byte) (internal.Result, error),
) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(sources))
	for i, source := range sources {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		name := fmt.Sprintf("<source %d>", i)
		result, err := processor(engine, name, source)
		if err != nil && logger != nil {
			logger.Error("Error processing source", zap.Int("source", i), zap.Error(err))
		}
		outcomes = append(outcomes, Outcome{Filename: name, Result: result, Err: err})
	}
	return outcomes, nil
}

func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine Engine,
	paths []string,
	processor func(Engine, string) (internal.Result, error),
) ([]Outcome, error) {
	var outcomes []Outcome
	for _, path := range paths {
		pathOutcomes, err := ProcessPath(ctx, logger, engine, path, processor)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return append(outcomes, pathOutcomes...), err
		}
		outcomes = append(outcomes, pathOutcomes...)
	}
	return outcomes, nil
}

// ProcessPath evaluates a single program file, or every program file under
// a directory with a bounded pool of workers. Outcomes follow the lexical
// order of the files. Per-file failures are reported in the outcomes; the
// returned error is set only when the path cannot be read or ctx ends.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine Engine,
	path string,
	processor func(Engine, string) (internal.Result, error),
) ([]Outcome, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		result, err := processor(engine, path)
		if err != nil && logger != nil {
			logger.Error("Error processing file", zap.String("file", path), zap.Error(err))
		}
		return []Outcome{{Filename: path, Result: result, Err: err}}, nil
	}

	files, err := programFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	outcomes := make([]Outcome, len(files))
	done := make([]bool, len(files))

	// limit the number of workers
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

	var ctxErr error
dispatch:
	for i, filePath := range files {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, fp string) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := processor(engine, fp)
			if err != nil && logger != nil {
				logger.Error("Error processing file", zap.String("file", fp), zap.Error(err))
			}
			outcomes[i] = Outcome{Filename: fp, Result: result, Err: err}
			done[i] = true
			_ = bar.Add(1)
		}(i, filePath)
	}
	wg.Wait()
	_ = bar.Finish()

	if ctxErr != nil {
		// keep only the files that were evaluated
		finished := outcomes[:0]
		for i, o := range outcomes {
			if done[i] {
				finished = append(finished, o)
			}
		}
		return finished, ctxErr
	}
	return outcomes, nil
}

func programFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && hasDesiredExtension(filePath) {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", root, err)
	}
	return files, nil
}

func ProcessFile(engine Engine, filePath string) (internal.Result, error) {
	return engine.Run(filePath)
}

func ProcessSource(engine Engine, name string, source []byte) (internal.Result, error) {
	return engine.RunSource(name, source)
}

func hasDesiredExtension(path string) bool {
	return filepath.Ext(path) == internal.ProgramExt
}
