package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/symdex/internal/indexer/parsers"
	"github.com/mvp-joe/symdex/internal/storage"
)

// Processor handles the read → extract → store pipeline.
type Processor interface {
	// ProcessFiles extracts the given absolute paths and writes the results
	// to storage. Paths that no longer exist are removed from storage.
	// Returns statistics about what was processed.
	ProcessFiles(ctx context.Context, files []string) (*ProcessingStats, error)
}

// ProcessorConfig tunes a Processor.
type ProcessorConfig struct {
	RootDir string
	Workers int  // parallel extractions; NumCPU when zero
	Force   bool // re-extract files whose stored hash is unchanged
}

// processor implements Processor interface.
type processor struct {
	cfg       ProcessorConfig
	extractor *parsers.Extractor
	cache     *ResultCache
	storage   Storage
	progress  ProgressReporter
	logger    *zap.Logger

	progressMu sync.Mutex
}

// fileResult is one worker's output for one file.
type fileResult struct {
	relPath string
	outcome fileOutcome
	record  *storage.FileRecord
}

// NewProcessor creates a new Processor instance. cache may be nil.
func NewProcessor(
	cfg ProcessorConfig,
	extractor *parsers.Extractor,
	cache *ResultCache,
	store Storage,
	progress ProgressReporter,
	logger *zap.Logger,
) Processor {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &processor{
		cfg:       cfg,
		extractor: extractor,
		cache:     cache,
		storage:   store,
		progress:  progress,
		logger:    logger,
	}
}

// ProcessFiles processes a list of files through the complete pipeline.
// Cancelling ctx stops scheduling new files; results of files already in
// flight are discarded and nothing is written.
func (p *processor) ProcessFiles(ctx context.Context, files []string) (*ProcessingStats, error) {
	startTime := time.Now()
	stats := newProcessingStats()

	if len(files) == 0 {
		return stats, nil
	}

	known := map[string]string{}
	if !p.cfg.Force {
		hashes, err := p.storage.FileHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read stored file hashes: %w", err)
		}
		known = hashes
	}

	p.progress.OnFileProcessingStart(len(files))

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.processFile(file, known)
			p.reportProcessed(results[i].relPath)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Storage writes happen in input order on one goroutine.
	for i := range results {
		r := &results[i]
		switch r.outcome {
		case outcomeExtracted, outcomeCached:
			if err := p.storage.WriteFile(ctx, r.record); err != nil {
				return nil, fmt.Errorf("failed to store %s: %w", r.relPath, err)
			}
			stats.FilesProcessed++
			if r.outcome == outcomeCached {
				stats.FilesCached++
			}
			stats.TotalItems += len(r.record.Items)
			stats.ItemsByLang[r.record.Language] += len(r.record.Items)
			for _, it := range r.record.Items {
				stats.ItemsByKind[it.Kind]++
			}
		case outcomeRemoved:
			if err := p.storage.RemoveFile(ctx, r.relPath); err != nil {
				return nil, fmt.Errorf("failed to remove %s: %w", r.relPath, err)
			}
			stats.FilesRemoved++
		case outcomeUnchanged:
			stats.FilesUnchanged++
		case outcomeSkipped:
			stats.FilesSkipped++
		case outcomeParseError:
			stats.ParseErrors++
		case outcomeReadError:
			stats.ReadErrors++
		}
	}

	stats.ProcessingTime = time.Since(startTime)
	p.logger.Debug("processed files",
		zap.Int("files", len(files)),
		zap.Int("items", stats.TotalItems),
		zap.Int("parse_errors", stats.ParseErrors),
		zap.Duration("elapsed", stats.ProcessingTime))
	return stats, nil
}

// processFile reads and extracts one file. It never fails; problems are
// logged and reported through the outcome.
func (p *processor) processFile(path string, known map[string]string) fileResult {
	relPath := relativePath(p.cfg.RootDir, path)
	res := fileResult{relPath: relPath}

	lang, ok := DetectLanguage(path)
	if !ok {
		res.outcome = outcomeSkipped
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.outcome = outcomeRemoved
			return res
		}
		p.logger.Warn("failed to read file", zap.String("file", relPath), zap.Error(err))
		res.outcome = outcomeReadError
		return res
	}

	if !isText(data) {
		p.logger.Debug("skipping binary file", zap.String("file", relPath))
		res.outcome = outcomeSkipped
		return res
	}

	hash := Checksum(data)
	if known[relPath] == hash {
		res.outcome = outcomeUnchanged
		return res
	}

	items, cached := p.cache.Get(lang, relPath, hash)
	if cached {
		res.outcome = outcomeCached
	} else {
		items, err = p.extractor.ExtractFile(relPath, data, lang)
		if err != nil {
			p.logger.Warn("failed to extract file",
				zap.String("file", relPath),
				zap.String("language", string(lang)),
				zap.Error(err))
			res.outcome = outcomeParseError
			return res
		}
		p.cache.Set(lang, relPath, hash, items)
		res.outcome = outcomeExtracted
	}

	res.record = &storage.FileRecord{
		Path:        relPath,
		Language:    lang,
		Hash:        hash,
		Items:       items,
		ExtractedAt: time.Now(),
	}
	return res
}

func (p *processor) reportProcessed(relPath string) {
	p.progressMu.Lock()
	defer p.progressMu.Unlock()
	p.progress.OnFileProcessed(relPath)
}
