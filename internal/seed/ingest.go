package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/hr-assistant/internal/ats"
	"github.com/spigell/hr-assistant/internal/cv"
	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/logger"
)

const defaultWorkers = 4

// CandidateAdder is the part of the candidate index ingestion writes to.
type CandidateAdder interface {
	AddCandidate(ctx context.Context, in ats.NewCandidate) (hr.Candidate, error)
	AddCandidates(ctx context.Context, in []ats.NewCandidate) ([]hr.Candidate, []error, error)
}

type Ingester struct {
	extractor *cv.Extractor
	adder     CandidateAdder
	workers   int
	logger    *zap.Logger
}

func NewIngester(extractor *cv.Extractor, adder CandidateAdder, workers int, log *zap.Logger) *Ingester {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Ingester{
		extractor: extractor,
		adder:     adder,
		workers:   workers,
		logger:    logger.OrNop(log).Named("ingest"),
	}
}

// IngestFile extracts path and adds it under identity. A zero identity is
// derived from the file name.
func (i *Ingester) IngestFile(ctx context.Context, path string, identity hr.CandidateIdentity) (hr.Candidate, error) {
	text, err := i.extractor.ExtractText(path)
	if err != nil {
		return hr.Candidate{}, err
	}
	if identity == (hr.CandidateIdentity{}) {
		identity = cv.IdentityFromFilename(path)
	}
	return i.adder.AddCandidate(ctx, i.newCandidate(path, identity, text))
}

func (i *Ingester) newCandidate(path string, identity hr.CandidateIdentity, text string) ats.NewCandidate {
	return ats.NewCandidate{
		Identity:   identity,
		ResumeText: text,
		Fields:     cv.ParseFields(text),
		SourceFile: filepath.Base(path),
	}
}

// Summary counts the outcome of a directory ingestion.
type Summary struct {
	Added      int
	Duplicates int
	Failed     int
}

type extracted struct {
	path string
	text string
	err  error
}

// IngestDir extracts every supported file of dir concurrently, then adds the
// candidates as one batch in file name order. Duplicates and unreadable files
// are counted and skipped; any other error adds nothing.
func (i *Ingester) IngestDir(ctx context.Context, dir string) (Summary, error) {
	var sum Summary

	entries, err := os.ReadDir(dir)
	if err != nil {
		return sum, fmt.Errorf("read cv directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !i.extractor.IsSupported(path) {
			i.logger.Debug("skipping unsupported file", zap.String("path", path))
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	results := make([]extracted, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)
	for n, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := i.extractor.ExtractText(path)
			results[n] = extracted{path: path, text: text, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}

	var (
		batch []ats.NewCandidate
		files []string
	)
	for _, r := range results {
		if r.err != nil {
			sum.Failed++
			i.logger.Warn("failed to extract resume", zap.String("path", r.path), zap.Error(r.err))
			continue
		}
		batch = append(batch, i.newCandidate(r.path, cv.IdentityFromFilename(r.path), r.text))
		files = append(files, r.path)
	}

	if len(batch) > 0 {
		_, rejected, err := i.adder.AddCandidates(ctx, batch)
		if err != nil {
			return sum, fmt.Errorf("add candidates from %s: %w", dir, err)
		}
		for n, err := range rejected {
			switch {
			case errors.Is(err, hr.ErrDuplicateIdentity):
				sum.Duplicates++
				i.logger.Info("skipping duplicate resume", zap.String("path", files[n]))
			case err != nil:
				sum.Failed++
				i.logger.Warn("failed to add resume", zap.String("path", files[n]), zap.Error(err))
			default:
				sum.Added++
			}
		}
	}

	i.logger.Info("cv directory ingested",
		zap.String("dir", dir),
		zap.Int("added", sum.Added),
		zap.Int("duplicates", sum.Duplicates),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}
