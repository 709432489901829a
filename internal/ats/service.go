// Package ats maintains the semantic candidate index on top of the backing store.
//
// The store is authoritative. The flat vector index and its metadata are
// derived from the active records and can be rebuilt at any time; deletions
// always trigger a full rebuild instead of removing single vectors.
package ats

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/ai"
	"github.com/spigell/hr-assistant/internal/cv"
	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/logger"
	"github.com/spigell/hr-assistant/internal/store"
	"github.com/spigell/hr-assistant/internal/vectorindex"
)

const DefaultTopK = 5

// Config configures the candidate index. An empty IndexDir keeps the index in memory only.
type Config struct {
	IndexDir string
}

// Service is safe for concurrent use. Add, delete and rebuild are exclusive;
// searches run concurrently with each other.
type Service struct {
	mu       sync.RWMutex
	store    store.CandidateStore
	embedder ai.Embedder
	index    *vectorindex.Flat
	entries  []hr.CandidateIdentity
	dir      string
	logger   *zap.Logger
}

// Result is a search hit. Distance is the squared L2 distance and is only
// meaningful when Semantic is set.
type Result struct {
	Candidate hr.Candidate `json:"candidate"`
	Distance  float32      `json:"distance"`
	Semantic  bool         `json:"semantic"`
}

// NewCandidate is the input of AddCandidate.
type NewCandidate struct {
	Identity   hr.CandidateIdentity
	ResumeText string
	Fields     cv.Fields
	SourceFile string
}

func NewService(st store.CandidateStore, embedder ai.Embedder, cfg Config, log *zap.Logger) *Service {
	return &Service{
		store:    st,
		embedder: embedder,
		index:    vectorindex.NewFlat(embedder.Dimension()),
		dir:      cfg.IndexDir,
		logger:   logger.OrNop(log).Named("ats"),
	}
}

// Len returns the number of indexed vectors.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Len()
}

// Load restores the index from disk. A missing, inconsistent or incompatible
// index is rebuilt from the store, as is one whose entries differ from the
// active records.
func (s *Service) Load(ctx context.Context) error {
	if s.dir == "" {
		return s.Rebuild(ctx)
	}

	index, meta, err := vectorindex.LoadPair(s.dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("no candidate index on disk, building from store", zap.String("dir", s.dir))
		return s.Rebuild(ctx)
	case err != nil:
		s.logger.Warn("candidate index unusable, rebuilding", zap.Error(err))
		return s.Rebuild(ctx)
	case index.Len() > 0 && index.Dim() != s.embedder.Dimension():
		s.logger.Warn("candidate index dimension changed, rebuilding",
			zap.Int("index_dim", index.Dim()),
			zap.Int("embedder_dim", s.embedder.Dimension()),
		)
		return s.Rebuild(ctx)
	}

	if index.Len() == 0 {
		index = vectorindex.NewFlat(s.embedder.Dimension())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.store.ActiveCandidates(ctx)
	if err != nil {
		return err
	}
	if !sameIdentities(meta.Entries, active) {
		s.logger.Warn("candidate index out of sync with store, rebuilding",
			zap.Int("indexed", len(meta.Entries)),
			zap.Int("active", len(active)),
		)
		return s.rebuildLocked(ctx)
	}

	s.index = index
	s.entries = meta.Entries

	s.logger.Info("candidate index loaded", zap.Int("vectors", index.Len()))
	return nil
}

// AddCandidate stores a new resume and indexes it. It fails with
// *hr.DuplicateError when an active record already holds the identity.
func (s *Service) AddCandidate(ctx context.Context, in NewCandidate) (hr.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, rejected, err := s.addLocked(ctx, []NewCandidate{in})
	if err != nil {
		return hr.Candidate{}, err
	}
	if rejected[0] != nil {
		return hr.Candidate{}, rejected[0]
	}
	return added[0], nil
}

// AddCandidates adds a batch with one embedding call and one index write.
// rejected is aligned with in and holds a *hr.DuplicateError for every
// identity that is already active or repeated earlier in the batch. Any other
// error rolls back the whole batch.
func (s *Service) AddCandidates(ctx context.Context, in []NewCandidate) (added []hr.Candidate, rejected []error, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(ctx, in)
}

func (s *Service) addLocked(ctx context.Context, in []NewCandidate) ([]hr.Candidate, []error, error) {
	added := make([]hr.Candidate, len(in))
	rejected := make([]error, len(in))

	var (
		pending []int
		texts   []string
	)
	seen := make(map[string]struct{}, len(in))
	for i, c := range in {
		if _, ok := seen[c.Identity.Key()]; ok {
			rejected[i] = &hr.DuplicateError{Identity: c.Identity}
			continue
		}
		if _, err := s.store.CandidateByIdentity(ctx, c.Identity); err == nil {
			rejected[i] = &hr.DuplicateError{Identity: c.Identity}
			continue
		} else if !errors.Is(err, hr.ErrNotFound) {
			return nil, nil, err
		}
		seen[c.Identity.Key()] = struct{}{}
		pending = append(pending, i)
		texts = append(texts, c.ResumeText)
	}

	if len(pending) == 0 {
		return added, rejected, nil
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("embed resume: %w", hr.Unavailable(err))
	}
	if len(vectors) != len(pending) {
		return nil, nil, fmt.Errorf("embedder returned %d vectors for %d resumes", len(vectors), len(pending))
	}

	n := s.index.Len()
	var stored []hr.Candidate
	rollback := func() {
		s.index.Truncate(n)
		s.entries = s.entries[:n]
		for _, c := range stored {
			s.compensate(ctx, c)
		}
	}

	for j, i := range pending {
		c := in[i]
		record, err := s.store.UpsertCandidate(ctx, hr.Candidate{
			Identity:        c.Identity,
			ResumeText:      c.ResumeText,
			Skills:          c.Fields.Skills,
			ExperienceYears: c.Fields.ExperienceYears,
			Education:       c.Fields.Education,
			Email:           c.Fields.Email,
			Phone:           c.Fields.Phone,
			Summary:         c.Fields.Summary,
			SourceFile:      c.SourceFile,
			Active:          true,
		})
		if err != nil {
			rollback()
			return nil, nil, err
		}
		stored = append(stored, record)

		if _, err := s.index.Add(vectors[j]); err != nil {
			rollback()
			return nil, nil, err
		}
		s.entries = append(s.entries, c.Identity)
		added[i] = record
	}

	if err := s.persist(); err != nil {
		rollback()
		return nil, nil, err
	}

	for _, c := range stored {
		s.logger.Info("candidate added", zap.String("candidate", c.Identity.String()))
	}
	s.logger.Debug("candidate index updated", zap.Int("added", len(stored)), zap.Int("vectors", s.index.Len()))
	return added, rejected, nil
}

// compensate deactivates a record whose vector could not be indexed.
func (s *Service) compensate(ctx context.Context, c hr.Candidate) {
	c.Active = false
	if _, err := s.store.UpsertCandidate(ctx, c); err != nil {
		s.logger.Error("failed to roll back candidate", zap.String("candidate", c.Identity.String()), zap.Error(err))
	}
}

// DeleteCandidate deactivates the identity and rebuilds the index.
func (s *Service) DeleteCandidate(ctx context.Context, id hr.CandidateIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.MarkCandidateInactive(ctx, id); err != nil {
		return err
	}
	s.logger.Info("candidate deactivated", zap.String("candidate", id.String()))

	return s.rebuildLocked(ctx)
}

// Rebuild reconstructs the index from every active record in the store.
func (s *Service) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked(ctx)
}

func (s *Service) rebuildLocked(ctx context.Context) error {
	candidates, err := s.store.ActiveCandidates(ctx)
	if err != nil {
		return err
	}

	index := vectorindex.NewFlat(s.embedder.Dimension())
	entries := make([]hr.CandidateIdentity, 0, len(candidates))

	if len(candidates) > 0 {
		texts := make([]string, len(candidates))
		for i, c := range candidates {
			texts[i] = c.ResumeText
		}

		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed resumes: %w", hr.Unavailable(err))
		}
		if len(vectors) != len(candidates) {
			return fmt.Errorf("embedder returned %d vectors for %d resumes", len(vectors), len(candidates))
		}

		for i, vec := range vectors {
			if _, err := index.Add(vec); err != nil {
				return err
			}
			entries = append(entries, candidates[i].Identity)
		}
	}

	previous, previousEntries := s.index, s.entries
	s.index, s.entries = index, entries
	if err := s.persist(); err != nil {
		s.index, s.entries = previous, previousEntries
		return err
	}

	s.logger.Info("candidate index rebuilt", zap.Int("vectors", index.Len()))
	return nil
}

func (s *Service) persist() error {
	if s.dir == "" {
		return nil
	}
	if err := vectorindex.SavePair(s.dir, s.index, vectorindex.Metadata{Entries: s.entries}); err != nil {
		return fmt.Errorf("persist candidate index: %w", err)
	}
	return nil
}

// ListCandidates returns active candidates, one per identity.
func (s *Service) ListCandidates(ctx context.Context) ([]hr.Candidate, error) {
	candidates, err := s.store.ActiveCandidates(ctx)
	if err != nil {
		return nil, err
	}
	return uniqueByIdentity(candidates), nil
}

// RemoveDuplicates keeps the oldest active record of every identity and
// deactivates the rest. The index is rebuilt when anything was removed.
func (s *Service) RemoveDuplicates(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := s.store.ActiveCandidates(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(candidates))
	removed := 0
	for _, c := range candidates {
		key := c.Identity.Key()
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			continue
		}
		c.Active = false
		if _, err := s.store.UpsertCandidate(ctx, c); err != nil {
			return removed, err
		}
		removed++
		s.logger.Info("duplicate candidate removed", zap.String("candidate", c.Identity.String()), zap.String("id", c.ID))
	}

	if removed == 0 {
		return 0, nil
	}
	return removed, s.rebuildLocked(ctx)
}

// sameIdentities reports whether entries and the active records hold the
// same identities the same number of times.
func sameIdentities(entries []hr.CandidateIdentity, active []hr.Candidate) bool {
	if len(entries) != len(active) {
		return false
	}
	counts := make(map[string]int, len(entries))
	for _, id := range entries {
		counts[id.Key()]++
	}
	for _, c := range active {
		key := c.Identity.Key()
		if counts[key] == 0 {
			return false
		}
		counts[key]--
	}
	return true
}

func uniqueByIdentity(candidates []hr.Candidate) []hr.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]hr.Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := c.Identity.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
