package ats

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/ai"
	"github.com/spigell/hr-assistant/internal/hr"
)

// Search returns up to topK unique candidates closest to query. Without an
// index it falls back to substring matching over the store.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results, err := s.searchLocked(ctx, query, topK*2)
	if err != nil {
		return nil, err
	}
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// searchLocked returns up to k unique results, closest first.
func (s *Service) searchLocked(ctx context.Context, query string, k int) ([]Result, error) {
	candidates, err := s.store.ActiveCandidates(ctx)
	if err != nil {
		return nil, err
	}

	if s.index.Len() == 0 {
		s.logger.Debug("candidate index empty, using text search", zap.String("query", query))
		return textSearch(candidates, query, k), nil
	}

	vec, err := ai.EmbedOne(ctx, s.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", hr.Unavailable(err))
	}

	hits, err := s.index.Search(vec, min(k, s.index.Len()))
	if err != nil {
		return nil, err
	}

	records := make(map[string]hr.Candidate, len(candidates))
	for _, c := range uniqueByIdentity(candidates) {
		records[c.Identity.Key()] = c
	}

	seen := make(map[string]struct{}, len(hits))
	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		if hit.Position >= len(s.entries) {
			continue
		}
		key := s.entries[hit.Position].Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		record, ok := records[key]
		if !ok {
			continue
		}
		results = append(results, Result{Candidate: record, Distance: hit.Distance, Semantic: true})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	return results, nil
}

func textSearch(candidates []hr.Candidate, query string, k int) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	results := make([]Result, 0)
	for _, c := range uniqueByIdentity(candidates) {
		if len(results) >= k {
			break
		}
		if matchesText(c, q) {
			results = append(results, Result{Candidate: c})
		}
	}
	return results
}

func matchesText(c hr.Candidate, q string) bool {
	if strings.Contains(strings.ToLower(c.ResumeText), q) || strings.Contains(strings.ToLower(c.Identity.Position), q) {
		return true
	}
	for _, skill := range c.Skills {
		if strings.Contains(strings.ToLower(skill), q) {
			return true
		}
	}
	return false
}

// Filters narrow search results. Zero values are ignored.
type Filters struct {
	// Position matches as a case-insensitive substring.
	Position       string   `mapstructure:"position" json:"position,omitempty"`
	MinExperience  int      `mapstructure:"min_experience" json:"min_experience,omitempty"`
	RequiredSkills []string `mapstructure:"required_skills" json:"required_skills,omitempty"`
}

// DecodeFilters converts loosely typed request input into Filters.
func DecodeFilters(raw map[string]any) (Filters, error) {
	var f Filters
	if len(raw) == 0 {
		return f, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &f,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return f, err
	}
	if err := decoder.Decode(raw); err != nil {
		return f, fmt.Errorf("%w: filters: %v", hr.ErrValidation, err)
	}
	return f, nil
}

func (f Filters) empty() bool {
	return f.Position == "" && f.MinExperience <= 0 && len(f.RequiredSkills) == 0
}

func (f Filters) matcher() func(hr.Candidate) bool {
	position := strings.ToLower(strings.TrimSpace(f.Position))

	required := make(map[string]struct{}, len(f.RequiredSkills))
	for _, skill := range f.RequiredSkills {
		required[strings.ToLower(strings.TrimSpace(skill))] = struct{}{}
	}

	return func(c hr.Candidate) bool {
		if position != "" && !strings.Contains(strings.ToLower(c.Identity.Position), position) {
			return false
		}
		if c.ExperienceYears < f.MinExperience {
			return false
		}
		if len(required) == 0 {
			return true
		}
		for _, skill := range c.Skills {
			if _, ok := required[strings.ToLower(skill)]; ok {
				return true
			}
		}
		return false
	}
}

// SearchWithFilters ranks every indexed candidate against query, keeps those
// matching f and returns the first topK. An empty query filters the store
// without ranking.
func (s *Service) SearchWithFilters(ctx context.Context, query string, topK int, f Filters) ([]Result, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	match := f.matcher()

	if strings.TrimSpace(query) == "" {
		candidates, err := s.ListCandidates(ctx)
		if err != nil {
			return nil, err
		}
		results := make([]Result, 0, topK)
		for _, c := range candidates {
			if len(results) >= topK {
				break
			}
			if match(c) {
				results = append(results, Result{Candidate: c})
			}
		}
		return results, nil
	}

	if f.empty() {
		return s.Search(ctx, query, topK)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	k := max(s.index.Len(), topK*2)
	ranked, err := s.searchLocked(ctx, query, k)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, topK)
	for _, r := range ranked {
		if len(results) >= topK {
			break
		}
		if match(r.Candidate) {
			results = append(results, r)
		}
	}
	return results, nil
}
