package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yigit/internhub/internal/app/store"
)

// CountService recomputes the cached counters and flags from the student rows.
type CountService struct {
	cat   *store.Catalog
	dedup *Deduplicator
	log   zerolog.Logger
}

// NewCountService creates a CountService.
func NewCountService(cat *store.Catalog, dedup *Deduplicator, log zerolog.Logger) *CountService {
	return &CountService{cat: cat, dedup: dedup, log: log.With().Str("component", "counts").Logger()}
}

// RecomputeTeacherCounts sets every guided count from the students naming the teacher.
func (s *CountService) RecomputeTeacherCounts(ctx context.Context) (int64, error) {
	n, err := s.cat.Teachers.RecomputeGuidedCounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("recompute guided counts: %w", err)
	}
	s.log.Debug().Int64("changed", n).Msg("Recomputed teacher guided counts")
	return n, nil
}

// RecomputeCompanyCounts sets every assigned count from the students naming the company.
func (s *CountService) RecomputeCompanyCounts(ctx context.Context) (int64, error) {
	n, err := s.cat.Companies.RecomputeAssignedCounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("recompute assigned counts: %w", err)
	}
	s.log.Debug().Int64("changed", n).Msg("Recomputed company assigned counts")
	return n, nil
}

// RefreshReadiness collapses duplicate student codes and then recomputes every
// readiness flag, returning the number of flags that changed.
func (s *CountService) RefreshReadiness(ctx context.Context) (int64, error) {
	if s.dedup != nil {
		if _, err := s.dedup.DedupAll(ctx); err != nil {
			return 0, err
		}
	}
	n, err := s.cat.Students.RefreshReadiness(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh readiness: %w", err)
	}
	s.log.Info().Int64("changed", n).Msg("Refreshed student readiness")
	return n, nil
}
