package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/yigit/internhub/internal/app/models"
	"github.com/yigit/internhub/internal/app/store"
)

// DedupResult describes one collapsed student code.
type DedupResult struct {
	Code       string  `json:"code"`
	KeptID     int64   `json:"keptId"`
	RemovedIDs []int64 `json:"removedIds"`

	kept *models.Student
}

// Deduplicator collapses student rows sharing a code into one.
type Deduplicator struct {
	tx  store.TxManager
	cat *store.Catalog
	log zerolog.Logger
}

// NewDeduplicator creates a Deduplicator. cat is used outside transactions to
// find duplicate codes; each collapse runs in its own parent transaction.
func NewDeduplicator(tx store.TxManager, cat *store.Catalog, log zerolog.Logger) *Deduplicator {
	return &Deduplicator{tx: tx, cat: cat, log: log.With().Str("component", "dedup").Logger()}
}

// DedupCode collapses the rows for code. It is a no-op when at most one row exists.
func (d *Deduplicator) DedupCode(ctx context.Context, code string) (*DedupResult, error) {
	var result *DedupResult
	err := d.tx.InParentTx(ctx, []string{studentLockKey(code)}, func(ctx context.Context, cat *store.Catalog) error {
		rows, err := cat.Students.FindByCode(ctx, code)
		if err != nil {
			return err
		}
		if len(rows) < 2 {
			return nil
		}
		result, err = collapseStudents(ctx, cat, rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("dedup %s: %w", code, err)
	}
	if result != nil {
		d.log.Info().Str("code", code).Int64("kept", result.KeptID).Ints64("removed", result.RemovedIDs).Msg("Collapsed duplicate student rows")
	}
	return result, nil
}

// DedupAll collapses every duplicated code. Running it twice removes nothing
// the second time.
func (d *Deduplicator) DedupAll(ctx context.Context) ([]DedupResult, error) {
	codes, err := d.cat.Students.DuplicateCodes(ctx)
	if err != nil {
		return nil, err
	}
	var results []DedupResult
	for _, code := range codes {
		r, err := d.DedupCode(ctx, code)
		if err != nil {
			return results, err
		}
		if r != nil {
			results = append(results, *r)
		}
	}
	return results, nil
}

// rankStudents orders rows best-first: more non-empty fields, then most recently
// updated, then highest id.
func rankStudents(rows []*models.Student) []*models.Student {
	ranked := append([]*models.Student(nil), rows...)
	sort.SliceStable(ranked, func(i, j int) bool {
		fi, fj := filledFields(ranked[i]), filledFields(ranked[j])
		if fi != fj {
			return fi > fj
		}
		if !ranked[i].UpdatedAt.Equal(ranked[j].UpdatedAt) {
			return ranked[i].UpdatedAt.After(ranked[j].UpdatedAt)
		}
		return ranked[i].ID > ranked[j].ID
	})
	return ranked
}

func filledFields(s *models.Student) int {
	return s.Columns().Filled()
}

// collapseStudents keeps the best row, fills its blank columns from the others
// in rank order and deletes the others. It must run inside the code's transaction.
func collapseStudents(ctx context.Context, cat *store.Catalog, rows []*models.Student) (*DedupResult, error) {
	ranked := rankStudents(rows)
	kept := ranked[0]

	current := kept.Columns()
	fill := make(models.Columns)
	removed := make([]int64, 0, len(ranked)-1)
	for _, other := range ranked[1:] {
		for col, v := range other.Columns() {
			if v != "" && current[col] == "" && fill[col] == "" {
				fill[col] = v
			}
		}
		removed = append(removed, other.ID)
	}

	if len(fill) > 0 {
		if err := cat.Students.UpdateColumns(ctx, kept.ID, fill); err != nil {
			return nil, err
		}
		if err := kept.Apply(fill); err != nil {
			return nil, err
		}
	}
	if _, err := cat.Students.DeleteByIDs(ctx, removed); err != nil {
		return nil, err
	}

	return &DedupResult{Code: kept.Code, KeptID: kept.ID, RemovedIDs: removed, kept: kept}, nil
}

func studentLockKey(code string) string { return "student:" + code }

func sortedKeys(cols models.Columns) []string {
	keys := make([]string, 0, len(cols))
	for k := range cols {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
