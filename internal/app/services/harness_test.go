package services

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/yigit/internhub/internal/app/store/memstore"
	"github.com/yigit/internhub/internal/pkg/sheet"
)

// inOrder leaves slots in build order so pairings are predictable.
type inOrder struct{}

func (inOrder) Shuffle(int, func(i, j int)) {}

type harness struct {
	mem    *memstore.Store
	merger *MergeUpdater
	dedup  *Deduplicator
	counts *CountService
	assign *AssignmentService
	ingest IngestService
}

func newHarness(t *testing.T, quota *QuotaPolicy) *harness {
	t.Helper()
	log := zerolog.Nop()
	mem := memstore.New()
	cat := mem.Catalog()

	h := &harness{mem: mem}
	h.merger = NewMergeUpdater(log)
	h.dedup = NewDeduplicator(mem, cat, log)
	h.counts = NewCountService(cat, h.dedup, log)
	h.assign = NewAssignmentService(cat, h.dedup, h.counts, quota, inOrder{}, DefaultCompanyMatchThreshold, log)
	reconciler := NewGuidanceReconciler(mem, h.merger, log)
	h.ingest = NewIngestService(cat, mem, h.merger, reconciler, h.counts, h.assign, IngestConfig{
		HeaderScanRows:   sheet.DefaultHeaderScanRows,
		DefaultMergeMode: ModeFillEmpty,
		Resolver:         DefaultResolverConfig(),
	}, log)
	return h
}

func workbook(rows ...[]string) *sheet.Workbook {
	return &sheet.Workbook{Sheets: []*sheet.Sheet{sheet.FromStrings("Sheet1", rows)}}
}
