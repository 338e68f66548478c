package services

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/yigit/internhub/internal/pkg/textnorm"
)

// DefaultQuota applies to every role no rule names.
const DefaultQuota = 10

// QuotaRule gives roles whose text contains Keyword a fixed quota.
type QuotaRule struct {
	Keyword string
	Quota   int
}

// DefaultQuotaRules are the senior roles with reduced guidance quotas.
func DefaultQuotaRules() []QuotaRule {
	return []QuotaRule{
		{Keyword: "phó trưởng khoa", Quota: 5},
		{Keyword: "trưởng khoa", Quota: 3},
	}
}

// QuotaPolicy maps a teacher role to a guidance capacity.
type QuotaPolicy struct {
	rules []QuotaRule
	def   int
}

// NewQuotaPolicy creates a policy. Rules are matched on folded text, longest
// keyword first, so "phó trưởng khoa" wins over "trưởng khoa".
func NewQuotaPolicy(rules []QuotaRule, defaultQuota int) *QuotaPolicy {
	folded := make([]QuotaRule, 0, len(rules))
	for _, r := range rules {
		k := textnorm.Fold(r.Keyword)
		if k == "" {
			continue
		}
		folded = append(folded, QuotaRule{Keyword: k, Quota: r.Quota})
	}
	sort.SliceStable(folded, func(i, j int) bool {
		return len(folded[i].Keyword) > len(folded[j].Keyword)
	})
	return &QuotaPolicy{rules: folded, def: defaultQuota}
}

// DefaultQuotaPolicy returns the built-in policy.
func DefaultQuotaPolicy() *QuotaPolicy {
	return NewQuotaPolicy(DefaultQuotaRules(), DefaultQuota)
}

// Capacity returns the quota for role.
func (p *QuotaPolicy) Capacity(role string) int {
	r := textnorm.Fold(role)
	for _, rule := range p.rules {
		if strings.Contains(r, rule.Keyword) {
			return rule.Quota
		}
	}
	return p.def
}

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// NewRandomShuffler returns a time-seeded shuffler for production runs.
func NewRandomShuffler() Shuffler {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
