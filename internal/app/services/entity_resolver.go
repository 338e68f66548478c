package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/yigit/internhub/internal/app/models"
	"github.com/yigit/internhub/internal/app/store"
	"github.com/yigit/internhub/internal/pkg/apperrors"
	"github.com/yigit/internhub/internal/pkg/textnorm"
)

// ResolveMethod names the step that matched a teacher reference.
type ResolveMethod string

const (
	MethodExact     ResolveMethod = "exact"
	MethodCode      ResolveMethod = "code"
	MethodPartial   ResolveMethod = "partial"
	MethodGenerated ResolveMethod = "generated"
)

// minPartialRunes is the shortest folded name allowed to match by containment.
const minPartialRunes = 3

var trailingDigits = regexp.MustCompile(`(\d+)[^\p{L}\p{N}]*$`)

// ResolverConfig controls surrogate teacher creation.
type ResolverConfig struct {
	CodePrefix        string
	CodeWidth         int
	PlaceholderDomain string
}

// DefaultResolverConfig returns the built-in surrogate settings.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{CodePrefix: "GV", CodeWidth: 3, PlaceholderDomain: "placeholder.internhub.local"}
}

// Resolution is a resolved teacher reference.
type Resolution struct {
	Teacher *models.Teacher
	Method  ResolveMethod
	// Created is true only on the call that synthesized the teacher
	Created bool
}

type cachedResolution struct {
	res Resolution
	err error
}

// TeacherResolver maps free-text teacher references to catalog teachers,
// creating surrogate teachers when a reference carries a numeric suffix. One
// resolver serves one import: results, including failures, are cached by the
// raw reference.
type TeacherResolver struct {
	cat *store.Catalog
	cfg ResolverConfig
	log zerolog.Logger

	teachers   []*models.Teacher
	loaded     bool
	cache      map[string]cachedResolution
	surrogates map[string]string // generated code -> folded name
}

// NewTeacherResolver creates a resolver. cat must not be bound to a transaction
// that may roll back: created teachers are shared by every group of the import.
func NewTeacherResolver(cat *store.Catalog, cfg ResolverConfig, log zerolog.Logger) *TeacherResolver {
	if cfg.CodePrefix == "" {
		cfg.CodePrefix = DefaultResolverConfig().CodePrefix
	}
	if cfg.CodeWidth <= 0 {
		cfg.CodeWidth = DefaultResolverConfig().CodeWidth
	}
	if cfg.PlaceholderDomain == "" {
		cfg.PlaceholderDomain = DefaultResolverConfig().PlaceholderDomain
	}
	return &TeacherResolver{
		cat:        cat,
		cfg:        cfg,
		log:        log.With().Str("component", "teacher_resolver").Logger(),
		cache:      make(map[string]cachedResolution),
		surrogates: make(map[string]string),
	}
}

// Resolve resolves a display name.
func (r *TeacherResolver) Resolve(ctx context.Context, name string) (Resolution, error) {
	return r.ResolveRef(ctx, name, "")
}

// ResolveRef resolves a display name, preferring code when the sheet carries an
// explicit teacher code column.
func (r *TeacherResolver) ResolveRef(ctx context.Context, name, code string) (Resolution, error) {
	key := textnorm.Fold(name) + "\x00" + code
	if c, ok := r.cache[key]; ok {
		res := c.res
		res.Created = false
		return res, c.err
	}
	res, err := r.resolve(ctx, name, code)
	if err != nil && !isReferenceError(err) {
		// store failures are not cached so a later row can retry
		return res, err
	}
	r.cache[key] = cachedResolution{res: res, err: err}
	return res, err
}

func isReferenceError(err error) bool {
	return errors.Is(err, apperrors.ErrUnresolvedReference) || errors.Is(err, apperrors.ErrSurrogateConflict)
}

func (r *TeacherResolver) resolve(ctx context.Context, name, code string) (Resolution, error) {
	if err := r.load(ctx); err != nil {
		return Resolution{}, err
	}
	folded := textnorm.Fold(name)
	if folded == "" && code == "" {
		return Resolution{}, unresolved(name, "teacher name is empty")
	}

	if folded != "" {
		for _, t := range r.teachers {
			if textnorm.Fold(t.Name) == folded {
				return Resolution{Teacher: t, Method: MethodExact}, nil
			}
		}
	}

	if code != "" {
		if t := r.byCode(code); t != nil {
			return Resolution{Teacher: t, Method: MethodCode}, nil
		}
	}
	for _, c := range embeddedCodes(name) {
		if t := r.byCode(c); t != nil {
			return Resolution{Teacher: t, Method: MethodCode}, nil
		}
	}

	if t := r.partial(folded); t != nil {
		return Resolution{Teacher: t, Method: MethodPartial}, nil
	}

	surrogate := code
	if surrogate == "" {
		surrogate = r.surrogateCode(name)
	}
	if surrogate == "" {
		return Resolution{}, unresolved(name, "no matching teacher and no numeric suffix to derive a code from")
	}
	return r.create(ctx, name, surrogate)
}

func (r *TeacherResolver) load(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	all, err := r.cat.Teachers.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load teachers: %w", err)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	r.teachers = all
	r.loaded = true
	return nil
}

func (r *TeacherResolver) byCode(code string) *models.Teacher {
	for _, t := range r.teachers {
		if t.Code == code {
			return t
		}
	}
	return nil
}

// partial picks the closest teacher whose folded name contains, or is contained
// in, the reference as a run of whole words: "nguyen van an" does not match
// "nguyen van anh". Ties go to the lower code.
func (r *TeacherResolver) partial(folded string) *models.Teacher {
	if utf8.RuneCountInString(folded) < minPartialRunes {
		return nil
	}
	ref := wordRun(folded)
	var best *models.Teacher
	bestDist := 0
	for _, t := range r.teachers {
		tn := textnorm.Fold(t.Name)
		if utf8.RuneCountInString(tn) < minPartialRunes {
			continue
		}
		name := wordRun(tn)
		if !strings.Contains(name, ref) && !strings.Contains(ref, name) {
			continue
		}
		d := levenshtein.ComputeDistance(folded, tn)
		if best == nil || d < bestDist {
			best, bestDist = t, d
		}
	}
	return best
}

// wordRun joins the words of s with single spaces and pads both ends, so a
// substring test on two word runs only matches at word boundaries.
func wordRun(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(words, " ") + " "
}

// surrogateCode derives prefix + zero-padded trailing digits, "" when the name
// has no numeric suffix.
func (r *TeacherResolver) surrogateCode(name string) string {
	m := trailingDigits.FindStringSubmatch(textnorm.Clean(name))
	if m == nil {
		return ""
	}
	digits := m[1]
	if n, err := strconv.Atoi(digits); err == nil {
		digits = fmt.Sprintf("%0*d", r.cfg.CodeWidth, n)
	}
	return strings.ToUpper(r.cfg.CodePrefix) + digits
}

func (r *TeacherResolver) create(ctx context.Context, name, code string) (Resolution, error) {
	if n := utf8.RuneCountInString(code); n > models.MaxCodeLength {
		return Resolution{}, unresolved(name, fmt.Sprintf("derived code %s is %d characters, longer than %d", code, n, models.MaxCodeLength))
	}
	folded := textnorm.Fold(name)
	if prev, ok := r.surrogates[code]; ok && prev != folded {
		return Resolution{}, conflict(name, code, "code was already generated for another name in this import")
	}
	if existing := r.byCode(code); existing != nil {
		return Resolution{}, conflict(name, code, fmt.Sprintf("code already belongs to %q", existing.Name))
	}

	display := textnorm.Clean(name)
	if display == "" {
		display = code
	}
	t := &models.Teacher{
		Code:        code,
		Name:        display,
		Email:       strings.ToLower(code) + "@" + r.cfg.PlaceholderDomain,
		IsGenerated: true,
	}
	if err := r.cat.Teachers.Insert(ctx, t); err != nil {
		if errors.Is(err, apperrors.ErrCodeExists) {
			return Resolution{}, conflict(name, code, "code was created concurrently by another import")
		}
		return Resolution{}, fmt.Errorf("create teacher %s: %w", code, err)
	}
	r.insertSorted(t)
	r.surrogates[code] = folded
	r.log.Info().Str("name", display).Str("code", code).Msg("Created teacher from unresolved reference")
	return Resolution{Teacher: t, Method: MethodGenerated, Created: true}, nil
}

// insertSorted adds t keeping r.teachers ordered by code, which the partial
// match tie-break relies on.
func (r *TeacherResolver) insertSorted(t *models.Teacher) {
	i := sort.Search(len(r.teachers), func(i int) bool { return r.teachers[i].Code >= t.Code })
	r.teachers = append(r.teachers, nil)
	copy(r.teachers[i+1:], r.teachers[i:])
	r.teachers[i] = t
}

// embeddedCodes returns the tokens of s that mix letters and digits, uppercased,
// such as "GV007" in "Tran Thi B (GV007)".
func embeddedCodes(s string) []string {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []string
	for _, tok := range tokens {
		hasLetter, hasDigit := false, false
		for _, r := range tok {
			hasLetter = hasLetter || unicode.IsLetter(r)
			hasDigit = hasDigit || unicode.IsDigit(r)
		}
		if hasLetter && hasDigit {
			out = append(out, strings.ToUpper(tok))
		}
	}
	return out
}

func unresolved(name, msg string) error {
	return apperrors.NewCustomError(apperrors.ErrUnresolvedReference, fmt.Sprintf("teacher %q: %s", name, msg)).
		WithCode(apperrors.CodeUnresolved)
}

func conflict(name, code, msg string) error {
	return apperrors.NewCustomError(apperrors.ErrSurrogateConflict, fmt.Sprintf("teacher %q -> %s: %s", name, code, msg)).
		WithCode(apperrors.CodeConflict).
		WithDetails(map[string]interface{}{"code": code})
}
