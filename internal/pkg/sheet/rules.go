package sheet

import (
	"strings"
	"unicode"

	"github.com/yigit/internhub/internal/pkg/textnorm"
)

// headerText is a folded header padded with spaces so phrases match on word
// boundaries: "ma sv" matches "Mã SV" but not "Mã SVTT".
type headerText string

func newHeaderText(raw string) headerText {
	folded := textnorm.Fold(raw)
	tokens := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) == 0 {
		return ""
	}
	return headerText(" " + strings.Join(tokens, " ") + " ")
}

func (h headerText) has(phrase string) bool {
	return strings.Contains(string(h), " "+phrase+" ")
}

type matcher func(h headerText) bool

func anyOf(phrases ...string) matcher {
	return func(h headerText) bool {
		for _, p := range phrases {
			if h.has(p) {
				return true
			}
		}
		return false
	}
}

func allOf(ms ...matcher) matcher {
	return func(h headerText) bool {
		for _, m := range ms {
			if !m(h) {
				return false
			}
		}
		return true
	}
}

func either(ms ...matcher) matcher {
	return func(h headerText) bool {
		for _, m := range ms {
			if m(h) {
				return true
			}
		}
		return false
	}
}

// headerRule maps a header predicate onto a canonical field. Rules are evaluated
// in order; the first match wins, so specific rules precede generic ones.
type headerRule struct {
	Name  string
	Field Field
	Match matcher
	// Kinds restricts the rule; nil means every kind
	Kinds []ImportKind
	// Ignore claims the header without mapping it, e.g. a teacher's email on a student sheet
	Ignore bool
}

func (r headerRule) appliesTo(kind ImportKind) bool {
	if len(r.Kinds) == 0 {
		return true
	}
	for _, k := range r.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

var studentSideKinds = []ImportKind{KindStudentRoster, KindGuidanceMapping, KindRegistrationForm}

var teacherWords = anyOf("gv", "gvhd", "giang vien", "giao vien", "can bo", "nguoi huong dan")

var (
	supervisorWords = either(teacherWords, anyOf("huong dan"))
	emailWords      = anyOf("email", "e mail", "mail", "thu dien tu")
	phoneWords      = anyOf("so dien thoai", "dien thoai", "sdt", "dt", "dtdd", "phone", "mobile")
	addressWords    = anyOf("dia chi", "address")
	noteWords       = anyOf("ghi chu", "note", "notes")
)

// defaultRules is the ordered rule table shared by every import kind.
func defaultRules() []headerRule {
	return []headerRule{
		{
			Name:  "teacher-code",
			Field: FieldTeacherCode,
			Match: either(anyOf("ma gv", "ma gvhd", "msgv", "ma giang vien", "ma giao vien", "ma can bo"),
				allOf(anyOf("ma", "ma so"), teacherWords)),
		},
		{
			// contact details of the supervisor are not student attributes
			Name:   "supervisor-contact",
			Match:  allOf(either(emailWords, phoneWords, addressWords), supervisorWords),
			Kinds:  studentSideKinds,
			Ignore: true,
		},
		{
			Name:  "supervisor-note",
			Field: FieldNote,
			Match: allOf(noteWords, supervisorWords),
		},
		{
			Name:  "supervising-teacher",
			Field: FieldSupervisingTeacherName,
			Match: anyOf("giang vien huong dan", "giao vien huong dan", "gvhd", "nguoi huong dan",
				"can bo huong dan", "huong dan"),
			Kinds: studentSideKinds,
		},
		{
			Name:  "supervising-teacher-bare",
			Field: FieldSupervisingTeacherName,
			Match: anyOf("giang vien", "giao vien", "gv"),
			Kinds: studentSideKinds,
		},
		{
			Name:  "student-code",
			Field: FieldStudentCode,
			Match: either(anyOf("mssv", "msv", "ma sv", "ma sinh vien", "ma so sinh vien", "student id", "student code"),
				allOf(anyOf("ma", "ma so"), anyOf("sv", "sinh vien", "hoc vien"))),
		},
		{
			Name:  "company-code",
			Field: FieldCompanyCode,
			Match: allOf(anyOf("ma", "ma so"), anyOf("dn", "doanh nghiep", "cong ty", "don vi", "company")),
		},
		{
			Name:  "personal-email",
			Field: FieldPersonalEmail,
			Match: allOf(emailWords, anyOf("ca nhan", "personal", "rieng")),
		},
		{
			Name:  "email",
			Field: FieldEmail,
			Match: emailWords,
		},
		{
			Name:  "phone",
			Field: FieldPhone,
			Match: phoneWords,
		},
		{
			Name:  "date-of-birth",
			Field: FieldDateOfBirth,
			Match: anyOf("ngay sinh", "sinh ngay", "ngay thang nam sinh", "dob", "date of birth"),
		},
		{
			Name:  "internship-start",
			Field: FieldInternshipStart,
			Match: anyOf("ngay bat dau", "bat dau", "tu ngay", "start date"),
		},
		{
			Name:  "internship-end",
			Field: FieldInternshipEnd,
			Match: anyOf("ngay ket thuc", "ket thuc", "den ngay", "end date"),
		},
		{
			Name:  "accepted-position-explicit",
			Field: FieldAcceptedPosition,
			Match: anyOf("vi tri tuyen", "vi tri tuyen dung", "vi tri tiep nhan", "linh vuc tiep nhan", "nganh nghe tiep nhan"),
		},
		{
			Name:  "accepted-position",
			Field: FieldAcceptedPosition,
			Match: anyOf("vi tri", "linh vuc", "nganh nghe", "position"),
			Kinds: []ImportKind{KindCompanyRoster},
		},
		{
			Name:  "desired-position",
			Field: FieldDesiredPosition,
			Match: anyOf("vi tri", "vi tri mong muon", "vi tri thuc tap", "linh vuc mong muon", "position"),
			Kinds: studentSideKinds,
		},
		{
			// "Địa chỉ công ty" is an address, not a company name
			Name:  "address",
			Field: FieldAddress,
			Match: addressWords,
		},
		{
			Name:  "capacity",
			Field: FieldCapacity,
			Match: anyOf("so luong", "chi tieu", "so sinh vien tiep nhan", "so luong tiep nhan", "quota", "capacity"),
			Kinds: []ImportKind{KindCompanyRoster},
		},
		{
			Name:  "company-name",
			Field: FieldCompanyName,
			Match: either(anyOf("ten cong ty", "ten doanh nghiep", "cong ty", "doanh nghiep", "don vi", "company"),
				allOf(anyOf("ten"), anyOf("dn"))),
			Kinds: []ImportKind{KindCompanyRoster},
		},
		{
			Name:  "host-company",
			Field: FieldHostCompanyName,
			Match: anyOf("cong ty", "doanh nghiep", "noi thuc tap", "don vi thuc tap", "co quan", "dn", "company"),
			Kinds: studentSideKinds,
		},
		{
			Name:  "preference",
			Field: FieldPreference,
			Match: anyOf("nguyen vong", "preference", "uu tien"),
		},
		{
			Name:  "document",
			Field: FieldDocumentURL,
			Match: anyOf("cv", "ho so", "tep dinh kem", "file", "link cv", "resume"),
		},
		{
			Name:  "topic",
			Field: FieldTopic,
			Match: anyOf("de tai", "ten de tai", "topic"),
		},
		{
			Name:  "role",
			Field: FieldRole,
			Match: anyOf("chuc vu", "chuc danh", "hoc ham", "hoc vi", "vai tro", "role"),
			Kinds: []ImportKind{KindTeacherRoster},
		},
		{
			Name:  "department",
			Field: FieldDepartment,
			Match: anyOf("bo mon", "khoa", "phong ban", "department"),
			Kinds: []ImportKind{KindTeacherRoster},
		},
		{
			Name:  "class",
			Field: FieldClassName,
			Match: anyOf("lop", "lop hoc", "lop sinh hoat", "class"),
		},
		{
			Name:  "note",
			Field: FieldNote,
			Match: noteWords,
		},
		{
			Name:  "full-name",
			Field: FieldFullName,
			Match: either(anyOf("ho ten", "ho va ten", "ten sinh vien", "ten sv", "ten giang vien", "ten gv", "full name", "name"),
				func(h headerText) bool { return h == " ten " }),
		},
	}
}
