package family

import (
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/matzehuels/kintree/pkg/errors"
)

// Gender is the recorded gender of a person.
type Gender string

const (
	GenderUnspecified Gender = "unspecified"
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
)

// ParseGender converts free text into a Gender. Unknown values map to
// GenderUnspecified.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	case "other", "o":
		return GenderOther
	default:
		return GenderUnspecified
	}
}

// Position is a point on the canvas in canvas units, anchored at the
// top-left corner of the node.
type Position struct {
	X float64 `json:"x" yaml:"x" bson:"x"`
	Y float64 `json:"y" yaml:"y" bson:"y"`
}

// Person is a member of the tree.
//
// The zero value is not usable; ID and FirstName must be set before adding
// to a Graph. Position is nil until the person has been laid out and saved.
type Person struct {
	ID              string     `json:"id" yaml:"id"`
	FirstName       string     `json:"first_name" yaml:"first_name"`
	Surname         string     `json:"surname,omitempty" yaml:"surname,omitempty"`
	BirthDate       *time.Time `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	AnniversaryDate *time.Time `json:"anniversary_date,omitempty" yaml:"anniversary_date,omitempty"`
	Alive           bool       `json:"alive" yaml:"alive"`
	Gender          Gender     `json:"gender,omitempty" yaml:"gender,omitempty"`
	Notes           string     `json:"notes,omitempty" yaml:"notes,omitempty"`
	Tags            []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	PhotoURL        string     `json:"photo_url,omitempty" yaml:"photo_url,omitempty"`
	Position        *Position  `json:"position,omitempty" yaml:"position,omitempty"`
}

// FullName joins the first name and surname.
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.Surname)
}

// Initials returns up to two upper-case initials.
func (p Person) Initials() string {
	var b strings.Builder
	for _, part := range []string{p.FirstName, p.Surname} {
		for _, r := range strings.TrimSpace(part) {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	return b.String()
}

// Age returns the age in whole years at now, and false when the birth date
// is unknown or in the future.
func (p Person) Age(now time.Time) (int, bool) {
	if p.BirthDate == nil {
		return 0, false
	}
	b := *p.BirthDate
	if b.After(now) {
		return 0, false
	}
	years := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		years--
	}
	return years, true
}

// Clone returns a deep copy of p.
func (p Person) Clone() Person {
	p.Tags = slices.Clone(p.Tags)
	if p.Position != nil {
		pos := *p.Position
		p.Position = &pos
	}
	if p.BirthDate != nil {
		d := *p.BirthDate
		p.BirthDate = &d
	}
	if p.AnniversaryDate != nil {
		d := *p.AnniversaryDate
		p.AnniversaryDate = &d
	}
	return p
}

// =============================================================================
// Fields
// =============================================================================

// Fields is a partial set of person properties. Nil fields are left
// unchanged by [Fields.Apply]; a nil Tags slice leaves tags unchanged while
// an empty non-nil slice clears them.
type Fields struct {
	FirstName       *string
	Surname         *string
	BirthDate       *time.Time
	AnniversaryDate *time.Time
	Alive           *bool
	Gender          *Gender
	Notes           *string
	Tags            []string
	PhotoURL        *string
	Position        *Position

	// ClearBirthDate and ClearAnniversaryDate remove a recorded date.
	ClearBirthDate       bool
	ClearAnniversaryDate bool
}

// Validate checks the fields that are set. Use [Fields.ValidateNew] for
// creation, which additionally requires a first name.
func (f Fields) Validate() error {
	if f.FirstName != nil {
		if err := errors.ValidateName(*f.FirstName); err != nil {
			return err
		}
	}
	if f.PhotoURL != nil && *f.PhotoURL != "" {
		if err := errors.ValidateURL(*f.PhotoURL); err != nil {
			return err
		}
	}
	for _, t := range NormalizeTags(f.Tags) {
		if err := errors.ValidateTag(t); err != nil {
			return err
		}
	}
	return nil
}

// ValidateNew validates fields used to create a person.
func (f Fields) ValidateNew() error {
	if f.FirstName == nil {
		return errors.New(errors.ErrCodeMissingName, "first name is required")
	}
	return f.Validate()
}

// Apply copies the set fields onto p.
func (f Fields) Apply(p *Person) {
	if f.FirstName != nil {
		p.FirstName = strings.TrimSpace(*f.FirstName)
	}
	if f.Surname != nil {
		p.Surname = strings.TrimSpace(*f.Surname)
	}
	if f.ClearBirthDate {
		p.BirthDate = nil
	} else if f.BirthDate != nil {
		d := *f.BirthDate
		p.BirthDate = &d
	}
	if f.ClearAnniversaryDate {
		p.AnniversaryDate = nil
	} else if f.AnniversaryDate != nil {
		d := *f.AnniversaryDate
		p.AnniversaryDate = &d
	}
	if f.Alive != nil {
		p.Alive = *f.Alive
	}
	if f.Gender != nil {
		p.Gender = *f.Gender
	}
	if f.Notes != nil {
		p.Notes = *f.Notes
	}
	if f.Tags != nil {
		p.Tags = NormalizeTags(f.Tags)
	}
	if f.PhotoURL != nil {
		p.PhotoURL = strings.TrimSpace(*f.PhotoURL)
	}
	if f.Position != nil {
		pos := *f.Position
		p.Position = &pos
	}
}

// NewPerson builds a person from creation fields. Liveness defaults to true
// and gender to GenderUnspecified. The caller assigns the ID.
func NewPerson(id string, f Fields) Person {
	p := Person{ID: id, Alive: true, Gender: GenderUnspecified}
	f.Apply(&p)
	return p
}

// FieldsOf returns Fields that recreate every property of p.
func FieldsOf(p Person) Fields {
	f := Fields{
		FirstName:       &p.FirstName,
		Surname:         &p.Surname,
		BirthDate:       p.BirthDate,
		AnniversaryDate: p.AnniversaryDate,
		Alive:           &p.Alive,
		Gender:          &p.Gender,
		Notes:           &p.Notes,
		Tags:            slices.Clone(p.Tags),
		PhotoURL:        &p.PhotoURL,
		Position:        p.Position,
	}
	if f.Tags == nil {
		f.Tags = []string{}
	}
	return f
}

// Ptr returns a pointer to v. It keeps Fields literals short.
func Ptr[T any](v T) *T { return &v }

// =============================================================================
// Tags
// =============================================================================

// ParseTags splits a comma-separated tag list, e.g. "veteran, farmer,,".
func ParseTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}

// NormalizeTags trims tags, drops empties and removes duplicates while
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
