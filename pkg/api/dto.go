package api

import (
	"time"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// PersonInput is the body of person create and update requests. Omitted
// fields are left unchanged; an empty date string clears the date.
type PersonInput struct {
	FirstName       *string          `json:"first_name"`
	Surname         *string          `json:"surname"`
	BirthDate       *string          `json:"birth_date"`
	AnniversaryDate *string          `json:"anniversary_date"`
	Alive           *bool            `json:"alive"`
	Gender          *string          `json:"gender"`
	Notes           *string          `json:"notes"`
	Tags            []string         `json:"tags"`
	PhotoURL        *string          `json:"photo_url"`
	Position        *family.Position `json:"position"`
}

// Fields converts the input to family.Fields.
func (in PersonInput) Fields() (family.Fields, error) {
	f := family.Fields{
		FirstName: in.FirstName,
		Surname:   in.Surname,
		Alive:     in.Alive,
		Notes:     in.Notes,
		Tags:      in.Tags,
		PhotoURL:  in.PhotoURL,
		Position:  in.Position,
	}
	if in.Gender != nil {
		f.Gender = family.Ptr(family.ParseGender(*in.Gender))
	}
	var err error
	if f.BirthDate, f.ClearBirthDate, err = parseDate("birth_date", in.BirthDate); err != nil {
		return f, err
	}
	if f.AnniversaryDate, f.ClearAnniversaryDate, err = parseDate("anniversary_date", in.AnniversaryDate); err != nil {
		return f, err
	}
	return f, nil
}

func parseDate(field string, s *string) (*time.Time, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	if *s == "" {
		return nil, true, nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "%s must be YYYY-MM-DD, got %q", field, *s)
	}
	return &t, false, nil
}

type quickAddRequest struct {
	Relation string `json:"relation"`
}

type connectRequest struct {
	PersonA string `json:"person_a"`
	PersonB string `json:"person_b"`
	Kind    string `json:"kind"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type selectionRequest struct {
	ID string `json:"id"`
}

type createdResponse struct {
	ID   string `json:"id"`
	View any    `json:"view"`
}
