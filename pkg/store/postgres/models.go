package postgres

import (
	"time"

	"github.com/matzehuels/kintree/pkg/family"
)

// personModel is the people table.
type personModel struct {
	ID              string     `gorm:"primaryKey;type:uuid"`
	TreeID          string     `gorm:"not null;index:idx_people_tree"`
	FirstName       string     `gorm:"not null"`
	Surname         string     `gorm:"not null"`
	BirthDate       *time.Time `gorm:"type:date"`
	AnniversaryDate *time.Time `gorm:"type:date"`
	Alive           bool       `gorm:"not null"`
	Gender          string     `gorm:"not null;type:varchar(20)"`
	Notes           string     `gorm:"type:text"`
	Tags            []string   `gorm:"serializer:json"`
	PhotoURL        string
	PosX            *float64
	PosY            *float64
	Seq             int64     `gorm:"autoIncrement;not null"`
	CreatedAt       time.Time `gorm:"not null"`
}

func (personModel) TableName() string { return "people" }

// relationshipModel is the relationships table. Both endpoints cascade.
type relationshipModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	TreeID    string `gorm:"not null;index:idx_relationships_tree"`
	PersonA   string `gorm:"not null;type:uuid;index"`
	PersonB   string `gorm:"not null;type:uuid;index"`
	Kind      string `gorm:"not null;type:varchar(20)"`
	Seq       int64  `gorm:"autoIncrement;not null"`
	CreatedAt time.Time

	A *personModel `gorm:"foreignKey:PersonA;references:ID;constraint:OnDelete:CASCADE"`
	B *personModel `gorm:"foreignKey:PersonB;references:ID;constraint:OnDelete:CASCADE"`
}

func (relationshipModel) TableName() string { return "relationships" }

func toPersonModel(treeID string, p family.Person) personModel {
	m := personModel{
		ID:              p.ID,
		TreeID:          treeID,
		FirstName:       p.FirstName,
		Surname:         p.Surname,
		BirthDate:       p.BirthDate,
		AnniversaryDate: p.AnniversaryDate,
		Alive:           p.Alive,
		Gender:          string(p.Gender),
		Notes:           p.Notes,
		Tags:            p.Tags,
		PhotoURL:        p.PhotoURL,
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if p.Position != nil {
		x, y := p.Position.X, p.Position.Y
		m.PosX, m.PosY = &x, &y
	}
	return m
}

func (m personModel) person() family.Person {
	p := family.Person{
		ID:              m.ID,
		FirstName:       m.FirstName,
		Surname:         m.Surname,
		BirthDate:       m.BirthDate,
		AnniversaryDate: m.AnniversaryDate,
		Alive:           m.Alive,
		Gender:          family.Gender(m.Gender),
		Notes:           m.Notes,
		PhotoURL:        m.PhotoURL,
	}
	if len(m.Tags) > 0 {
		p.Tags = m.Tags
	}
	if m.PosX != nil && m.PosY != nil {
		p.Position = &family.Position{X: *m.PosX, Y: *m.PosY}
	}
	return p
}

func (m relationshipModel) relationship() family.Relationship {
	return family.Relationship{ID: m.ID, PersonA: m.PersonA, PersonB: m.PersonB, Kind: family.Kind(m.Kind)}
}
