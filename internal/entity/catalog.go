package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Slug      string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

type Genre struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Slug      string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
}

func (g *Genre) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID, err = uuid.NewV7()
	}
	return
}

// Title is the reviewable work. Rating is never stored; it is derived
// from the title's reviews at read time.
type Title struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Year        int        `gorm:"not null" json:"year"`
	Description string     `gorm:"type:text" json:"description"`
	CategoryID  *uuid.UUID `gorm:"type:uuid" json:"-"`
	Category    *Category  `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Genres      []Genre    `gorm:"many2many:title_genres;constraint:OnDelete:CASCADE" json:"genres"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"-"`
}

func (t *Title) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID, err = uuid.NewV7()
	}
	return
}
