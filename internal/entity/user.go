package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username    string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email       string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	FirstName   string    `gorm:"size:100" json:"first_name"`
	LastName    string    `gorm:"size:100" json:"last_name"`
	Bio         string    `gorm:"type:text" json:"bio"`
	Role        string    `gorm:"size:20;not null;default:user" json:"role"`
	IsSuperuser bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID, err = uuid.NewV7()
	}
	return
}
