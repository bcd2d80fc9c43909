package bootstrap

import (
	"log"

	"anoa.com/titlereview/internal/entity"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema. Order matters: titles reference
// categories and reviews reference both titles and users.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Category{},
		&entity.Genre{},
		&entity.Title{},
		&entity.Review{},
		&entity.Comment{},
	)
}

// SeedAdmin creates the development superuser if it does not exist.
// Production deployments are expected to promote a user by hand.
func SeedAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.User{}).
		Where("username = ?", "admin").
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	admin := entity.User{
		Username:    "admin",
		Email:       "admin@titlereview.local",
		Role:        entity.RoleAdmin,
		IsSuperuser: true,
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("Admin user seeded: admin@titlereview.local")

	return nil
}
