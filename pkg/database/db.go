package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Params struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Connect opens the Postgres connection. TranslateError is on so unique
// and check violations come back as gorm.ErrDuplicatedKey and
// gorm.ErrCheckConstraintViolated instead of raw pgx errors.
func Connect(p Params) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		p.Host, p.User, p.Password, p.Name, p.Port,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return db, nil
}
