package postgres

import (
	"github.com/catprep/mocktest-service/internal/models"
	"github.com/catprep/mocktest-service/internal/repositories"
	"gorm.io/gorm"
)

type postgresRepository struct {
	user    repositories.UserRepository
	attempt repositories.AttemptRepository
}

// NewRepository builds the PostgreSQL-backed repository aggregate.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &postgresRepository{
		user:    NewUserPostgreSQL(db),
		attempt: NewAttemptPostgreSQL(db),
	}
}

func (r *postgresRepository) User() repositories.UserRepository {
	return r.user
}

func (r *postgresRepository) Attempt() repositories.AttemptRepository {
	return r.attempt
}

// AutoMigrate creates or updates the portal's tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Attempt{},
		&models.QuestionResult{},
	)
}
