package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/showmatch/showmatch-backend/internal/db"
)

// UserRepository reads the compatibility profiles owned by the
// profile-editing subsystem. The match engine never writes users.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetByID fetches a user by primary key. Returns
// gorm.ErrRecordNotFound when the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, userID uint64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
