package sqlite

import (
	"fmt"

	"medaware/internal/model"
)

// UserRepository implements repository.UserRepository for SQLite.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Insert adds a user. A non-zero ID is kept as given.
func (r *UserRepository) Insert(user *model.User) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	var (
		query = `INSERT INTO users (email) VALUES (?)`
		args  = []interface{}{user.Email}
	)
	if user.ID != 0 {
		query = `INSERT INTO users (uid, email) VALUES (?, ?)`
		args = []interface{}{user.ID, user.Email}
	}

	result, err := r.db.Conn().Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return result.LastInsertId()
}

// Exists reports whether a user with the given id exists.
func (r *UserRepository) Exists(userID int64) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM users WHERE uid = ?`, userID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}
