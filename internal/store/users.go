package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/factorclaim/internal/model"
)

const userColumns = `id, name, email, contact_no, password_hash, role, is_active,
	created_at, updated_at, deleted_at`

// CreateUser creates a new user. Emails are unique among non-deleted users,
// ignoring case.
func CreateUser(ctx context.Context, db *sql.DB, u model.User) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (name, email, contact_no, password_hash, role, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Name, strings.TrimSpace(u.Email), u.ContactNo, u.PasswordHash, u.Role, u.IsActive,
	)
	if isUniqueViolation(err, "email") {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, model.ID(id))
}

// GetUser returns a user by ID, including soft-deleted ones.
func GetUser(ctx context.Context, db *sql.DB, id model.ID) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the non-deleted user with the given email.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE email = ? COLLATE NOCASE AND deleted_at IS NULL`,
		strings.TrimSpace(email),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CountAdmins returns the number of active, non-deleted admins.
func CountAdmins(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ? AND is_active = 1 AND deleted_at IS NULL`,
		model.RoleAdmin,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return n, nil
}

// UpdateUser overwrites a user's profile, role and active flag.
func UpdateUser(ctx context.Context, db *sql.DB, id model.ID, u model.User) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, contact_no = ?, role = ?, is_active = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		u.Name, strings.TrimSpace(u.Email), u.ContactNo, u.Role, u.IsActive, id,
	)
	if isUniqueViolation(err, "email") {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return requireAffected(result)
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id model.ID, passwordHash string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return requireAffected(result)
}

// DeleteUser soft-deletes a user. The email becomes free for reuse.
func DeleteUser(ctx context.Context, db *sql.DB, id model.ID) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP, is_active = 0
		 WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return requireAffected(result)
}

func scanUser(s rowScanner) (*model.User, error) {
	u := &model.User{}
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.ContactNo, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
		return nil, err
	}
	return u, nil
}
