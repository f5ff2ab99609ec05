package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/factorclaim/internal/model"
)

const repColumns = `id, name, contact, email, is_active, created_at, updated_at`

// CreateRep adds a field representative.
func CreateRep(ctx context.Context, db *sql.DB, r model.Rep) (*model.Rep, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO reps (name, contact, email, is_active) VALUES (?, ?, ?, ?)`,
		r.Name, r.Contact, r.Email, r.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("creating rep: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting rep id: %w", err)
	}

	return GetRep(ctx, db, model.ID(id))
}

// GetRep returns a rep by ID, or nil if it does not exist.
func GetRep(ctx context.Context, db *sql.DB, id model.ID) (*model.Rep, error) {
	r := &model.Rep{}
	var email sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT `+repColumns+` FROM reps WHERE id = ?`, id,
	).Scan(&r.ID, &r.Name, &r.Contact, &email, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting rep: %w", err)
	}
	r.Email = email.String
	return r, nil
}

// ListReps returns reps ordered by ID, optionally filtered by their active flag.
func ListReps(ctx context.Context, db *sql.DB, active *bool, skip, limit int) ([]model.Rep, error) {
	query := `SELECT ` + repColumns + ` FROM reps`
	var args []any
	if active != nil {
		query += ` WHERE is_active = ?`
		args = append(args, *active)
	}
	skip, limit = page(skip, limit)
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, skip)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reps: %w", err)
	}
	defer rows.Close()

	var reps []model.Rep
	for rows.Next() {
		var r model.Rep
		var email sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.Contact, &email, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning rep: %w", err)
		}
		r.Email = email.String
		reps = append(reps, r)
	}
	return reps, rows.Err()
}

// UpdateRep overwrites a rep's fields.
func UpdateRep(ctx context.Context, db *sql.DB, id model.ID, r model.Rep) error {
	result, err := db.ExecContext(ctx,
		`UPDATE reps SET name = ?, contact = ?, email = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		r.Name, r.Contact, r.Email, r.IsActive, id,
	)
	if err != nil {
		return fmt.Errorf("updating rep: %w", err)
	}
	return requireAffected(result)
}

// DeleteRep removes a rep that no claim references.
func DeleteRep(ctx context.Context, db *sql.DB, id model.ID) error {
	var count int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims WHERE rep_id = ?`, id,
	).Scan(&count); err != nil {
		return fmt.Errorf("checking rep claims: %w", err)
	}
	if count > 0 {
		return ErrInUse
	}

	result, err := db.ExecContext(ctx, `DELETE FROM reps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting rep: %w", err)
	}
	return requireAffected(result)
}
