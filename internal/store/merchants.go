package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/factorclaim/internal/model"
)

const merchantColumns = `id, name, address, contact, email, is_active, created_at, updated_at`

// CreateMerchant adds a merchant.
func CreateMerchant(ctx context.Context, db *sql.DB, m model.Merchant) (*model.Merchant, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO merchants (name, address, contact, email, is_active) VALUES (?, ?, ?, ?, ?)`,
		m.Name, m.Address, m.Contact, m.Email, m.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("creating merchant: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting merchant id: %w", err)
	}

	return GetMerchant(ctx, db, model.ID(id))
}

// GetMerchant returns a merchant by ID, or nil if it does not exist.
func GetMerchant(ctx context.Context, db *sql.DB, id model.ID) (*model.Merchant, error) {
	m, err := scanMerchant(db.QueryRowContext(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting merchant: %w", err)
	}
	return m, nil
}

// ListMerchants returns merchants ordered by ID, optionally filtered by
// their active flag.
func ListMerchants(ctx context.Context, db *sql.DB, active *bool, skip, limit int) ([]model.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants`
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
		return nil, fmt.Errorf("listing merchants: %w", err)
	}
	defer rows.Close()

	return scanMerchants(rows)
}

// SearchMerchants finds merchants whose name, address or contact contains term.
func SearchMerchants(ctx context.Context, db *sql.DB, term string) ([]model.Merchant, error) {
	pattern := containsPattern(term)
	rows, err := db.QueryContext(ctx,
		`SELECT `+merchantColumns+` FROM merchants
		 WHERE name LIKE ? ESCAPE '\' OR address LIKE ? ESCAPE '\' OR contact LIKE ? ESCAPE '\'
		 ORDER BY id LIMIT ?`,
		pattern, pattern, pattern, MaxLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching merchants: %w", err)
	}
	defer rows.Close()

	return scanMerchants(rows)
}

// UpdateMerchant overwrites a merchant's fields.
func UpdateMerchant(ctx context.Context, db *sql.DB, id model.ID, m model.Merchant) error {
	result, err := db.ExecContext(ctx,
		`UPDATE merchants SET name = ?, address = ?, contact = ?, email = ?, is_active = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		m.Name, m.Address, m.Contact, m.Email, m.IsActive, id,
	)
	if err != nil {
		return fmt.Errorf("updating merchant: %w", err)
	}
	return requireAffected(result)
}

// DeleteMerchant removes a merchant that no claim references.
func DeleteMerchant(ctx context.Context, db *sql.DB, id model.ID) error {
	var count int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims WHERE merchant_id = ?`, id,
	).Scan(&count); err != nil {
		return fmt.Errorf("checking merchant claims: %w", err)
	}
	if count > 0 {
		return ErrInUse
	}

	result, err := db.ExecContext(ctx, `DELETE FROM merchants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting merchant: %w", err)
	}
	return requireAffected(result)
}

func scanMerchant(s rowScanner) (*model.Merchant, error) {
	m := &model.Merchant{}
	var email sql.NullString
	if err := s.Scan(&m.ID, &m.Name, &m.Address, &m.Contact, &email, &m.IsActive,
		&m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Email = email.String
	return m, nil
}

func scanMerchants(rows *sql.Rows) ([]model.Merchant, error) {
	var merchants []model.Merchant
	for rows.Next() {
		m, err := scanMerchant(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning merchant: %w", err)
		}
		merchants = append(merchants, *m)
	}
	return merchants, rows.Err()
}
