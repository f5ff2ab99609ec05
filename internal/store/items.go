package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/factorclaim/internal/model"
)

const itemColumns = `id, model_name, item_type, batch, production_date, wattage, supplier,
	contractor, notes, created_at, updated_at`

// CreateItem adds an item to the registry.
func CreateItem(ctx context.Context, db *sql.DB, item model.Item) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (model_name, item_type, batch, production_date, wattage, supplier, contractor, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ModelName, item.ItemType, item.Batch, item.ProductionDate.UTC(), item.Wattage,
		item.Supplier, item.Contractor, item.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, model.ID(id))
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id model.ID) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// GetItemByBatch looks an item up by its batch code, as printed on the
// barcode. An exact match wins; otherwise the comparison ignores case.
func GetItemByBatch(ctx context.Context, db *sql.DB, code string) (*model.Item, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	for _, query := range []string{
		`SELECT ` + itemColumns + ` FROM items WHERE batch = ? ORDER BY id LIMIT 1`,
		`SELECT ` + itemColumns + ` FROM items WHERE batch = ? COLLATE NOCASE ORDER BY id LIMIT 1`,
	} {
		item, err := scanItem(db.QueryRowContext(ctx, query, code))
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("getting item by batch: %w", err)
		}
		return item, nil
	}
	return nil, nil
}

// ListItems returns items matching the filter, ordered by ID.
// Model name and type match as case-insensitive substrings; batch is exact.
func ListItems(ctx context.Context, db *sql.DB, f model.ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any

	if f.ModelName != "" {
		query += ` AND model_name LIKE ? ESCAPE '\'`
		args = append(args, containsPattern(f.ModelName))
	}
	if f.ItemType != "" {
		query += ` AND item_type LIKE ? ESCAPE '\'`
		args = append(args, containsPattern(f.ItemType))
	}
	if f.Batch != "" {
		query += ` AND batch = ?`
		args = append(args, f.Batch)
	}

	skip, limit := page(f.Skip, f.Limit)
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, skip)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// SearchItems finds items whose model name, type, batch, supplier or
// contractor contains term.
func SearchItems(ctx context.Context, db *sql.DB, term string) ([]model.Item, error) {
	pattern := containsPattern(term)
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE model_name LIKE ? ESCAPE '\'
		    OR item_type LIKE ? ESCAPE '\'
		    OR batch LIKE ? ESCAPE '\'
		    OR supplier LIKE ? ESCAPE '\'
		    OR contractor LIKE ? ESCAPE '\'
		 ORDER BY id LIMIT ?`,
		pattern, pattern, pattern, pattern, pattern, MaxLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// UpdateItem overwrites an item's fields.
func UpdateItem(ctx context.Context, db *sql.DB, id model.ID, item model.Item) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET model_name = ?, item_type = ?, batch = ?, production_date = ?, wattage = ?,
		        supplier = ?, contractor = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		item.ModelName, item.ItemType, item.Batch, item.ProductionDate.UTC(), item.Wattage,
		item.Supplier, item.Contractor, item.Notes, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return requireAffected(result)
}

// DeleteItem removes an item. Claims keep their reference to it.
func DeleteItem(ctx context.Context, db *sql.DB, id model.ID) error {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return requireAffected(result)
}

func scanItem(s rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var production any
	var contractor, notes sql.NullString
	if err := s.Scan(&item.ID, &item.ModelName, &item.ItemType, &item.Batch, &production,
		&item.Wattage, &item.Supplier, &contractor, &notes, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}

	prod, err := model.ParseTimestamp(production)
	if err != nil {
		return nil, fmt.Errorf("item %d production date: %w", item.ID, err)
	}
	item.ProductionDate = prod
	item.Contractor = contractor.String
	item.Notes = notes.String
	return item, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
