package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/factorclaim/internal/model"
)

const claimColumns = `id, claim_id, rep_id, merchant_id, date, status, verified_by, verified_at,
	bilty_number, bilty_at, approved_by, approved_at, approval_notes, notes, photo_mime,
	created_at, updated_at`

// CreateClaim inserts a claim in status created together with its lines in
// a single transaction. A clash on claim_id returns ErrDuplicateClaimID and
// leaves nothing behind.
func CreateClaim(ctx context.Context, db *sql.DB, c model.Claim) (*model.Claim, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO claims (claim_id, rep_id, merchant_id, date, status, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ClaimID, c.RepID, c.MerchantID, c.Date.UTC(), model.StatusCreated, c.Notes,
		c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if isUniqueViolation(err, "claim_id") {
		return nil, ErrDuplicateClaimID
	}
	if err != nil {
		return nil, fmt.Errorf("creating claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting claim id: %w", err)
	}

	if err := insertClaimLines(ctx, tx, model.ID(id), c.Items); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}

	return GetClaim(ctx, db, model.ID(id))
}

// GetClaim returns a claim with its lines, or nil if it does not exist.
func GetClaim(ctx context.Context, db *sql.DB, id model.ID) (*model.Claim, error) {
	return getClaimWhere(ctx, db, `id = ?`, id)
}

// GetClaimByClaimID returns a claim by its human-readable identifier.
func GetClaimByClaimID(ctx context.Context, db *sql.DB, claimID string) (*model.Claim, error) {
	return getClaimWhere(ctx, db, `claim_id = ?`, strings.TrimSpace(claimID))
}

func getClaimWhere(ctx context.Context, db *sql.DB, cond string, arg any) (*model.Claim, error) {
	c, err := scanClaim(db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE `+cond, arg,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}

	claims := []model.Claim{*c}
	if err := attachClaimLines(ctx, db, claims); err != nil {
		return nil, err
	}
	return &claims[0], nil
}

// ListClaims returns claims matching the filter, newest first.
func ListClaims(ctx context.Context, db *sql.DB, f model.ClaimFilter) ([]model.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE 1=1`
	var args []any

	if f.RepID != 0 {
		query += ` AND rep_id = ?`
		args = append(args, f.RepID)
	}
	if f.MerchantID != 0 {
		query += ` AND merchant_id = ?`
		args = append(args, f.MerchantID)
	}
	if f.Verified != nil {
		if *f.Verified {
			query += ` AND status <> ?`
		} else {
			query += ` AND status = ?`
		}
		args = append(args, model.StatusCreated)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}

	skip, limit := page(f.Skip, f.Limit)
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, skip)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}

	var claims []model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, *c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	// Release the connection before loading lines.
	rows.Close()

	if err := attachClaimLines(ctx, db, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// LatestClaimID returns the highest claim_id made of prefix and a numeric
// suffix, or "" if there is none. Longer suffixes sort above shorter ones
// so the order stays numeric past four digits.
func LatestClaimID(ctx context.Context, db *sql.DB, prefix string) (string, error) {
	var claimID string
	err := db.QueryRowContext(ctx,
		`SELECT claim_id FROM claims
		 WHERE claim_id LIKE ? ESCAPE '\'
		   AND length(claim_id) > ?
		   AND substr(claim_id, ?) NOT GLOB '*[^0-9]*'
		 ORDER BY length(claim_id) DESC, claim_id DESC LIMIT 1`,
		prefixPattern(prefix), len(prefix), len(prefix)+1,
	).Scan(&claimID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting latest claim id: %w", err)
	}
	return claimID, nil
}

// ApplyClaimChange writes a status transition if the claim is still in
// status from. It reports whether a row was changed.
func ApplyClaimChange(ctx context.Context, db *sql.DB, id model.ID, from model.ClaimStatus, ch model.ClaimChange) (bool, error) {
	sets := []string{"status = ?", "updated_at = ?"}
	args := []any{ch.Status, ch.UpdatedAt.UTC()}

	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if ch.VerifiedBy != nil {
		set("verified_by", *ch.VerifiedBy)
	}
	if ch.VerifiedAt != nil {
		set("verified_at", ch.VerifiedAt.UTC())
	}
	if ch.Notes != nil {
		set("notes", *ch.Notes)
	}
	if ch.BiltyNumber != nil {
		set("bilty_number", *ch.BiltyNumber)
	}
	if ch.BiltyAt != nil {
		set("bilty_at", ch.BiltyAt.UTC())
	}
	if ch.ApprovedBy != nil {
		set("approved_by", *ch.ApprovedBy)
	}
	if ch.ApprovedAt != nil {
		set("approved_at", ch.ApprovedAt.UTC())
	}
	if ch.ApprovalNotes != nil {
		set("approval_notes", *ch.ApprovalNotes)
	}
	args = append(args, id, from)

	result, err := db.ExecContext(ctx,
		`UPDATE claims SET `+strings.Join(sets, ", ")+` WHERE id = ? AND status = ?`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("updating claim status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking affected rows: %w", err)
	}
	return n > 0, nil
}

// UpdateClaimContent replaces a claim's lines (when lines is non-nil) and
// notes (when notes is non-nil), provided the claim is still in status
// expect. It reports whether the claim was changed.
func UpdateClaimContent(ctx context.Context, db *sql.DB, id model.ID, expect model.ClaimStatus, lines []model.ClaimLine, notes *string, at time.Time) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE claims SET updated_at = ?`
	args := []any{at.UTC()}
	if notes != nil {
		query += `, notes = ?`
		args = append(args, *notes)
	}
	query += ` WHERE id = ? AND status = ?`
	args = append(args, id, expect)

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("updating claim: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if lines != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM claim_lines WHERE claim_id = ?`, id); err != nil {
			return false, fmt.Errorf("clearing claim lines: %w", err)
		}
		if err := insertClaimLines(ctx, tx, id, lines); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing claim update: %w", err)
	}
	return true, nil
}

// DeleteClaim removes a claim and its lines if its status is one of
// allowed (any status when allowed is empty). It reports whether a claim
// was removed.
func DeleteClaim(ctx context.Context, db *sql.DB, id model.ID, allowed ...model.ClaimStatus) (bool, error) {
	query := `DELETE FROM claims WHERE id = ?`
	args := []any{id}
	if len(allowed) > 0 {
		query += ` AND status IN (` + placeholders(len(allowed)) + `)`
		for _, s := range allowed {
			args = append(args, s)
		}
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("deleting claim: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking affected rows: %w", err)
	}
	return n > 0, nil
}

// SetClaimPhoto stores the photo attached to a claim.
func SetClaimPhoto(ctx context.Context, db *sql.DB, id model.ID, photo []byte, mime string, at time.Time) error {
	result, err := db.ExecContext(ctx,
		`UPDATE claims SET photo = ?, photo_mime = ?, updated_at = ? WHERE id = ?`,
		photo, mime, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting claim photo: %w", err)
	}
	return requireAffected(result)
}

// GetClaimPhoto returns a claim's photo. Data is nil if the claim has none.
func GetClaimPhoto(ctx context.Context, db *sql.DB, id model.ID) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM claims WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting claim photo: %w", err)
	}
	return photo, mime.String, nil
}

func insertClaimLines(ctx context.Context, tx *sql.Tx, claimID model.ID, lines []model.ClaimLine) error {
	for i, line := range lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO claim_lines (claim_id, position, item_id, quantity, notes, force_add)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			claimID, i, line.ItemID, line.Quantity, line.Notes, line.ForceAdd,
		)
		if err != nil {
			return fmt.Errorf("adding claim line %d: %w", i, err)
		}
	}
	return nil
}

// attachClaimLines loads the lines of all given claims in one query.
func attachClaimLines(ctx context.Context, db *sql.DB, claims []model.Claim) error {
	if len(claims) == 0 {
		return nil
	}

	index := make(map[model.ID]int, len(claims))
	args := make([]any, len(claims))
	for i := range claims {
		index[claims[i].ID] = i
		args[i] = claims[i].ID
		claims[i].Items = []model.ClaimLine{}
	}

	rows, err := db.QueryContext(ctx,
		`SELECT claim_id, item_id, quantity, notes, force_add FROM claim_lines
		 WHERE claim_id IN (`+placeholders(len(args))+`) ORDER BY claim_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("loading claim lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var claimID model.ID
		var line model.ClaimLine
		var notes sql.NullString
		if err := rows.Scan(&claimID, &line.ItemID, &line.Quantity, &notes, &line.ForceAdd); err != nil {
			return fmt.Errorf("scanning claim line: %w", err)
		}
		line.Notes = notes.String
		i := index[claimID]
		claims[i].Items = append(claims[i].Items, line)
	}
	return rows.Err()
}

func scanClaim(s rowScanner) (*model.Claim, error) {
	c := &model.Claim{}
	var verifiedBy, approvedBy sql.NullInt64
	var bilty, approvalNotes, notes, photoMime sql.NullString
	if err := s.Scan(&c.ID, &c.ClaimID, &c.RepID, &c.MerchantID, &c.Date, &c.Status,
		&verifiedBy, &c.VerifiedAt, &bilty, &c.BiltyAt, &approvedBy, &c.ApprovedAt,
		&approvalNotes, &notes, &photoMime, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	c.VerifiedBy = nullID(verifiedBy)
	c.ApprovedBy = nullID(approvedBy)
	c.BiltyNumber = bilty.String
	c.ApprovalNotes = approvalNotes.String
	c.Notes = notes.String
	c.PhotoMime = photoMime.String
	c.Verified = c.Status.Verified()
	return c, nil
}

func nullID(n sql.NullInt64) *model.ID {
	if !n.Valid {
		return nil
	}
	id := model.ID(n.Int64)
	return &id
}
