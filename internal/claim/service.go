package claim

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/erazemk/factorclaim/internal/clock"
	"github.com/erazemk/factorclaim/internal/metrics"
	"github.com/erazemk/factorclaim/internal/model"
	"github.com/erazemk/factorclaim/internal/store"
)

// DefaultMaxAttempts bounds how often creation re-mints an id after a
// claim_id collision.
const DefaultMaxAttempts = 3

// Service owns the claim lifecycle: creation with eligibility checks and
// id minting, edits, status transitions and deletion. Callers authorise
// the acting role before calling in.
type Service struct {
	db          *sql.DB
	seq         Sequencer
	clock       clock.Clock
	metrics     *metrics.Metrics
	maxAttempts int
}

type Option func(*Service)

func WithSequencer(seq Sequencer) Option {
	return func(s *Service) { s.seq = seq }
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func NewService(db *sql.DB, opts ...Option) *Service {
	s := &Service{
		db:          db,
		seq:         StoreSequencer{DB: db},
		clock:       clock.System{},
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// NewClaim is a claim submission.
type NewClaim struct {
	RepID      model.ID
	MerchantID model.ID
	Date       time.Time // zero means now
	Items      []model.ClaimLine
	Notes      string
}

// ClaimUpdate edits a claim still in status created. Nil fields are kept.
type ClaimUpdate struct {
	Items []model.ClaimLine
	Notes *string
}

// Create validates a submission, mints its claim id and stores it. A
// rejected submission writes nothing and consumes no sequence number.
func (s *Service) Create(ctx context.Context, in NewClaim) (*model.Claim, error) {
	now := s.clock.Now()

	if err := validateLines(in.Items); err != nil {
		return nil, s.reject(err)
	}
	if in.RepID <= 0 || in.MerchantID <= 0 {
		return nil, s.reject(invalidInput("rep_id and merchant_id are required"))
	}
	if err := validateNotes(in.Notes); err != nil {
		return nil, s.reject(err)
	}

	warnings, err := Validate(ctx, s.db, in.Items, now)
	if err != nil {
		return nil, fmt.Errorf("validating claim items: %w", err)
	}
	if len(warnings) > 0 {
		return nil, s.reject(tooOld(warnings))
	}

	if err := s.requireParties(ctx, in.RepID, in.MerchantID); err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = now
	}
	c := model.Claim{
		RepID:      in.RepID,
		MerchantID: in.MerchantID,
		Date:       date.UTC(),
		Items:      in.Items,
		Notes:      in.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		c.ClaimID, err = s.seq.Next(ctx, now)
		if err != nil {
			return nil, fmt.Errorf("minting claim id: %w", err)
		}

		created, err := store.CreateClaim(ctx, s.db, c)
		if errors.Is(err, store.ErrDuplicateClaimID) {
			s.metrics.ClaimIDConflict()
			slog.Warn("claim id collision, retrying", "claim_id", c.ClaimID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.metrics.ClaimCreated()
		return created, nil
	}
	return nil, ErrConflict
}

func (s *Service) Get(ctx context.Context, id model.ID) (*model.Claim, error) {
	c, err := store.GetClaim(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrClaimNotFound
	}
	return c, nil
}

func (s *Service) GetByClaimID(ctx context.Context, claimID string) (*model.Claim, error) {
	c, err := store.GetClaimByClaimID(ctx, s.db, claimID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrClaimNotFound
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, f model.ClaimFilter) ([]model.Claim, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalidInput("unknown status %q", f.Status)
	}
	claims, err := store.ListClaims(ctx, s.db, f)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		claims = []model.Claim{}
	}
	return claims, nil
}

// Update replaces lines and/or notes of a claim that has not been
// verified yet. Replacement lines go through the same checks as creation.
func (s *Service) Update(ctx context.Context, id model.ID, in ClaimUpdate) (*model.Claim, error) {
	now := s.clock.Now()

	if in.Items != nil {
		if err := validateLines(in.Items); err != nil {
			return nil, err
		}
	}
	if in.Notes != nil {
		if err := validateNotes(*in.Notes); err != nil {
			return nil, err
		}
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.Editable() {
		return nil, &TransitionError{ClaimID: current.ClaimID, Action: "update", Status: current.Status}
	}

	if in.Items != nil {
		warnings, err := Validate(ctx, s.db, in.Items, now)
		if err != nil {
			return nil, fmt.Errorf("validating claim items: %w", err)
		}
		if len(warnings) > 0 {
			return nil, tooOld(warnings)
		}
	}

	ok, err := store.UpdateClaimContent(ctx, s.db, id, model.StatusCreated, in.Items, in.Notes, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.staleError(ctx, id, "update")
	}
	return s.Get(ctx, id)
}

// Verify moves a created claim to verified, recording who verified it.
// Non-nil notes replace the claim's notes.
func (s *Service) Verify(ctx context.Context, id, verifier model.ID, notes *string) (*model.Claim, error) {
	if notes != nil {
		if err := validateNotes(*notes); err != nil {
			return nil, err
		}
	}
	return s.transition(ctx, id, model.ActionVerify, func(now time.Time, ch *model.ClaimChange) {
		ch.VerifiedBy = &verifier
		ch.VerifiedAt = &now
		ch.Notes = notes
	})
}

// LogBilty records the shipment number of a verified claim.
func (s *Service) LogBilty(ctx context.Context, id model.ID, biltyNumber string) (*model.Claim, error) {
	biltyNumber = strings.TrimSpace(biltyNumber)
	if biltyNumber == "" {
		return nil, invalidInput("bilty_number is required")
	}
	if utf8.RuneCountInString(biltyNumber) > 100 {
		return nil, invalidInput("bilty_number must be at most 100 characters")
	}
	return s.transition(ctx, id, model.ActionLogBilty, func(now time.Time, ch *model.ClaimChange) {
		ch.BiltyNumber = &biltyNumber
		ch.BiltyAt = &now
	})
}

// Approve marks a claim whose bilty has been logged as approved.
func (s *Service) Approve(ctx context.Context, id, approver model.ID, notes string) (*model.Claim, error) {
	if err := validateNotes(notes); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, model.ActionApprove, func(now time.Time, ch *model.ClaimChange) {
		ch.ApprovedBy = &approver
		ch.ApprovedAt = &now
		ch.ApprovalNotes = &notes
	})
}

// Delete removes a claim that has not been approved.
func (s *Service) Delete(ctx context.Context, id model.ID) error {
	ok, err := store.DeleteClaim(ctx, s.db, id, deletableStatuses()...)
	if err != nil {
		return err
	}
	if !ok {
		return s.staleError(ctx, id, "delete")
	}
	return nil
}

// SetPhoto attaches a (normalised) photo to a claim.
func (s *Service) SetPhoto(ctx context.Context, id model.ID, photo []byte, mime string) error {
	err := store.SetClaimPhoto(ctx, s.db, id, photo, mime, s.clock.Now())
	if errors.Is(err, store.ErrNotFound) {
		return ErrClaimNotFound
	}
	return err
}

// Photo returns a claim's photo and its MIME type.
func (s *Service) Photo(ctx context.Context, id model.ID) ([]byte, string, error) {
	photo, mime, err := store.GetClaimPhoto(ctx, s.db, id)
	if err != nil {
		return nil, "", err
	}
	if photo == nil {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, "", err
		}
		return nil, "", ErrPhotoNotFound
	}
	return photo, mime, nil
}

// transition applies action as a compare-and-set on the claim's status.
func (s *Service) transition(ctx context.Context, id model.ID, action model.ClaimAction, fill func(time.Time, *model.ClaimChange)) (*model.Claim, error) {
	from, to, ok := model.Transition(action)
	if !ok {
		return nil, fmt.Errorf("unknown claim action %q", action)
	}

	now := s.clock.Now()
	ch := model.ClaimChange{Status: to, UpdatedAt: now}
	fill(now, &ch)

	applied, err := store.ApplyClaimChange(ctx, s.db, id, from, ch)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, s.staleError(ctx, id, string(action))
	}

	s.metrics.ClaimTransition(string(action))
	return s.Get(ctx, id)
}

// staleError explains why a guarded write matched no row: either the
// claim is gone or it is in a status the action does not accept.
func (s *Service) staleError(ctx context.Context, id model.ID, action string) error {
	c, err := store.GetClaim(ctx, s.db, id)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrClaimNotFound
	}
	return &TransitionError{ClaimID: c.ClaimID, Action: action, Status: c.Status}
}

func (s *Service) requireParties(ctx context.Context, repID, merchantID model.ID) error {
	rep, err := store.GetRep(ctx, s.db, repID)
	if err != nil {
		return err
	}
	if rep == nil {
		return ErrRepNotFound
	}
	merchant, err := store.GetMerchant(ctx, s.db, merchantID)
	if err != nil {
		return err
	}
	if merchant == nil {
		return ErrMerchantNotFound
	}
	return nil
}

func (s *Service) reject(err *ValidationError) error {
	s.metrics.ClaimRejected(err.Reason)
	return err
}

func tooOld(warnings []model.Warning) *ValidationError {
	return &ValidationError{
		Reason:   ReasonItemsTooOld,
		Message:  fmt.Sprintf("%d item(s) older than %d months require force_add", len(warnings), FreshnessMonths),
		Warnings: warnings,
	}
}

func validateLines(lines []model.ClaimLine) *ValidationError {
	if len(lines) == 0 {
		return invalidInput("a claim needs at least one item")
	}
	for i, line := range lines {
		if line.ItemID <= 0 {
			return invalidInput("items[%d]: item_id is required", i)
		}
		if line.Quantity <= 0 {
			return invalidInput("items[%d]: quantity must be greater than 0", i)
		}
		if utf8.RuneCountInString(line.Notes) > model.MaxLineNotes {
			return invalidInput("items[%d]: notes must be at most %d characters", i, model.MaxLineNotes)
		}
	}
	return nil
}

func validateNotes(notes string) *ValidationError {
	if utf8.RuneCountInString(notes) > model.MaxClaimNotes {
		return invalidInput("notes must be at most %d characters", model.MaxClaimNotes)
	}
	return nil
}

func deletableStatuses() []model.ClaimStatus {
	var out []model.ClaimStatus
	for _, st := range []model.ClaimStatus{
		model.StatusCreated, model.StatusVerified, model.StatusBiltyLogged, model.StatusApproved,
	} {
		if st.Deletable() {
			out = append(out, st)
		}
	}
	return out
}
