package model

import "time"

// Field limits for claims.
const (
	MaxLineNotes  = 200
	MaxClaimNotes = 500
)

// ClaimStatus is the position of a claim in its workflow.
type ClaimStatus string

// Claim statuses, in workflow order.
const (
	StatusCreated     ClaimStatus = "created"
	StatusVerified    ClaimStatus = "verified"
	StatusBiltyLogged ClaimStatus = "bilty_logged"
	StatusApproved    ClaimStatus = "approved"
)

// ClaimAction names a status-changing operation on a claim.
type ClaimAction string

// Claim actions.
const (
	ActionVerify   ClaimAction = "verify"
	ActionLogBilty ClaimAction = "log_bilty"
	ActionApprove  ClaimAction = "approve"
)

type claimTransition struct {
	from, to ClaimStatus
}

var claimTransitions = map[ClaimAction]claimTransition{
	ActionVerify:   {from: StatusCreated, to: StatusVerified},
	ActionLogBilty: {from: StatusVerified, to: StatusBiltyLogged},
	ActionApprove:  {from: StatusBiltyLogged, to: StatusApproved},
}

// Transition returns the status an action must start from and the status
// it leads to. The workflow is linear; no action skips a state.
func Transition(action ClaimAction) (from, to ClaimStatus, ok bool) {
	t, ok := claimTransitions[action]
	return t.from, t.to, ok
}

// Valid reports whether s is a known status.
func (s ClaimStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusVerified, StatusBiltyLogged, StatusApproved:
		return true
	}
	return false
}

// Verified reports whether the claim has passed factory verification.
func (s ClaimStatus) Verified() bool {
	return s.Valid() && s != StatusCreated
}

// Editable reports whether lines and notes may still be changed.
func (s ClaimStatus) Editable() bool {
	return s == StatusCreated
}

// Deletable reports whether the claim may be removed.
func (s ClaimStatus) Deletable() bool {
	return s != StatusApproved
}

// ClaimLine is one item-and-quantity entry of a claim.
type ClaimLine struct {
	ItemID   ID     `json:"item_id"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
	ForceAdd bool   `json:"force_add"`
}

// Claim is a request for compensation of defective items, filed by a rep
// for a merchant.
type Claim struct {
	ID            ID          `json:"id"`
	ClaimID       string      `json:"claim_id"`
	RepID         ID          `json:"rep_id"`
	MerchantID    ID          `json:"merchant_id"`
	Date          time.Time   `json:"date"`
	Items         []ClaimLine `json:"items"`
	Status        ClaimStatus `json:"status"`
	Verified      bool        `json:"verified"`
	VerifiedBy    *ID         `json:"verified_by,omitempty"`
	VerifiedAt    *time.Time  `json:"verified_at,omitempty"`
	BiltyNumber   string      `json:"bilty_number,omitempty"`
	BiltyAt       *time.Time  `json:"bilty_logged_at,omitempty"`
	ApprovedBy    *ID         `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time  `json:"approved_at,omitempty"`
	ApprovalNotes string      `json:"approval_notes,omitempty"`
	Notes         string      `json:"notes"`
	PhotoMime     string      `json:"photo_mime,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ClaimFilter narrows claim listings. Zero values are ignored.
type ClaimFilter struct {
	RepID      ID
	MerchantID ID
	Verified   *bool
	Status     ClaimStatus
	Skip       int
	Limit      int
}

// ClaimChange is the set of columns a status transition writes.
// Nil fields are left untouched.
type ClaimChange struct {
	Status        ClaimStatus
	VerifiedBy    *ID
	VerifiedAt    *time.Time
	Notes         *string
	BiltyNumber   *string
	BiltyAt       *time.Time
	ApprovedBy    *ID
	ApprovedAt    *time.Time
	ApprovalNotes *string
	UpdatedAt     time.Time
}

// Warning describes a claim line that failed the freshness check.
type Warning struct {
	LineIndex      int    `json:"line_index"`
	ItemID         ID     `json:"item_id"`
	ModelName      string `json:"model_name"`
	Batch          string `json:"batch"`
	ProductionDate string `json:"production_date"`
	AgeMonths      int    `json:"age_months"`
	Message        string `json:"message"`
}
