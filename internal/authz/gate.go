package authz

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"

	"github.com/erazemk/factorclaim/internal/model"
)

//go:embed model.conf
var modelText string

// Objects.
const (
	ObjectClaim    = "claim"
	ObjectItem     = "item"
	ObjectMerchant = "merchant"
	ObjectRep      = "rep"
	ObjectUser     = "user"
)

// Actions.
const (
	ActionRead     = "read"
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionReview   = "review"
	ActionVerify   = "verify"
	ActionLogBilty = "log_bilty"
	ActionApprove  = "approve"
	ActionPhoto    = "photo"
)

var (
	ErrForbidden = errors.New("insufficient permissions")
)

var policies = [][]string{
	{model.RoleAdmin, "*", "*"},

	{model.RoleRep, ObjectClaim, ActionRead},
	{model.RoleRep, ObjectClaim, ActionCreate},
	{model.RoleRep, ObjectClaim, ActionUpdate},
	{model.RoleRep, ObjectClaim, ActionLogBilty},
	{model.RoleRep, ObjectClaim, ActionDelete},
	{model.RoleRep, ObjectClaim, ActionPhoto},
	{model.RoleRep, ObjectItem, ActionRead},
	{model.RoleRep, ObjectMerchant, ActionRead},
	{model.RoleRep, ObjectMerchant, ActionCreate},
	{model.RoleRep, ObjectMerchant, ActionUpdate},
	{model.RoleRep, ObjectMerchant, ActionDelete},
	{model.RoleRep, ObjectRep, ActionRead},

	{model.RoleFactory, ObjectClaim, ActionRead},
	{model.RoleFactory, ObjectClaim, ActionReview},
	{model.RoleFactory, ObjectClaim, ActionVerify},
	{model.RoleFactory, ObjectClaim, ActionApprove},
	{model.RoleFactory, ObjectItem, ActionRead},
	{model.RoleFactory, ObjectMerchant, ActionRead},
	{model.RoleFactory, ObjectRep, ActionRead},
}

// Gate decides which role may perform which action on which object.
type Gate struct {
	enforcer *casbin.SyncedEnforcer
}

// NewGate builds the gate from the embedded model and the built-in policy.
func NewGate() (*Gate, error) {
	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("loading authorization model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("creating enforcer: %w", err)
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("loading policies: %w", err)
	}
	return &Gate{enforcer: enforcer}, nil
}

// Authorize returns ErrForbidden unless role may perform act on obj.
func (g *Gate) Authorize(role, obj, act string) error {
	ok, err := g.enforcer.Enforce(role, obj, act)
	if err != nil {
		return fmt.Errorf("enforcing policy: %w", err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
