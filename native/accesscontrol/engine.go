package accesscontrol

import (
	"stellarguard/core/events"
	"stellarguard/crypto"
	"stellarguard/host"
	"stellarguard/native/common"
)

// Engine implements the access-control contract: a role hierarchy with
// per-transition authority rules, ownership transfer, and privilege queries.
// Every entry point follows the gated-operation ordering
// initialized -> membership -> require_auth -> business validation, and
// performs no write before its last validation so a failed call leaves no
// partial state behind.
type Engine struct {
	env *host.Env
}

// NewEngine binds the contract logic to its host environment.
func NewEngine(env *host.Env) *Engine {
	return &Engine{env: env}
}

// Initialize sets up the contract with its first and only owner. It can
// succeed at most once.
func (e *Engine) Initialize(owner crypto.Address) error {
	initialized, err := e.initialized()
	if err != nil {
		return err
	}
	if initialized {
		return ErrAlreadyInitialized
	}
	if err := e.env.RequireAuth(owner); err != nil {
		return ErrUnauthorized
	}

	if err := e.env.Instance().Set(ownerKey(), owner); err != nil {
		return err
	}
	if err := e.putAssignment(Assignment{
		Address:    owner,
		Role:       RoleOwner,
		AssignedAt: e.env.Ledger().Timestamp(),
		AssignedBy: owner,
	}); err != nil {
		return err
	}
	if err := e.setRoleCount(RoleOwner, 1); err != nil {
		return err
	}
	if err := e.putMembers([]crypto.Address{owner}); err != nil {
		return err
	}

	e.env.Emit(events.ACLInitialized{Owner: owner})
	return nil
}

// AssignRole grants target the given role, replacing any prior assignment.
// Owner and Admin grants require an Owner assignor; Member and Viewer grants
// require Admin or above. The Owner role itself is never assignable through
// this entry point, which keeps the owner cardinality at one.
func (e *Engine) AssignRole(assignor, target crypto.Address, role Role) error {
	initialized, err := e.initialized()
	if err != nil {
		return err
	}
	if !initialized {
		return ErrNotInitialized
	}
	assignorRole, ok, err := e.assignment(assignor)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRoleNotFound
	}
	if err := e.env.RequireAuth(assignor); err != nil {
		return ErrUnauthorized
	}
	if !role.Valid() || role == RoleOwner {
		return ErrInvalidRole
	}
	switch role {
	case RoleAdmin:
		if assignorRole.Role != RoleOwner {
			return ErrInsufficientPrivilege
		}
	default:
		if !assignorRole.Role.AtLeast(RoleAdmin) {
			return ErrInsufficientPrivilege
		}
	}

	prior, hadPrior, err := e.assignment(target)
	if err != nil {
		return err
	}
	if hadPrior && prior.Role == RoleOwner {
		return ErrCannotRemoveOwner
	}
	if hadPrior {
		if err := e.adjustRoleCount(prior.Role, -1); err != nil {
			return err
		}
	} else {
		members, err := e.members()
		if err != nil {
			return err
		}
		members, _ = common.AppendAddress(members, target)
		if err := e.putMembers(members); err != nil {
			return err
		}
	}
	if err := e.adjustRoleCount(role, 1); err != nil {
		return err
	}
	if err := e.putAssignment(Assignment{
		Address:    target,
		Role:       role,
		AssignedAt: e.env.Ledger().Timestamp(),
		AssignedBy: assignor,
	}); err != nil {
		return err
	}

	e.env.Emit(events.ACLRoleAssigned{Target: target, Role: uint32(role), Assignor: assignor})
	return nil
}

// RevokeRole removes target's assignment. Admin targets require an Owner
// revoker; the owner itself can never be revoked.
func (e *Engine) RevokeRole(revoker, target crypto.Address) error {
	initialized, err := e.initialized()
	if err != nil {
		return err
	}
	if !initialized {
		return ErrNotInitialized
	}
	revokerRole, ok, err := e.assignment(revoker)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRoleNotFound
	}
	if err := e.env.RequireAuth(revoker); err != nil {
		return ErrUnauthorized
	}
	if !revokerRole.Role.AtLeast(RoleAdmin) {
		return ErrInsufficientPrivilege
	}
	targetRole, ok, err := e.assignment(target)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRoleNotFound
	}
	if targetRole.Role == RoleOwner {
		return ErrCannotRemoveOwner
	}
	if targetRole.Role == RoleAdmin && revokerRole.Role != RoleOwner {
		return ErrInsufficientPrivilege
	}

	if err := e.env.Persistent().Remove(assignmentKey(target)); err != nil {
		return err
	}
	if err := e.adjustRoleCount(targetRole.Role, -1); err != nil {
		return err
	}
	members, err := e.members()
	if err != nil {
		return err
	}
	members, _ = common.RemoveAddress(members, target)
	if err := e.putMembers(members); err != nil {
		return err
	}

	e.env.Emit(events.ACLRoleRevoked{Target: target, Revoker: revoker})
	return nil
}

// TransferOwnership moves the owner slot from current to newOwner. The
// outgoing owner is demoted to Admin; the owner-role cardinality stays at
// one throughout.
func (e *Engine) TransferOwnership(current, newOwner crypto.Address) error {
	initialized, err := e.initialized()
	if err != nil {
		return err
	}
	if !initialized {
		return ErrNotInitialized
	}
	owner, err := e.owner()
	if err != nil {
		return err
	}
	if current != owner {
		return ErrUnauthorized
	}
	if err := e.env.RequireAuth(current); err != nil {
		return ErrUnauthorized
	}
	if newOwner == current {
		// Handing the slot to the reigning owner changes nothing; the event
		// still records the attempt.
		e.env.Emit(events.ACLOwnershipTransferred{OldOwner: current, NewOwner: newOwner})
		return nil
	}

	prior, hadPrior, err := e.assignment(newOwner)
	if err != nil {
		return err
	}
	now := e.env.Ledger().Timestamp()
	if err := e.env.Instance().Set(ownerKey(), newOwner); err != nil {
		return err
	}
	if err := e.putAssignment(Assignment{
		Address:    newOwner,
		Role:       RoleOwner,
		AssignedAt: now,
		AssignedBy: current,
	}); err != nil {
		return err
	}
	if err := e.putAssignment(Assignment{
		Address:    current,
		Role:       RoleAdmin,
		AssignedAt: now,
		AssignedBy: newOwner,
	}); err != nil {
		return err
	}
	// The owner count stays at one: the outgoing owner's slot is replaced by
	// the incoming one. Only the demotion and any prior role of the new
	// owner adjust the counters.
	if err := e.adjustRoleCount(RoleAdmin, 1); err != nil {
		return err
	}
	if hadPrior {
		if err := e.adjustRoleCount(prior.Role, -1); err != nil {
			return err
		}
	} else {
		members, err := e.members()
		if err != nil {
			return err
		}
		members, _ = common.AppendAddress(members, newOwner)
		if err := e.putMembers(members); err != nil {
			return err
		}
	}

	e.env.Emit(events.ACLOwnershipTransferred{OldOwner: current, NewOwner: newOwner})
	return nil
}

// HasPermission reports whether addr holds a role of at least the given
// tier. Unassigned addresses have no permissions.
func (e *Engine) HasPermission(addr crypto.Address, role Role) (bool, error) {
	assignment, ok, err := e.assignment(addr)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return assignment.Role.AtLeast(role), nil
}

// IsOwner reports whether addr holds the Owner role.
func (e *Engine) IsOwner(addr crypto.Address) (bool, error) {
	return e.HasPermission(addr, RoleOwner)
}

// IsAdminOrAbove reports whether addr holds Admin or Owner.
func (e *Engine) IsAdminOrAbove(addr crypto.Address) (bool, error) {
	return e.HasPermission(addr, RoleAdmin)
}

// IsMemberOrAbove reports whether addr holds Member, Admin, or Owner.
func (e *Engine) IsMemberOrAbove(addr crypto.Address) (bool, error) {
	return e.HasPermission(addr, RoleMember)
}

// Role returns addr's current role.
func (e *Engine) Role(addr crypto.Address) (Role, error) {
	initialized, err := e.initialized()
	if err != nil {
		return 0, err
	}
	if !initialized {
		return 0, ErrNotInitialized
	}
	assignment, ok, err := e.assignment(addr)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrRoleNotFound
	}
	return assignment.Role, nil
}

// AllMembers returns every address currently holding a role, in insertion
// order.
func (e *Engine) AllMembers() ([]crypto.Address, error) {
	initialized, err := e.initialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		return nil, ErrNotInitialized
	}
	return e.members()
}

// Summary returns the aggregated membership bookkeeping.
func (e *Engine) Summary() (*Summary, error) {
	initialized, err := e.initialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		return nil, ErrNotInitialized
	}
	owner, err := e.owner()
	if err != nil {
		return nil, err
	}
	members, err := e.members()
	if err != nil {
		return nil, err
	}
	summary := &Summary{Owner: owner, TotalMembers: uint32(len(members))}
	counts := []struct {
		role Role
		dst  *uint32
	}{
		{RoleOwner, &summary.OwnerCount},
		{RoleAdmin, &summary.AdminCount},
		{RoleMember, &summary.MemberCount},
		{RoleViewer, &summary.ViewerCount},
	}
	for _, c := range counts {
		count, err := e.roleCount(c.role)
		if err != nil {
			return nil, err
		}
		*c.dst = count
	}
	return summary, nil
}

// --- storage accessors ---

func (e *Engine) initialized() (bool, error) {
	return e.env.Instance().Has(ownerKey())
}

func (e *Engine) owner() (crypto.Address, error) {
	var owner crypto.Address
	ok, err := e.env.Instance().Get(ownerKey(), &owner)
	if err != nil {
		return crypto.Address{}, err
	}
	if !ok {
		return crypto.Address{}, ErrNotInitialized
	}
	return owner, nil
}

func (e *Engine) members() ([]crypto.Address, error) {
	var members []crypto.Address
	if _, err := e.env.Instance().Get(membersKey(), &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (e *Engine) putMembers(members []crypto.Address) error {
	return e.env.Instance().Set(membersKey(), members)
}

func (e *Engine) assignment(addr crypto.Address) (Assignment, bool, error) {
	var assignment Assignment
	ok, err := e.env.Persistent().Get(assignmentKey(addr), &assignment)
	if err != nil {
		return Assignment{}, false, err
	}
	return assignment, ok, nil
}

func (e *Engine) putAssignment(assignment Assignment) error {
	return e.env.Persistent().Set(assignmentKey(assignment.Address), assignment)
}

func (e *Engine) roleCount(role Role) (uint32, error) {
	var count uint32
	if _, err := e.env.Instance().Get(roleCountKey(role), &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (e *Engine) setRoleCount(role Role, count uint32) error {
	return e.env.Instance().Set(roleCountKey(role), count)
}

func (e *Engine) adjustRoleCount(role Role, delta int32) error {
	count, err := e.roleCount(role)
	if err != nil {
		return err
	}
	if delta < 0 {
		dec := uint32(-delta)
		if count < dec {
			count = 0
		} else {
			count -= dec
		}
		return e.setRoleCount(role, count)
	}
	updated, err := common.AddUint32(count, uint32(delta))
	if err != nil {
		return err
	}
	return e.setRoleCount(role, updated)
}
