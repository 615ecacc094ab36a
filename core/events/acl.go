package events

import (
	"fmt"

	"stellarguard/crypto"
)

const (
	// TypeACLInitialized is emitted once when the access-control contract is set up.
	TypeACLInitialized = "acl.init"
	// TypeACLRoleAssigned is emitted when an address receives or changes a role.
	TypeACLRoleAssigned = "acl.assign"
	// TypeACLRoleRevoked is emitted when an address loses its role.
	TypeACLRoleRevoked = "acl.revoke"
	// TypeACLOwnershipTransferred is emitted when the owner slot changes hands.
	TypeACLOwnershipTransferred = "acl.owner"
)

// ACLInitialized captures the one-time contract setup.
type ACLInitialized struct {
	Owner crypto.Address
}

func (ACLInitialized) EventType() string { return TypeACLInitialized }

func (e ACLInitialized) Attributes() map[string]string {
	return map[string]string{
		"owner": e.Owner.String(),
	}
}

// ACLRoleAssigned captures a role grant or replacement.
type ACLRoleAssigned struct {
	Target   crypto.Address
	Role     uint32
	Assignor crypto.Address
}

func (ACLRoleAssigned) EventType() string { return TypeACLRoleAssigned }

func (e ACLRoleAssigned) Attributes() map[string]string {
	return map[string]string{
		"target":   e.Target.String(),
		"role":     fmt.Sprintf("%d", e.Role),
		"assignor": e.Assignor.String(),
	}
}

// ACLRoleRevoked captures a role removal.
type ACLRoleRevoked struct {
	Target  crypto.Address
	Revoker crypto.Address
}

func (ACLRoleRevoked) EventType() string { return TypeACLRoleRevoked }

func (e ACLRoleRevoked) Attributes() map[string]string {
	return map[string]string{
		"target":  e.Target.String(),
		"revoker": e.Revoker.String(),
	}
}

// ACLOwnershipTransferred captures an owner slot handover.
type ACLOwnershipTransferred struct {
	OldOwner crypto.Address
	NewOwner crypto.Address
}

func (ACLOwnershipTransferred) EventType() string { return TypeACLOwnershipTransferred }

func (e ACLOwnershipTransferred) Attributes() map[string]string {
	return map[string]string{
		"old": e.OldOwner.String(),
		"new": e.NewOwner.String(),
	}
}
