package events

import (
	"fmt"
	"math/big"
	"strconv"

	"stellarguard/crypto"
)

const (
	// TypeGovInitialized is emitted once when the governance contract is set up.
	TypeGovInitialized = "gov.init"
	// TypeGovProposed is emitted when a new proposal enters the book.
	TypeGovProposed = "gov.propose"
	// TypeGovVoteCast is emitted when a member records a ballot.
	TypeGovVoteCast = "gov.vote"
	// TypeGovFinalized is emitted when a proposal outcome is determined.
	TypeGovFinalized = "gov.finalize"
	// TypeGovExecuted is emitted when a passed proposal's action is applied.
	TypeGovExecuted = "gov.exec"
	// TypeGovAdminTransferred is emitted when the admin slot changes hands.
	TypeGovAdminTransferred = "gov.admin"
	// TypeGovQuorumUpdated is emitted when the quorum percentage changes.
	TypeGovQuorumUpdated = "gov.quorum"
)

func amountString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

// GovInitialized captures the one-time contract setup.
type GovInitialized struct {
	Admin         crypto.Address
	MemberCount   uint32
	QuorumPercent uint32
}

func (GovInitialized) EventType() string { return TypeGovInitialized }

func (e GovInitialized) Attributes() map[string]string {
	return map[string]string{
		"admin":       e.Admin.String(),
		"memberCount": fmt.Sprintf("%d", e.MemberCount),
		"quorum":      fmt.Sprintf("%d", e.QuorumPercent),
	}
}

// GovProposed captures a newly admitted proposal.
type GovProposed struct {
	ID       uint64
	Proposer crypto.Address
	EndsAt   uint64
	Target   crypto.Address
	Amount   *big.Int
}

func (GovProposed) EventType() string { return TypeGovProposed }

func (e GovProposed) Attributes() map[string]string {
	return map[string]string{
		"id":       strconv.FormatUint(e.ID, 10),
		"proposer": e.Proposer.String(),
		"endsAt":   strconv.FormatUint(e.EndsAt, 10),
		"target":   e.Target.String(),
		"amount":   amountString(e.Amount),
	}
}

// GovVoteCast captures a recorded ballot.
type GovVoteCast struct {
	ID      uint64
	Voter   crypto.Address
	VoteFor bool
}

func (GovVoteCast) EventType() string { return TypeGovVoteCast }

func (e GovVoteCast) Attributes() map[string]string {
	return map[string]string{
		"id":      strconv.FormatUint(e.ID, 10),
		"voter":   e.Voter.String(),
		"voteFor": strconv.FormatBool(e.VoteFor),
	}
}

// GovFinalized captures a proposal outcome.
type GovFinalized struct {
	ID     uint64
	Status string
}

func (GovFinalized) EventType() string { return TypeGovFinalized }

func (e GovFinalized) Attributes() map[string]string {
	return map[string]string{
		"id":     strconv.FormatUint(e.ID, 10),
		"status": e.Status,
	}
}

// GovExecuted captures the application of a passed proposal.
type GovExecuted struct {
	ID       uint64
	Executor crypto.Address
}

func (GovExecuted) EventType() string { return TypeGovExecuted }

func (e GovExecuted) Attributes() map[string]string {
	return map[string]string{
		"id":       strconv.FormatUint(e.ID, 10),
		"executor": e.Executor.String(),
	}
}

// GovAdminTransferred captures an admin handover.
type GovAdminTransferred struct {
	OldAdmin crypto.Address
	NewAdmin crypto.Address
}

func (GovAdminTransferred) EventType() string { return TypeGovAdminTransferred }

func (e GovAdminTransferred) Attributes() map[string]string {
	return map[string]string{
		"old": e.OldAdmin.String(),
		"new": e.NewAdmin.String(),
	}
}

// GovQuorumUpdated captures a quorum change.
type GovQuorumUpdated struct {
	QuorumPercent uint32
}

func (GovQuorumUpdated) EventType() string { return TypeGovQuorumUpdated }

func (e GovQuorumUpdated) Attributes() map[string]string {
	return map[string]string{
		"quorum": fmt.Sprintf("%d", e.QuorumPercent),
	}
}
