package events

import (
	"fmt"
	"math/big"
	"strconv"

	"stellarguard/crypto"
)

const (
	// TypeTreasuryInitialized is emitted once when the treasury contract is set up.
	TypeTreasuryInitialized = "treasury.init"
	// TypeTreasuryDeposited is emitted when funds are credited to the ledger.
	TypeTreasuryDeposited = "treasury.deposit"
	// TypeTreasuryProposed is emitted when a withdrawal enters the queue.
	TypeTreasuryProposed = "treasury.propose"
	// TypeTreasuryApproved is emitted when a signer approves a withdrawal.
	TypeTreasuryApproved = "treasury.approve"
	// TypeTreasuryExecuted is emitted when a withdrawal is paid out.
	TypeTreasuryExecuted = "treasury.execute"
	// TypeTreasurySignerAdded is emitted when the signer set grows.
	TypeTreasurySignerAdded = "treasury.add_sig"
	// TypeTreasurySignerRemoved is emitted when the signer set shrinks.
	TypeTreasurySignerRemoved = "treasury.rem_sig"
	// TypeTreasuryThresholdUpdated is emitted when the approval threshold changes.
	TypeTreasuryThresholdUpdated = "treasury.thresh"
	// TypeTreasuryAdminTransferred is emitted when the admin slot changes hands.
	TypeTreasuryAdminTransferred = "treasury.admin"
)

// TreasuryInitialized captures the one-time contract setup.
type TreasuryInitialized struct {
	Admin       crypto.Address
	Threshold   uint32
	SignerCount uint32
}

func (TreasuryInitialized) EventType() string { return TypeTreasuryInitialized }

func (e TreasuryInitialized) Attributes() map[string]string {
	return map[string]string{
		"admin":       e.Admin.String(),
		"threshold":   fmt.Sprintf("%d", e.Threshold),
		"signerCount": fmt.Sprintf("%d", e.SignerCount),
	}
}

// TreasuryDeposited captures a ledger credit.
type TreasuryDeposited struct {
	From       crypto.Address
	Amount     *big.Int
	NewBalance *big.Int
}

func (TreasuryDeposited) EventType() string { return TypeTreasuryDeposited }

func (e TreasuryDeposited) Attributes() map[string]string {
	return map[string]string{
		"from":       e.From.String(),
		"amount":     amountString(e.Amount),
		"newBalance": amountString(e.NewBalance),
	}
}

// TreasuryProposed captures a queued withdrawal.
type TreasuryProposed struct {
	ID       uint64
	Proposer crypto.Address
	To       crypto.Address
	Amount   *big.Int
}

func (TreasuryProposed) EventType() string { return TypeTreasuryProposed }

func (e TreasuryProposed) Attributes() map[string]string {
	return map[string]string{
		"id":       strconv.FormatUint(e.ID, 10),
		"proposer": e.Proposer.String(),
		"to":       e.To.String(),
		"amount":   amountString(e.Amount),
	}
}

// TreasuryApproved captures a signer approval.
type TreasuryApproved struct {
	ID            uint64
	Signer        crypto.Address
	ApprovalCount uint32
}

func (TreasuryApproved) EventType() string { return TypeTreasuryApproved }

func (e TreasuryApproved) Attributes() map[string]string {
	return map[string]string{
		"id":            strconv.FormatUint(e.ID, 10),
		"signer":        e.Signer.String(),
		"approvalCount": fmt.Sprintf("%d", e.ApprovalCount),
	}
}

// TreasuryExecuted captures a paid-out withdrawal.
type TreasuryExecuted struct {
	ID         uint64
	To         crypto.Address
	Amount     *big.Int
	NewBalance *big.Int
}

func (TreasuryExecuted) EventType() string { return TypeTreasuryExecuted }

func (e TreasuryExecuted) Attributes() map[string]string {
	return map[string]string{
		"id":         strconv.FormatUint(e.ID, 10),
		"to":         e.To.String(),
		"amount":     amountString(e.Amount),
		"newBalance": amountString(e.NewBalance),
	}
}

// TreasurySignerAdded captures a signer set addition.
type TreasurySignerAdded struct {
	Signer   crypto.Address
	NewCount uint32
}

func (TreasurySignerAdded) EventType() string { return TypeTreasurySignerAdded }

func (e TreasurySignerAdded) Attributes() map[string]string {
	return map[string]string{
		"signer":   e.Signer.String(),
		"newCount": fmt.Sprintf("%d", e.NewCount),
	}
}

// TreasurySignerRemoved captures a signer set removal.
type TreasurySignerRemoved struct {
	Signer   crypto.Address
	NewCount uint32
}

func (TreasurySignerRemoved) EventType() string { return TypeTreasurySignerRemoved }

func (e TreasurySignerRemoved) Attributes() map[string]string {
	return map[string]string{
		"signer":   e.Signer.String(),
		"newCount": fmt.Sprintf("%d", e.NewCount),
	}
}

// TreasuryThresholdUpdated captures a threshold change.
type TreasuryThresholdUpdated struct {
	Threshold uint32
}

func (TreasuryThresholdUpdated) EventType() string { return TypeTreasuryThresholdUpdated }

func (e TreasuryThresholdUpdated) Attributes() map[string]string {
	return map[string]string{
		"threshold": fmt.Sprintf("%d", e.Threshold),
	}
}

// TreasuryAdminTransferred captures an admin handover.
type TreasuryAdminTransferred struct {
	OldAdmin crypto.Address
	NewAdmin crypto.Address
}

func (TreasuryAdminTransferred) EventType() string { return TypeTreasuryAdminTransferred }

func (e TreasuryAdminTransferred) Attributes() map[string]string {
	return map[string]string{
		"old": e.OldAdmin.String(),
		"new": e.NewAdmin.String(),
	}
}
