package treasury

import (
	"math/big"

	"stellarguard/core/events"
	"stellarguard/crypto"
	"stellarguard/host"
	"stellarguard/native/common"
)

// Engine implements the treasury contract: an integer ledger balance, a
// queue of withdrawal transactions gated by N-of-M signer approvals, and
// signer-set management. Every entry point follows the gated-operation
// ordering initialized -> signer check -> require_auth -> business
// validation, and performs no write before its last validation so a failed
// call leaves no partial state behind.
type Engine struct {
	env *host.Env
}

// NewEngine binds the contract logic to its host environment.
func NewEngine(env *host.Env) *Engine {
	return &Engine{env: env}
}

// Initialize sets up the contract with its admin, approval threshold, and
// initial signer set. It can succeed at most once.
func (e *Engine) Initialize(admin crypto.Address, threshold uint32, signers []crypto.Address) error {
	initialized, err := e.initialized()
	if err != nil {
		return err
	}
	if initialized {
		return ErrAlreadyInitialized
	}
	if err := e.env.RequireAuth(admin); err != nil {
		return ErrUnauthorized
	}
	set := make([]crypto.Address, 0, len(signers))
	for _, signer := range signers {
		if signer.IsZero() {
			return ErrNotASigner
		}
		set, _ = common.AppendAddress(set, signer)
	}
	if threshold < 1 || uint64(threshold) > uint64(len(set)) {
		return ErrInvalidThreshold
	}

	if err := e.env.Instance().Set(adminKey(), admin); err != nil {
		return err
	}
	if err := e.putSigners(set); err != nil {
		return err
	}
	if err := e.env.Instance().Set(thresholdKey(), threshold); err != nil {
		return err
	}
	if err := e.putBalance(big.NewInt(0)); err != nil {
		return err
	}
	if err := e.env.Instance().Set(txCounterKey(), uint64(0)); err != nil {
		return err
	}

	e.env.Emit(events.TreasuryInitialized{
		Admin:       admin,
		Threshold:   threshold,
		SignerCount: uint32(len(set)),
	})
	return nil
}

// Deposit credits the ledger balance. Any authenticated address may deposit.
func (e *Engine) Deposit(from crypto.Address, amount *big.Int) error {
	initialized, err := e.initialized()
	if err != nil {
		return err
	}
	if !initialized {
		return ErrNotInitialized
	}
	if err := e.env.RequireAuth(from); err != nil {
		return ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 || !common.WithinI128(amount) {
		return ErrInvalidAmount
	}

	balance, err := e.balance()
	if err != nil {
		return err
	}
	updated, err := common.AddI128(balance, amount)
	if err != nil {
		return ErrOverflow
	}
	if err := e.putBalance(updated); err != nil {
		return err
	}

	e.env.Emit(events.TreasuryDeposited{
		From:       from,
		Amount:     new(big.Int).Set(amount),
		NewBalance: updated,
	})
	return nil
}

// ProposeWithdrawal queues a withdrawal carrying the proposer's implicit
// first approval and returns its identifier. The current balance must cover
// the amount, but funds are not reserved; the check is re-applied at
// execution time.
func (e *Engine) ProposeWithdrawal(proposer, to crypto.Address, amount *big.Int, memo string) (uint64, error) {
	initialized, err := e.initialized()
	if err != nil {
		return 0, err
	}
	if !initialized {
		return 0, ErrNotInitialized
	}
	signers, err := e.signers()
	if err != nil {
		return 0, err
	}
	if !common.ContainsAddress(signers, proposer) {
		return 0, ErrNotASigner
	}
	if err := e.env.RequireAuth(proposer); err != nil {
		return 0, ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 || !common.WithinI128(amount) {
		return 0, ErrInvalidAmount
	}
	balance, err := e.balance()
	if err != nil {
		return 0, err
	}
	if balance.Cmp(amount) < 0 {
		return 0, ErrInsufficientFunds
	}

	counter, err := e.txCounter()
	if err != nil {
		return 0, err
	}
	id, err := common.AddUint64(counter, 1)
	if err != nil {
		return 0, ErrOverflow
	}
	tx := &Transaction{
		ID:        id,
		To:        to,
		Amount:    new(big.Int).Set(amount),
		Memo:      memo,
		Approvals: []crypto.Address{proposer},
		CreatedAt: e.env.Ledger().Timestamp(),
		Proposer:  proposer,
	}
	if err := e.putTransaction(tx); err != nil {
		return 0, err
	}
	if err := e.env.Instance().Set(txCounterKey(), id); err != nil {
		return 0, err
	}

	e.env.Emit(events.TreasuryProposed{
		ID:       id,
		Proposer: proposer,
		To:       to,
		Amount:   new(big.Int).Set(amount),
	})
	return id, nil
}

// Approve records a signer's approval on a pending transaction and returns
// the updated approval count. A duplicate approval is an error rather than a
// no-op so a signer's intent is never silently absorbed.
func (e *Engine) Approve(signer crypto.Address, txID uint64) (uint32, error) {
	initialized, err := e.initialized()
	if err != nil {
		return 0, err
	}
	if !initialized {
		return 0, ErrNotInitialized
	}
	signers, err := e.signers()
	if err != nil {
		return 0, err
	}
	if !common.ContainsAddress(signers, signer) {
		return 0, ErrNotASigner
	}
	if err := e.env.RequireAuth(signer); err != nil {
		return 0, ErrUnauthorized
	}
	tx, ok, err := e.transaction(txID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrTransactionNotFound
	}
	if tx.Executed {
		return 0, ErrAlreadyExecuted
	}
	if common.ContainsAddress(tx.Approvals, signer) {
		return 0, ErrAlreadyApproved
	}

	tx.Approvals = append(tx.Approvals, signer)
	if err := e.putTransaction(tx); err != nil {
		return 0, err
	}

	count := uint32(len(tx.Approvals))
	e.env.Emit(events.TreasuryApproved{ID: txID, Signer: signer, ApprovalCount: count})
	return count, nil
}

// Execute pays out a transaction that has reached the approval threshold.
// The balance is re-checked here since proposals do not reserve funds.
func (e *Engine) Execute(executor crypto.Address, txID uint64) error {
	initialized, err := e.initialized()
	if err != nil {
		return err
	}
	if !initialized {
		return ErrNotInitialized
	}
	signers, err := e.signers()
	if err != nil {
		return err
	}
	if !common.ContainsAddress(signers, executor) {
		return ErrNotASigner
	}
	if err := e.env.RequireAuth(executor); err != nil {
		return ErrUnauthorized
	}
	tx, ok, err := e.transaction(txID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTransactionNotFound
	}
	if tx.Executed {
		return ErrAlreadyExecuted
	}
	threshold, err := e.threshold()
	if err != nil {
		return err
	}
	if uint64(len(tx.Approvals)) < uint64(threshold) {
		return ErrUnauthorized
	}
	balance, err := e.balance()
	if err != nil {
		return err
	}
	if balance.Cmp(tx.Amount) < 0 {
		return ErrInsufficientFunds
	}

	updated, err := common.SubI128(balance, tx.Amount)
	if err != nil {
		return ErrOverflow
	}
	if err := e.putBalance(updated); err != nil {
		return err
	}
	tx.Executed = true
	if err := e.putTransaction(tx); err != nil {
		return err
	}

	e.env.Emit(events.TreasuryExecuted{
		ID:         txID,
		To:         tx.To,
		Amount:     new(big.Int).Set(tx.Amount),
		NewBalance: updated,
	})
	return nil
}

// AddSigner appends a new signer to the set. Admin only.
func (e *Engine) AddSigner(caller, signer crypto.Address) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if signer.IsZero() {
		return ErrNotASigner
	}
	signers, err := e.signers()
	if err != nil {
		return err
	}
	updated, changed := common.AppendAddress(signers, signer)
	if !changed {
		return ErrAlreadySigner
	}
	if err := e.putSigners(updated); err != nil {
		return err
	}

	e.env.Emit(events.TreasurySignerAdded{Signer: signer, NewCount: uint32(len(updated))})
	return nil
}

// RemoveSigner drops a signer from the set, preserving order. The set must
// stay strictly above the threshold before removal so it never dips below
// afterwards. Admin only.
func (e *Engine) RemoveSigner(caller, signer crypto.Address) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	signers, err := e.signers()
	if err != nil {
		return err
	}
	threshold, err := e.threshold()
	if err != nil {
		return err
	}
	if uint64(len(signers)) <= uint64(threshold) {
		return ErrThresholdBreach
	}
	updated, changed := common.RemoveAddress(signers, signer)
	if !changed {
		return ErrNotASigner
	}
	if err := e.putSigners(updated); err != nil {
		return err
	}

	e.env.Emit(events.TreasurySignerRemoved{Signer: signer, NewCount: uint32(len(updated))})
	return nil
}

// SetThreshold updates the approval threshold. Admin only.
func (e *Engine) SetThreshold(caller crypto.Address, threshold uint32) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	signers, err := e.signers()
	if err != nil {
		return err
	}
	if threshold < 1 || uint64(threshold) > uint64(len(signers)) {
		return ErrInvalidThreshold
	}
	if err := e.env.Instance().Set(thresholdKey(), threshold); err != nil {
		return err
	}

	e.env.Emit(events.TreasuryThresholdUpdated{Threshold: threshold})
	return nil
}

// TransferAdmin moves the admin slot from current to newAdmin.
func (e *Engine) TransferAdmin(current, newAdmin crypto.Address) error {
	if err := e.requireAdmin(current); err != nil {
		return err
	}
	if newAdmin.IsZero() {
		return ErrUnauthorized
	}
	if err := e.env.Instance().Set(adminKey(), newAdmin); err != nil {
		return err
	}

	e.env.Emit(events.TreasuryAdminTransferred{OldAdmin: current, NewAdmin: newAdmin})
	return nil
}

func (e *Engine) requireAdmin(caller crypto.Address) error {
	initialized, err := e.initialized()
	if err != nil {
		return err
	}
	if !initialized {
		return ErrNotInitialized
	}
	admin, err := e.admin()
	if err != nil {
		return err
	}
	if caller != admin {
		return ErrUnauthorized
	}
	if err := e.env.RequireAuth(caller); err != nil {
		return ErrUnauthorized
	}
	return nil
}

// --- read entry points ---

// Balance returns the current ledger balance.
func (e *Engine) Balance() (*big.Int, error) {
	initialized, err := e.initialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		return nil, ErrNotInitialized
	}
	return e.balance()
}

// Transaction returns the stored transaction for the given identifier.
func (e *Engine) Transaction(txID uint64) (*Transaction, error) {
	initialized, err := e.initialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		return nil, ErrNotInitialized
	}
	tx, ok, err := e.transaction(txID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

// Signers returns the current signer set in insertion order.
func (e *Engine) Signers() ([]crypto.Address, error) {
	initialized, err := e.initialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		return nil, ErrNotInitialized
	}
	return e.signers()
}

// Threshold returns the configured approval threshold.
func (e *Engine) Threshold() (uint32, error) {
	initialized, err := e.initialized()
	if err != nil {
		return 0, err
	}
	if !initialized {
		return 0, ErrNotInitialized
	}
	return e.threshold()
}

// Admin returns the stored admin address.
func (e *Engine) Admin() (crypto.Address, error) {
	initialized, err := e.initialized()
	if err != nil {
		return crypto.Address{}, err
	}
	if !initialized {
		return crypto.Address{}, ErrNotInitialized
	}
	return e.admin()
}

// TransactionCount returns the number of withdrawals ever proposed.
func (e *Engine) TransactionCount() (uint64, error) {
	initialized, err := e.initialized()
	if err != nil {
		return 0, err
	}
	if !initialized {
		return 0, ErrNotInitialized
	}
	return e.txCounter()
}

// --- storage accessors ---

func (e *Engine) initialized() (bool, error) {
	return e.env.Instance().Has(adminKey())
}

func (e *Engine) admin() (crypto.Address, error) {
	var admin crypto.Address
	ok, err := e.env.Instance().Get(adminKey(), &admin)
	if err != nil {
		return crypto.Address{}, err
	}
	if !ok {
		return crypto.Address{}, ErrNotInitialized
	}
	return admin, nil
}

func (e *Engine) signers() ([]crypto.Address, error) {
	var signers []crypto.Address
	if _, err := e.env.Instance().Get(signersKey(), &signers); err != nil {
		return nil, err
	}
	return signers, nil
}

func (e *Engine) putSigners(signers []crypto.Address) error {
	return e.env.Instance().Set(signersKey(), signers)
}

func (e *Engine) threshold() (uint32, error) {
	var threshold uint32
	if _, err := e.env.Instance().Get(thresholdKey(), &threshold); err != nil {
		return 0, err
	}
	return threshold, nil
}

func (e *Engine) balance() (*big.Int, error) {
	balance := new(big.Int)
	ok, err := e.env.Instance().Get(balanceKey(), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

func (e *Engine) putBalance(balance *big.Int) error {
	return e.env.Instance().Set(balanceKey(), balance)
}

func (e *Engine) txCounter() (uint64, error) {
	var counter uint64
	if _, err := e.env.Instance().Get(txCounterKey(), &counter); err != nil {
		return 0, err
	}
	return counter, nil
}

func (e *Engine) transaction(id uint64) (*Transaction, bool, error) {
	var tx Transaction
	ok, err := e.env.Persistent().Get(transactionKey(id), &tx)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	if tx.Amount == nil {
		tx.Amount = big.NewInt(0)
	}
	return &tx, true, nil
}

func (e *Engine) putTransaction(tx *Transaction) error {
	return e.env.Persistent().Set(transactionKey(tx.ID), tx)
}
