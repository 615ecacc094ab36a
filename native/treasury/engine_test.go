package treasury

import (
	"errors"
	"math/big"
	"testing"

	"stellarguard/core/events"
	"stellarguard/crypto"
	"stellarguard/host/hosttest"
)

func newTestEngine(t *testing.T) (*Engine, *hosttest.Env) {
	t.Helper()
	env := hosttest.New("treasury")
	return NewEngine(env.Env), env
}

// multisig initializes the contract with an admin, threshold 2, and three
// signers s1..s3, mirroring the canonical fixture from the end-to-end
// scenarios.
func multisig(t *testing.T, engine *Engine, env *hosttest.Env) (admin crypto.Address, signers []crypto.Address) {
	t.Helper()
	admin = hosttest.Addr(1)
	signers = []crypto.Address{hosttest.Addr(11), hosttest.Addr(12), hosttest.Addr(13)}
	env.Auth.Authorize(admin)
	for _, signer := range signers {
		env.Auth.Authorize(signer)
	}
	if err := engine.Initialize(admin, 2, signers); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return admin, signers
}

func mustDeposit(t *testing.T, engine *Engine, env *hosttest.Env, from crypto.Address, amount int64) {
	t.Helper()
	env.Auth.Authorize(from)
	if err := engine.Deposit(from, big.NewInt(amount)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
}

func TestInitializeValidation(t *testing.T) {
	engine, env := newTestEngine(t)
	admin := hosttest.Addr(1)
	signers := []crypto.Address{hosttest.Addr(11), hosttest.Addr(12)}

	if err := engine.Initialize(admin, 1, signers); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unauthenticated initialize: got %v", err)
	}
	env.Auth.Authorize(admin)
	if err := engine.Initialize(admin, 0, signers); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("threshold 0: got %v", err)
	}
	if err := engine.Initialize(admin, 3, signers); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("threshold above signer count: got %v", err)
	}
	if err := engine.Initialize(admin, 2, signers); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := engine.Initialize(admin, 2, signers); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("second initialize: got %v", err)
	}
	if balance, err := engine.Balance(); err != nil || balance.Sign() != 0 {
		t.Fatalf("fresh balance = %v (%v)", balance, err)
	}
}

func TestDeposit(t *testing.T) {
	engine, env := newTestEngine(t)
	depositor := hosttest.Addr(9)

	env.Auth.Authorize(depositor)
	if err := engine.Deposit(depositor, big.NewInt(100)); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("uninitialized deposit: got %v", err)
	}
	multisig(t, engine, env)

	if err := engine.Deposit(depositor, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero deposit: got %v", err)
	}
	if err := engine.Deposit(depositor, big.NewInt(-5)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative deposit: got %v", err)
	}
	if err := engine.Deposit(depositor, big.NewInt(2_500)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := engine.Deposit(depositor, big.NewInt(500)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if balance, err := engine.Balance(); err != nil || balance.Cmp(big.NewInt(3_000)) != 0 {
		t.Fatalf("balance = %v (%v), want 3000", balance, err)
	}

	stranger := hosttest.Addr(8)
	if err := engine.Deposit(stranger, big.NewInt(1)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unauthenticated deposit: got %v", err)
	}
}

func TestMultisigHappyPath(t *testing.T) {
	engine, env := newTestEngine(t)
	_, signers := multisig(t, engine, env)
	s1, s2 := signers[0], signers[1]
	recipient := hosttest.Addr(30)
	mustDeposit(t, engine, env, hosttest.Addr(9), 5_000_000)

	id, err := engine.ProposeWithdrawal(s1, recipient, big.NewInt(1_000_000), "rent")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if id != 1 {
		t.Fatalf("first tx id = %d, want 1", id)
	}

	count, err := engine.Approve(s2, id)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if count != 2 {
		t.Fatalf("approval count = %d, want 2", count)
	}

	if err := engine.Execute(s1, id); err != nil {
		t.Fatalf("execute: %v", err)
	}
	balance, err := engine.Balance()
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(4_000_000)) != 0 {
		t.Fatalf("balance = %v, want 4000000", balance)
	}
	tx, err := engine.Transaction(id)
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if !tx.Executed {
		t.Fatalf("transaction not marked executed")
	}
	if len(tx.Approvals) != 2 {
		t.Fatalf("approvals = %d, want 2", len(tx.Approvals))
	}
}

func TestProposeGuards(t *testing.T) {
	engine, env := newTestEngine(t)
	_, signers := multisig(t, engine, env)
	s1 := signers[0]
	outsider := hosttest.Addr(9)
	recipient := hosttest.Addr(30)
	env.Auth.Authorize(outsider)

	if _, err := engine.ProposeWithdrawal(outsider, recipient, big.NewInt(10), ""); !errors.Is(err, ErrNotASigner) {
		t.Fatalf("outsider proposes: got %v", err)
	}
	if _, err := engine.ProposeWithdrawal(s1, recipient, big.NewInt(0), ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: got %v", err)
	}
	if _, err := engine.ProposeWithdrawal(s1, recipient, big.NewInt(10), ""); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("empty treasury: got %v", err)
	}
	// Failed proposals must not advance the counter.
	if count, err := engine.TransactionCount(); err != nil || count != 0 {
		t.Fatalf("tx count = %d (%v), want 0", count, err)
	}
}

func TestApproveGuards(t *testing.T) {
	engine, env := newTestEngine(t)
	_, signers := multisig(t, engine, env)
	s1, s2, s3 := signers[0], signers[1], signers[2]
	mustDeposit(t, engine, env, hosttest.Addr(9), 1_000)
	id, err := engine.ProposeWithdrawal(s1, hosttest.Addr(30), big.NewInt(100), "")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	if _, err := engine.Approve(s2, 99); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("approve missing tx: got %v", err)
	}
	// The proposer's implicit approval cannot be repeated.
	if _, err := engine.Approve(s1, id); !errors.Is(err, ErrAlreadyApproved) {
		t.Fatalf("proposer re-approves: got %v", err)
	}
	if _, err := engine.Approve(s2, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := engine.Approve(s2, id); !errors.Is(err, ErrAlreadyApproved) {
		t.Fatalf("duplicate approval: got %v", err)
	}
	if err := engine.Execute(s1, id); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := engine.Approve(s3, id); !errors.Is(err, ErrAlreadyExecuted) {
		t.Fatalf("approve executed tx: got %v", err)
	}
}

func TestExecuteBelowThreshold(t *testing.T) {
	engine, env := newTestEngine(t)
	_, signers := multisig(t, engine, env)
	s1 := signers[0]
	mustDeposit(t, engine, env, hosttest.Addr(9), 1_000)
	id, err := engine.ProposeWithdrawal(s1, hosttest.Addr(30), big.NewInt(100), "")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	// One approval (the proposer's) is below threshold 2.
	if err := engine.Execute(s1, id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("below-threshold execute: got %v", err)
	}
	tx, err := engine.Transaction(id)
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if tx.Executed {
		t.Fatalf("transaction executed below threshold")
	}
}

func TestUnreservedBalanceRecheckedAtExecution(t *testing.T) {
	engine, env := newTestEngine(t)
	_, signers := multisig(t, engine, env)
	s1, s2 := signers[0], signers[1]
	mustDeposit(t, engine, env, hosttest.Addr(9), 1_000)

	// Two proposals individually fit the balance but jointly exceed it.
	first, err := engine.ProposeWithdrawal(s1, hosttest.Addr(30), big.NewInt(800), "a")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	second, err := engine.ProposeWithdrawal(s1, hosttest.Addr(31), big.NewInt(800), "b")
	if err != nil {
		t.Fatalf("propose without reservation: %v", err)
	}
	if _, err := engine.Approve(s2, first); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := engine.Approve(s2, second); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := engine.Execute(s1, first); err != nil {
		t.Fatalf("execute first: %v", err)
	}
	if err := engine.Execute(s1, second); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("execute second: got %v, want %v", err, ErrInsufficientFunds)
	}
	if balance, err := engine.Balance(); err != nil || balance.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("balance = %v (%v), want 200", balance, err)
	}
}

func TestSignerManagement(t *testing.T) {
	engine, env := newTestEngine(t)
	admin, signers := multisig(t, engine, env)
	s1, s2 := signers[0], signers[1]
	extra := hosttest.Addr(14)

	if err := engine.AddSigner(s1, extra); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-admin add: got %v", err)
	}
	if err := engine.AddSigner(admin, s1); !errors.Is(err, ErrAlreadySigner) {
		t.Fatalf("duplicate signer: got %v", err)
	}
	if err := engine.AddSigner(admin, extra); err != nil {
		t.Fatalf("add signer: %v", err)
	}
	got, err := engine.Signers()
	if err != nil {
		t.Fatalf("signers: %v", err)
	}
	if len(got) != 4 || got[3] != extra {
		t.Fatalf("signer set after add = %v", got)
	}

	if err := engine.SetThreshold(admin, 5); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("threshold above count: got %v", err)
	}
	if err := engine.SetThreshold(admin, 3); err != nil {
		t.Fatalf("set threshold: %v", err)
	}

	// 4 signers, threshold 3: one removal is allowed, the next would breach.
	if err := engine.RemoveSigner(admin, extra); err != nil {
		t.Fatalf("remove signer: %v", err)
	}
	if err := engine.RemoveSigner(admin, s2); !errors.Is(err, ErrThresholdBreach) {
		t.Fatalf("breaching removal: got %v", err)
	}
	if err := engine.RemoveSigner(admin, hosttest.Addr(40)); !errors.Is(err, ErrThresholdBreach) {
		t.Fatalf("remove unknown at threshold: got %v", err)
	}
}

func TestThresholdBreachScenario(t *testing.T) {
	engine, env := newTestEngine(t)
	admin, signers := multisig(t, engine, env)

	// 3 signers, threshold 2: first removal fits (3 > 2), second breaches.
	if err := engine.RemoveSigner(admin, signers[0]); err != nil {
		t.Fatalf("first removal: %v", err)
	}
	if err := engine.RemoveSigner(admin, signers[1]); !errors.Is(err, ErrThresholdBreach) {
		t.Fatalf("second removal: got %v, want %v", err, ErrThresholdBreach)
	}
}

func TestRemovedSignerApprovalsSurvive(t *testing.T) {
	engine, env := newTestEngine(t)
	admin, signers := multisig(t, engine, env)
	s1, s2, s3 := signers[0], signers[1], signers[2]
	mustDeposit(t, engine, env, hosttest.Addr(9), 1_000)
	id, err := engine.ProposeWithdrawal(s1, hosttest.Addr(30), big.NewInt(100), "")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := engine.Approve(s2, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := engine.RemoveSigner(admin, s2); err != nil {
		t.Fatalf("remove signer: %v", err)
	}

	// The past approval still counts toward the threshold.
	if err := engine.Execute(s3, id); err != nil {
		t.Fatalf("execute with removed approver: %v", err)
	}
	// The removed signer can no longer act.
	if _, err := engine.ProposeWithdrawal(s2, hosttest.Addr(30), big.NewInt(1), ""); !errors.Is(err, ErrNotASigner) {
		t.Fatalf("removed signer proposes: got %v", err)
	}
}

func TestBalanceConservation(t *testing.T) {
	engine, env := newTestEngine(t)
	_, signers := multisig(t, engine, env)
	s1, s2 := signers[0], signers[1]
	depositor := hosttest.Addr(9)

	deposits := []int64{400, 250, 350}
	total := int64(0)
	for _, amount := range deposits {
		mustDeposit(t, engine, env, depositor, amount)
		total += amount
	}

	executed := int64(0)
	for _, amount := range []int64{100, 300} {
		id, err := engine.ProposeWithdrawal(s1, hosttest.Addr(30), big.NewInt(amount), "")
		if err != nil {
			t.Fatalf("propose: %v", err)
		}
		if _, err := engine.Approve(s2, id); err != nil {
			t.Fatalf("approve: %v", err)
		}
		if err := engine.Execute(s1, id); err != nil {
			t.Fatalf("execute: %v", err)
		}
		executed += amount
	}

	balance, err := engine.Balance()
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(total-executed)) != 0 {
		t.Fatalf("balance = %v, want %d", balance, total-executed)
	}
	if balance.Sign() < 0 {
		t.Fatalf("balance went negative")
	}
}

func TestAdminTransfer(t *testing.T) {
	engine, env := newTestEngine(t)
	admin, _ := multisig(t, engine, env)
	successor := hosttest.Addr(2)
	env.Auth.Authorize(successor)

	if err := engine.TransferAdmin(successor, admin); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-admin transfer: got %v", err)
	}
	if err := engine.TransferAdmin(admin, successor); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got, err := engine.Admin(); err != nil || got != successor {
		t.Fatalf("admin = %s (%v)", got, err)
	}
	if err := engine.SetThreshold(admin, 1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("former admin acts: got %v", err)
	}
}

func TestEventStream(t *testing.T) {
	engine, env := newTestEngine(t)
	_, signers := multisig(t, engine, env)
	s1, s2 := signers[0], signers[1]
	mustDeposit(t, engine, env, hosttest.Addr(9), 1_000)
	env.Emitted.Reset()

	id, err := engine.ProposeWithdrawal(s1, hosttest.Addr(30), big.NewInt(100), "ops")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := engine.Approve(s2, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := engine.Execute(s1, id); err != nil {
		t.Fatalf("execute: %v", err)
	}

	stream := env.Emitted.Events()
	wantTypes := []string{
		events.TypeTreasuryProposed,
		events.TypeTreasuryApproved,
		events.TypeTreasuryExecuted,
	}
	if len(stream) != len(wantTypes) {
		t.Fatalf("event stream has %d entries, want %d", len(stream), len(wantTypes))
	}
	for i, want := range wantTypes {
		if stream[i].EventType() != want {
			t.Fatalf("event[%d] = %s, want %s", i, stream[i].EventType(), want)
		}
	}
	attrs := stream[2].Attributes()
	if attrs["newBalance"] != "900" {
		t.Fatalf("execute payload = %v", attrs)
	}

	// A rejected call emits nothing.
	env.Emitted.Reset()
	if err := engine.Execute(s1, id); !errors.Is(err, ErrAlreadyExecuted) {
		t.Fatalf("re-execute: got %v", err)
	}
	if got := env.Emitted.Events(); len(got) != 0 {
		t.Fatalf("failed call emitted %d events", len(got))
	}
}
