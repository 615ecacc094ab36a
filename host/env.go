package host

import (
	"errors"
	"sync"
	"time"

	"stellarguard/core/events"
	"stellarguard/crypto"
	"stellarguard/storage"
)

// ErrNotAuthorized is returned by the auth oracle when the address did not
// authorize the current invocation. Contracts translate it into their own
// tagged Unauthorized code.
var ErrNotAuthorized = errors.New("host: address did not authorize invocation")

// Ledger exposes the host chain clock. Sequence is the monotonic ledger
// counter used as the voting-period time base; Timestamp is wall-clock
// seconds.
type Ledger interface {
	Sequence() uint32
	Timestamp() uint64
}

// Auth is the host authentication oracle. RequireAuth reports whether addr
// authorized the current invocation; a non-nil error aborts the entry point.
type Auth interface {
	RequireAuth(addr crypto.Address) error
}

// Env bundles the host primitives one contract instance sees: two typed
// storage namespaces, the event log, the ledger clock, the auth oracle, and
// the code-upgrade hook.
type Env struct {
	instance   Store
	persistent Store
	emitter    events.Emitter
	ledger     Ledger
	auth       Auth
	upgrade    func(hash [32]byte) error
}

// Option customises an Env at construction time.
type Option func(*Env)

// WithEmitter routes contract events to the given emitter.
func WithEmitter(emitter events.Emitter) Option {
	return func(e *Env) { e.emitter = emitter }
}

// WithLedger installs the ledger clock.
func WithLedger(ledger Ledger) Option {
	return func(e *Env) { e.ledger = ledger }
}

// WithAuth installs the authentication oracle.
func WithAuth(auth Auth) Option {
	return func(e *Env) { e.auth = auth }
}

// WithUpgradeHook installs the deployer used by contract upgrades.
func WithUpgradeHook(hook func(hash [32]byte) error) Option {
	return func(e *Env) { e.upgrade = hook }
}

// NewEnv constructs a contract environment over the given backend. The
// contract name scopes the storage namespaces so several contracts can share
// one database.
func NewEnv(db storage.Database, contract string, opts ...Option) *Env {
	env := &Env{
		instance:   newKVStore(db, contract, DurabilityInstance),
		persistent: newKVStore(db, contract, DurabilityPersistent),
		emitter:    events.NoopEmitter{},
		ledger:     NewManualLedger(0, 0),
		auth:       NewAuthorizedSet(),
	}
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// Instance returns the always-present configuration namespace.
func (e *Env) Instance() Store { return e.instance }

// Persistent returns the per-entity record namespace.
func (e *Env) Persistent() Store { return e.persistent }

// Emit publishes a contract event.
func (e *Env) Emit(evt events.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

// Ledger returns the host chain clock.
func (e *Env) Ledger() Ledger { return e.ledger }

// RequireAuth consults the auth oracle for the given address.
func (e *Env) RequireAuth(addr crypto.Address) error {
	return e.auth.RequireAuth(addr)
}

// UpdateCurrentContractWASM swaps the contract code hash via the deployer.
func (e *Env) UpdateCurrentContractWASM(hash [32]byte) error {
	if e.upgrade == nil {
		return nil
	}
	return e.upgrade(hash)
}

// --- Ledger implementations ---

// ManualLedger is a hand-advanced clock used by tests and by hosts that tick
// the ledger themselves.
type ManualLedger struct {
	mu        sync.RWMutex
	sequence  uint32
	timestamp uint64
}

// NewManualLedger starts a manual clock at the given sequence and timestamp.
func NewManualLedger(sequence uint32, timestamp uint64) *ManualLedger {
	return &ManualLedger{sequence: sequence, timestamp: timestamp}
}

func (l *ManualLedger) Sequence() uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sequence
}

func (l *ManualLedger) Timestamp() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.timestamp
}

// Advance moves the sequence forward by delta ledgers.
func (l *ManualLedger) Advance(delta uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sequence += delta
}

// SetTimestamp pins the wall-clock component.
func (l *ManualLedger) SetTimestamp(ts uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timestamp = ts
}

// SystemLedger derives the sequence from wall-clock time relative to a
// genesis instant, one ledger per interval. It serves hosts that have no
// real chain underneath, such as the standalone daemon.
type SystemLedger struct {
	genesis  time.Time
	interval time.Duration
	nowFn    func() time.Time
}

// NewSystemLedger constructs a wall-clock ledger. Interval must be positive;
// the conventional value is five seconds per ledger.
func NewSystemLedger(genesis time.Time, interval time.Duration) *SystemLedger {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &SystemLedger{genesis: genesis.UTC(), interval: interval, nowFn: func() time.Time { return time.Now().UTC() }}
}

func (l *SystemLedger) Sequence() uint32 {
	elapsed := l.nowFn().Sub(l.genesis)
	if elapsed < 0 {
		return 0
	}
	return uint32(elapsed / l.interval)
}

func (l *SystemLedger) Timestamp() uint64 {
	now := l.nowFn()
	if now.Unix() < 0 {
		return 0
	}
	return uint64(now.Unix())
}

// --- Auth implementations ---

// AuthorizedSet is an auth oracle backed by an explicit set of authorizing
// addresses. The daemon seeds it per request with the authenticated subject;
// tests seed it with whichever parties signed the simulated invocation.
type AuthorizedSet struct {
	mu    sync.RWMutex
	addrs map[crypto.Address]struct{}
}

// NewAuthorizedSet constructs an oracle authorizing the given addresses.
func NewAuthorizedSet(addrs ...crypto.Address) *AuthorizedSet {
	set := &AuthorizedSet{addrs: make(map[crypto.Address]struct{}, len(addrs))}
	for _, addr := range addrs {
		set.addrs[addr] = struct{}{}
	}
	return set
}

// Authorize adds an address to the authorizing set.
func (s *AuthorizedSet) Authorize(addr crypto.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addrs[addr] = struct{}{}
}

// Revoke removes an address from the authorizing set.
func (s *AuthorizedSet) Revoke(addr crypto.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.addrs, addr)
}

// RequireAuth implements the Auth interface.
func (s *AuthorizedSet) RequireAuth(addr crypto.Address) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.addrs[addr]; !ok {
		return ErrNotAuthorized
	}
	return nil
}

// SingleAuthorizer authorizes exactly one address. It is the per-request
// oracle the gateway builds from a verified bearer token subject.
type SingleAuthorizer struct {
	Addr crypto.Address
}

// RequireAuth implements the Auth interface.
func (s SingleAuthorizer) RequireAuth(addr crypto.Address) error {
	if addr != s.Addr {
		return ErrNotAuthorized
	}
	return nil
}
