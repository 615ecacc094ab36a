// Package hosttest provides an in-memory contract environment for exercising
// the native engines: a manual ledger clock, a seedable auth oracle, and a
// capturing event emitter over a MemDB backend.
package hosttest

import (
	"stellarguard/core/events"
	"stellarguard/crypto"
	"stellarguard/host"
	"stellarguard/storage"
)

// UpgradeLog records the WASM hashes handed to the deployer hook.
type UpgradeLog struct {
	Hashes [][32]byte
}

// Env bundles a contract environment with handles to its test doubles.
type Env struct {
	*host.Env
	DB       *storage.MemDB
	Ledger   *host.ManualLedger
	Auth     *host.AuthorizedSet
	Emitted  *events.Capture
	Upgrades *UpgradeLog
}

// New constructs an isolated environment for one contract under test. The
// ledger starts at sequence 1 so created_at values are distinguishable from
// the zero value.
func New(contract string) *Env {
	db := storage.NewMemDB()
	ledger := host.NewManualLedger(1, 1_700_000_000)
	auth := host.NewAuthorizedSet()
	capture := &events.Capture{}
	upgrades := &UpgradeLog{}
	env := host.NewEnv(db, contract,
		host.WithLedger(ledger),
		host.WithAuth(auth),
		host.WithEmitter(capture),
		host.WithUpgradeHook(func(hash [32]byte) error {
			upgrades.Hashes = append(upgrades.Hashes, hash)
			return nil
		}),
	)
	return &Env{Env: env, DB: db, Ledger: ledger, Auth: auth, Emitted: capture, Upgrades: upgrades}
}

// Addr derives a deterministic test address from a single seed byte.
func Addr(seed byte) crypto.Address {
	raw := make([]byte, crypto.AddressLen)
	for i := range raw {
		raw[i] = seed
	}
	return crypto.MustNewAddress(raw)
}
