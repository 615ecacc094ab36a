package treasury

import (
	"math/big"

	"stellarguard/crypto"
	"stellarguard/host"
)

// Transaction captures one withdrawal request and its approval trail.
// Approvals are unique and were signers at approval time; a later signer
// removal does not invalidate a past approval. Executed transitions
// monotonically false to true.
type Transaction struct {
	ID        uint64           `json:"id"`
	To        crypto.Address   `json:"to"`
	Amount    *big.Int         `json:"amount"`
	Memo      string           `json:"memo"`
	Approvals []crypto.Address `json:"approvals"`
	Executed  bool             `json:"executed"`
	CreatedAt uint64           `json:"created_at"`
	Proposer  crypto.Address   `json:"proposer"`
}

// Storage key discriminants. The encodings are part of the persisted state
// layout and must stay stable across upgrades.
const (
	keyTagAdmin       byte = 0x01
	keyTagSigners     byte = 0x02
	keyTagThreshold   byte = 0x03
	keyTagBalance     byte = 0x04
	keyTagTxCounter   byte = 0x05
	keyTagTransaction byte = 0x10
)

func adminKey() host.Key     { return host.TaggedKey{Tag: keyTagAdmin} }
func signersKey() host.Key   { return host.TaggedKey{Tag: keyTagSigners} }
func thresholdKey() host.Key { return host.TaggedKey{Tag: keyTagThreshold} }
func balanceKey() host.Key   { return host.TaggedKey{Tag: keyTagBalance} }
func txCounterKey() host.Key { return host.TaggedKey{Tag: keyTagTxCounter} }

func transactionKey(id uint64) host.Key {
	return host.TaggedKey{Tag: keyTagTransaction, Suffix: host.Uint64Suffix(id)}
}
