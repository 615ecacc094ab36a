package common

import "stellarguard/crypto"

// Membership and signer lists need set semantics with a predictable
// iteration order so event payloads stay deterministic. The helpers below
// treat a slice as an append-only ordered set and rebuild it on removal.

// ContainsAddress reports whether addr appears in the ordered set.
func ContainsAddress(set []crypto.Address, addr crypto.Address) bool {
	for _, member := range set {
		if member == addr {
			return true
		}
	}
	return false
}

// AppendAddress adds addr to the ordered set unless it is already present.
// The second result reports whether the set changed.
func AppendAddress(set []crypto.Address, addr crypto.Address) ([]crypto.Address, bool) {
	if ContainsAddress(set, addr) {
		return set, false
	}
	return append(set, addr), true
}

// RemoveAddress removes addr from the ordered set, preserving the relative
// order of the remaining elements. The second result reports whether the set
// changed.
func RemoveAddress(set []crypto.Address, addr crypto.Address) ([]crypto.Address, bool) {
	for i, member := range set {
		if member == addr {
			rebuilt := make([]crypto.Address, 0, len(set)-1)
			rebuilt = append(rebuilt, set[:i]...)
			return append(rebuilt, set[i+1:]...), true
		}
	}
	return set, false
}
