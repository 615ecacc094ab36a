package host

import (
	"bytes"
	"testing"

	"stellarguard/crypto"
	"stellarguard/storage"
)

func testAddr(seed byte) crypto.Address {
	raw := make([]byte, crypto.AddressLen)
	for i := range raw {
		raw[i] = seed
	}
	return crypto.MustNewAddress(raw)
}

func TestKeyEncodingStable(t *testing.T) {
	// Golden encodings: these byte layouts are part of the persisted state
	// and must never change.
	cases := []struct {
		name string
		key  Key
		want []byte
	}{
		{"bare tag", TaggedKey{Tag: 0x01}, []byte{0x01}},
		{"role count", TaggedKey{Tag: 0x03, Suffix: []byte{4}}, []byte{0x03, 0x04}},
		{
			"counter id",
			TaggedKey{Tag: 0x10, Suffix: Uint64Suffix(258)},
			[]byte{0x10, 0, 0, 0, 0, 0, 0, 1, 2},
		},
		{
			"composite",
			TaggedKey{Tag: 0x11, Suffix: JoinSuffix(Uint64Suffix(1), []byte{0xAA, 0xBB})},
			[]byte{0x11, 0, 0, 0, 0, 0, 0, 0, 1, 0xAA, 0xBB},
		},
	}
	for _, tc := range cases {
		if got := tc.key.EncodeKey(); !bytes.Equal(got, tc.want) {
			t.Fatalf("%s: encoded %x, want %x", tc.name, got, tc.want)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	db := storage.NewMemDB()
	env := NewEnv(db, "test")

	type record struct {
		Name  string `json:"name"`
		Count uint32 `json:"count"`
	}
	key := TaggedKey{Tag: 0x20}

	ok, err := env.Instance().Has(key)
	if err != nil || ok {
		t.Fatalf("fresh key present (%v, %v)", ok, err)
	}
	var out record
	found, err := env.Instance().Get(key, &out)
	if err != nil || found {
		t.Fatalf("get on missing key = (%v, %v)", found, err)
	}

	in := record{Name: "quorum", Count: 7}
	if err := env.Instance().Set(key, in); err != nil {
		t.Fatalf("set: %v", err)
	}
	found, err = env.Instance().Get(key, &out)
	if err != nil || !found {
		t.Fatalf("get = (%v, %v)", found, err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}

	if err := env.Instance().Remove(key); err != nil {
		t.Fatalf("remove: %v", err)
	}
	ok, err = env.Instance().Has(key)
	if err != nil || ok {
		t.Fatalf("removed key still present (%v, %v)", ok, err)
	}
}

func TestDurabilitiesAndContractsIsolated(t *testing.T) {
	db := storage.NewMemDB()
	envA := NewEnv(db, "acl")
	envB := NewEnv(db, "gov")
	key := TaggedKey{Tag: 0x01}

	if err := envA.Instance().Set(key, uint32(1)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := envA.Persistent().Set(key, uint32(2)); err != nil {
		t.Fatalf("set: %v", err)
	}

	var value uint32
	found, err := envA.Instance().Get(key, &value)
	if err != nil || !found || value != 1 {
		t.Fatalf("instance read = (%d, %v, %v)", value, found, err)
	}
	found, err = envA.Persistent().Get(key, &value)
	if err != nil || !found || value != 2 {
		t.Fatalf("persistent read = (%d, %v, %v)", value, found, err)
	}
	found, err = envB.Instance().Get(key, &value)
	if err != nil || found {
		t.Fatalf("cross-contract leak: (%v, %v)", found, err)
	}
}

func TestAuthorizedSet(t *testing.T) {
	set := NewAuthorizedSet()
	addr := testAddr(5)
	if err := set.RequireAuth(addr); err == nil {
		t.Fatalf("empty set authorized")
	}
	set.Authorize(addr)
	if err := set.RequireAuth(addr); err != nil {
		t.Fatalf("authorized address rejected: %v", err)
	}
	set.Revoke(addr)
	if err := set.RequireAuth(addr); err == nil {
		t.Fatalf("revoked address authorized")
	}
}

func TestManualLedger(t *testing.T) {
	ledger := NewManualLedger(10, 1000)
	if ledger.Sequence() != 10 || ledger.Timestamp() != 1000 {
		t.Fatalf("initial clock = (%d, %d)", ledger.Sequence(), ledger.Timestamp())
	}
	ledger.Advance(5)
	ledger.SetTimestamp(2000)
	if ledger.Sequence() != 15 || ledger.Timestamp() != 2000 {
		t.Fatalf("advanced clock = (%d, %d)", ledger.Sequence(), ledger.Timestamp())
	}
}
