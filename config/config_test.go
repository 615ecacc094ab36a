package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: dev
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.ListenAddress)
	require.Equal(t, uint32(50), cfg.Genesis.Governance.QuorumPercent)
	require.Equal(t, 5*time.Second, cfg.Ledger.Interval())
	require.Equal(t, 2*time.Minute, cfg.Auth.ClockSkew())
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
environment: prod
data_dir: /var/lib/stellarguard
auth:
  enabled: true
  hmac_secret: sekrit
  issuer: stellarguard
  audience: gateway
  clock_skew_seconds: 30
ledger:
  genesis_unix: 1700000000
  interval_seconds: 10
genesis:
  governance:
    admin: sgadmin
    members: [sga, sgb]
    quorum_percent: 60
    voting_period: 100
  treasury:
    admin: sgadmin
    threshold: 2
    signers: [sga, sgb, sgc]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.ListenAddress)
	require.Equal(t, 30*time.Second, cfg.Auth.ClockSkew())
	require.Equal(t, 10*time.Second, cfg.Ledger.Interval())
	require.Equal(t, uint32(60), cfg.Genesis.Governance.QuorumPercent)
	require.Len(t, cfg.Genesis.Treasury.Signers, 3)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"auth without secret", `
auth:
  enabled: true
`},
		{"quorum out of range", `
genesis:
  governance:
    admin: sgadmin
    members: [sga]
    quorum_percent: 101
`},
		{"governance without members", `
genesis:
  governance:
    admin: sgadmin
    quorum_percent: 50
`},
		{"treasury threshold above signers", `
genesis:
  treasury:
    admin: sgadmin
    threshold: 3
    signers: [sga, sgb]
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
