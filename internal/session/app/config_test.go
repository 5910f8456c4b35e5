package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_ACCESS_SECRET", "a")
	t.Setenv("SESSION_REFRESH_SECRET", "b")

	cfg := LoadConfig()
	require.Equal(t, "sessiond.db", cfg.DatabaseFile)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SESSION_DATABASE_FILE", "/tmp/test.db")
	t.Setenv("PORT", "9090")
	t.Setenv("SHUTDOWN_GRACE_PERIOD", "30s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()
	require.Equal(t, "/tmp/test.db", cfg.DatabaseFile)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 30*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"missing access secret", Config{RefreshSecret: "r"}, "SESSION_ACCESS_SECRET"},
		{"missing refresh secret", Config{AccessSecret: "a"}, "SESSION_REFRESH_SECRET"},
		{"identical secrets", Config{AccessSecret: "s", RefreshSecret: "s"}, "must differ"},
		{"valid", Config{AccessSecret: "a", RefreshSecret: "r"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}
