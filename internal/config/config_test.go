package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SYSINFO_RATE", "2")
	t.Setenv("SYSINFO_NODE_ID", "node-a")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "node-a", cfg.NodeID)
	assert.Equal(t, StreamModeGRPC, cfg.StreamMode)
	assert.Equal(t, "source-sysinfo", cfg.BackendToken)
	assert.Equal(t, DefaultNICIgnorePattern, cfg.NICIgnorePattern)
	assert.Equal(t, 5*time.Second, cfg.SendTimeout)
	assert.Equal(t, 64, cfg.DispatchConcurrency)
	assert.Equal(t, HardcodedVersion, cfg.AgentVersion)
	assert.Equal(t, map[string]any{"rate": 2.0}, cfg.StaticParams())
}

func TestNICIgnorePatternEnvDefaultMatchesConstant(t *testing.T) {
	t.Setenv("SYSINFO_RATE", "1")
	t.Setenv("SYSINFO_NIC_IGNORE_PATTERN", "")
	os.Unsetenv("SYSINFO_NIC_IGNORE_PATTERN")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultNICIgnorePattern, cfg.NICIgnorePattern)
}

func TestLoadNodeIDFallsBackToHostname(t *testing.T) {
	t.Setenv("SYSINFO_RATE", "1")
	t.Setenv("SYSINFO_NODE_ID", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Hostname(), cfg.NodeID)
}

func TestLoadStreamModeIsCaseInsensitive(t *testing.T) {
	t.Setenv("SYSINFO_RATE", "1")
	t.Setenv("SYSINFO_STREAM_MODE", "WebSocket")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StreamModeWebSocket, cfg.StreamMode)
}

func validConfig() Config {
	return Config{
		NodeID:                "n1",
		AgentVersion:          HardcodedVersion,
		ProbeListenAddr:       "127.0.0.1:0",
		ShutdownTimeout:       time.Second,
		StreamMode:            StreamModeGRPC,
		BackendGRPCAddr:       "127.0.0.1:3001",
		GRPCDeclareMethod:     "/a/b",
		GRPCPointStreamMethod: "/a/c",
		SendTimeout:           time.Second,
		DispatchConcurrency:   4,
		NICIgnorePattern:      DefaultNICIgnorePattern,
		Rate:                  1,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing rate without source file", func(c *Config) { c.Rate = 0 }, "SYSINFO_RATE"},
		{"bad stream mode", func(c *Config) { c.StreamMode = "amqp" }, "unsupported stream mode"},
		{"bad nic pattern", func(c *Config) { c.NICIgnorePattern = "(" }, "SYSINFO_NIC_IGNORE_PATTERN"},
		{"zero concurrency", func(c *Config) { c.DispatchConcurrency = 0 }, "SYSINFO_DISPATCH_CONCURRENCY"},
		{"websocket without url", func(c *Config) { c.StreamMode = StreamModeWebSocket; c.BackendWSURL = "" }, "SYSINFO_BACKEND_WS_URL"},
		{"http without url", func(c *Config) { c.StreamMode = StreamModeHTTP; c.BackendHTTPURL = "" }, "SYSINFO_BACKEND_HTTP_URL"},
		{"redis without ttl", func(c *Config) { c.StreamMode = StreamModeRedis; c.RedisAddr = "x:1"; c.RedisTTL = 0 }, "SYSINFO_REDIS_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("source file makes rate optional", func(t *testing.T) {
		cfg := validConfig()
		cfg.Rate = 0
		cfg.SourceConfigPath = "/etc/sysinfo/source.yaml"
		assert.NoError(t, cfg.Validate())
	})
}

func TestTLSConfigDisabled(t *testing.T) {
	tlsCfg, err := validConfig().TLSConfig()
	require.NoError(t, err)
	assert.Nil(t, tlsCfg)
}

func TestTLSConfigRequiresCertAndKey(t *testing.T) {
	cfg := validConfig()
	cfg.TLSEnabled = true
	cfg.TLSCertPath = "/tmp/cert.pem"
	_, err := cfg.TLSConfig()
	assert.ErrorContains(t, err, "both TLS cert and key are required")
}
