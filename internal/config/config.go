package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type StreamMode string

const (
	StreamModeGRPC      StreamMode = "grpc"
	StreamModeWebSocket StreamMode = "websocket"
	StreamModeHTTP      StreamMode = "http"
	StreamModeRedis     StreamMode = "redis"
	HardcodedVersion    string     = "V0.3"
)

// DefaultNICIgnorePattern skips loopback, bridge and container interfaces.
const DefaultNICIgnorePattern = `^(lo|br|docker|veth)`

type Config struct {
	NodeID          string        `env:"SYSINFO_NODE_ID"`
	Hostname        string        `env:"-"`
	ProbeListenAddr string        `env:"SYSINFO_PROBE_ADDR" envDefault:"0.0.0.0:7443"`
	ShutdownTimeout time.Duration `env:"SYSINFO_SHUTDOWN_TIMEOUT" envDefault:"20s"`
	AgentVersion    string        `env:"-"`

	StreamMode      StreamMode    `env:"SYSINFO_STREAM_MODE" envDefault:"grpc"`
	BackendGRPCAddr string        `env:"SYSINFO_BACKEND_GRPC_ADDR" envDefault:"127.0.0.1:3001"`
	BackendWSURL    string        `env:"SYSINFO_BACKEND_WS_URL" envDefault:"ws://127.0.0.1:3001/ws/metrics"`
	BackendHTTPURL  string        `env:"SYSINFO_BACKEND_HTTP_URL" envDefault:"http://127.0.0.1:3001"`
	BackendToken    string        `env:"SYSINFO_BACKEND_TOKEN" envDefault:"source-sysinfo"`
	RedisAddr       string        `env:"SYSINFO_REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword   string        `env:"SYSINFO_REDIS_PASSWORD"`
	RedisDB         int           `env:"SYSINFO_REDIS_DB" envDefault:"0"`
	RedisTTL        time.Duration `env:"SYSINFO_REDIS_TTL" envDefault:"30s"`

	GRPCDeclareMethod     string `env:"SYSINFO_GRPC_DECLARE_METHOD" envDefault:"/sysinfo.metrics.v1.MetricsService/DeclareMetrics"`
	GRPCPointStreamMethod string `env:"SYSINFO_GRPC_POINT_STREAM_METHOD" envDefault:"/sysinfo.metrics.v1.MetricsService/StreamPoints"`

	WebSocketWriteTimeout time.Duration `env:"SYSINFO_WS_WRITE_TIMEOUT" envDefault:"5s"`
	WebSocketPingInterval time.Duration `env:"SYSINFO_WS_PING_INTERVAL" envDefault:"10s"`

	TLSEnabled    bool   `env:"SYSINFO_TLS_ENABLED" envDefault:"false"`
	TLSSkipVerify bool   `env:"SYSINFO_TLS_SKIP_VERIFY" envDefault:"false"`
	TLSCAPath     string `env:"SYSINFO_TLS_CA_PATH"`
	TLSCertPath   string `env:"SYSINFO_TLS_CERT_PATH"`
	TLSKeyPath    string `env:"SYSINFO_TLS_KEY_PATH"`

	LogJSON  bool   `env:"SYSINFO_LOG_JSON" envDefault:"true"`
	LogLevel string `env:"SYSINFO_LOG_LEVEL" envDefault:"info"`

	SendTimeout         time.Duration `env:"SYSINFO_SEND_TIMEOUT" envDefault:"5s"`
	DispatchConcurrency int           `env:"SYSINFO_DISPATCH_CONCURRENCY" envDefault:"64"`
	NICIgnorePattern    string        `env:"SYSINFO_NIC_IGNORE_PATTERN" envDefault:"^(lo|br|docker|veth)"`

	// Rate and Prefix feed the static config event when no source file is set.
	Rate             float64 `env:"SYSINFO_RATE"`
	Prefix           string  `env:"SYSINFO_PREFIX"`
	SourceConfigPath string  `env:"SYSINFO_SOURCE_CONFIG"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Hostname = Hostname()
	if strings.TrimSpace(cfg.NodeID) == "" {
		cfg.NodeID = cfg.Hostname
	}
	cfg.AgentVersion = HardcodedVersion
	cfg.StreamMode = StreamMode(strings.ToLower(strings.TrimSpace(string(cfg.StreamMode))))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.NodeID == "" {
		return errors.New("SYSINFO_NODE_ID is required")
	}
	if strings.TrimSpace(c.AgentVersion) == "" {
		return errors.New("agent version must not be empty")
	}
	if strings.TrimSpace(c.ProbeListenAddr) == "" {
		return errors.New("SYSINFO_PROBE_ADDR is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SYSINFO_SHUTDOWN_TIMEOUT must be > 0")
	}
	if c.SendTimeout <= 0 {
		return errors.New("SYSINFO_SEND_TIMEOUT must be > 0")
	}
	if c.DispatchConcurrency <= 0 {
		return errors.New("SYSINFO_DISPATCH_CONCURRENCY must be > 0")
	}
	if _, err := regexp.Compile(c.NICIgnorePattern); err != nil {
		return fmt.Errorf("SYSINFO_NIC_IGNORE_PATTERN: %w", err)
	}
	if c.SourceConfigPath == "" && c.Rate <= 0 {
		return errors.New("SYSINFO_RATE must be > 0 when SYSINFO_SOURCE_CONFIG is not set")
	}
	switch c.StreamMode {
	case StreamModeGRPC:
		if c.BackendGRPCAddr == "" {
			return errors.New("SYSINFO_BACKEND_GRPC_ADDR is required for grpc mode")
		}
		if strings.TrimSpace(c.GRPCDeclareMethod) == "" {
			return errors.New("SYSINFO_GRPC_DECLARE_METHOD is required for grpc mode")
		}
		if strings.TrimSpace(c.GRPCPointStreamMethod) == "" {
			return errors.New("SYSINFO_GRPC_POINT_STREAM_METHOD is required for grpc mode")
		}
	case StreamModeWebSocket:
		if c.BackendWSURL == "" {
			return errors.New("SYSINFO_BACKEND_WS_URL is required for websocket mode")
		}
	case StreamModeHTTP:
		if c.BackendHTTPURL == "" {
			return errors.New("SYSINFO_BACKEND_HTTP_URL is required for http mode")
		}
	case StreamModeRedis:
		if c.RedisAddr == "" {
			return errors.New("SYSINFO_REDIS_ADDR is required for redis mode")
		}
		if c.RedisTTL <= 0 {
			return errors.New("SYSINFO_REDIS_TTL must be > 0")
		}
	default:
		return fmt.Errorf("unsupported stream mode %q", c.StreamMode)
	}
	return nil
}

func (c Config) TLSConfig() (*tls.Config, error) {
	if !c.TLSEnabled {
		return nil, nil
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: c.TLSSkipVerify}
	if c.TLSCAPath != "" {
		caBytes, err := os.ReadFile(c.TLSCAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, errors.New("append CA cert failed")
		}
		tlsCfg.RootCAs = pool
	}
	if c.TLSCertPath != "" || c.TLSKeyPath != "" {
		if c.TLSCertPath == "" || c.TLSKeyPath == "" {
			return nil, errors.New("both TLS cert and key are required")
		}
		crt, err := tls.LoadX509KeyPair(c.TLSCertPath, c.TLSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load mTLS cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{crt}
	}
	return tlsCfg, nil
}

// StaticParams builds the params of the config event served from the environment.
func (c Config) StaticParams() map[string]any {
	params := map[string]any{}
	if c.Rate > 0 {
		params["rate"] = c.Rate
	}
	if c.Prefix != "" {
		params["prefix"] = c.Prefix
	}
	return params
}

func Hostname() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "unknown-host"
	}
	return hostname
}
