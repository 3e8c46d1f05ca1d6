package stream

import (
	"crypto/tls"
	"fmt"

	"go.uber.org/zap"

	"sysinfo-agent/internal/config"
)

func NewSinkFromConfig(cfg config.Config, tlsCfg *tls.Config, logger *zap.SugaredLogger) (Sink, error) {
	origin := Origin{NodeID: cfg.NodeID, ClientVersion: cfg.AgentVersion}
	switch cfg.StreamMode {
	case config.StreamModeGRPC:
		return NewGRPCClient(
			cfg.BackendGRPCAddr,
			tlsCfg,
			cfg.BackendToken,
			cfg.GRPCDeclareMethod,
			cfg.GRPCPointStreamMethod,
			origin,
			logger,
		), nil
	case config.StreamModeWebSocket:
		return NewWebSocketClient(
			cfg.BackendWSURL,
			cfg.BackendToken,
			tlsCfg,
			cfg.WebSocketWriteTimeout,
			cfg.WebSocketPingInterval,
			origin,
			logger,
		), nil
	case config.StreamModeHTTP:
		return NewHTTPClient(cfg.BackendHTTPURL, cfg.BackendToken, tlsCfg, origin, logger)
	case config.StreamModeRedis:
		return NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL, tlsCfg, origin, logger), nil
	default:
		return nil, fmt.Errorf("unsupported stream mode %q", cfg.StreamMode)
	}
}
