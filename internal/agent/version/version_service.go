package version

import (
	"time"

	"sysinfo-agent/internal/config"
)

// Get describes the running agent. A request naming another node is answered
// with Mismatch set.
func Get(cfg config.Config, req *GetVersionRequest) *GetVersionResponse {
	resp := &GetVersionResponse{
		NodeID:          cfg.NodeID,
		AgentVersion:    cfg.AgentVersion,
		StreamMode:      string(cfg.StreamMode),
		ProbeListenAddr: cfg.ProbeListenAddr,
		CheckedAtUnix:   time.Now().UTC().Unix(),
	}
	if req != nil && req.NodeID != "" && req.NodeID != cfg.NodeID {
		resp.Mismatch = true
	}
	return resp
}
