package stream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sysinfo-agent/internal/model"
)

func TestPointEnvelopeJSON(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)
	raw, err := EncodeEnvelope(PointEnvelope(Origin{NodeID: "n1"}, model.Point{Metric: "node1.cpu.usage", Timestamp: at, Value: 12.5}))
	require.NoError(t, err)

	var decoded struct {
		Type    string     `json:"type"`
		NodeID  string     `json:"node_id"`
		Payload PointFrame `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "point", decoded.Type)
	assert.Equal(t, "n1", decoded.NodeID)
	assert.Equal(t, PointFrame{NodeID: "n1", Metric: "node1.cpu.usage", TimestampUnixNano: at.UnixNano(), Value: 12.5}, decoded.Payload)
}

func TestDeclareEnvelopeCarriesClientVersion(t *testing.T) {
	decl := model.Declarations{"node1.mem.percent": {Rate: 1, Unit: "%"}}
	env := DeclareEnvelope(Origin{NodeID: "n1", ClientVersion: "V0.3"}, decl, time.Unix(100, 0))

	assert.Equal(t, model.MessageTypeDeclare, env.Type)
	assert.Equal(t, "V0.3", env.ClientVersion)
	frame, ok := env.Payload.(DeclareFrame)
	require.True(t, ok)
	assert.Equal(t, int64(100), frame.TimestampUnix)
	assert.Equal(t, decl, frame.Metrics)
}

func TestRedisKeys(t *testing.T) {
	assert.Equal(t, "sysinfo:n1:metadata", MetadataKey("n1"))
	assert.Equal(t, "sysinfo:latest:node1.cpu.usage", LatestKey("node1.cpu.usage"))
	assert.Equal(t, "sysinfo:n1:points", PointsChannel("n1"))
}
