package stream

import (
	"context"
	"encoding/json"
	"time"

	"sysinfo-agent/internal/model"
)

// Sink delivers declarations and points to a metrics backend. Send may be
// called from many goroutines at once.
type Sink interface {
	Declare(ctx context.Context, decl model.Declarations) error
	Send(ctx context.Context, p model.Point) error
	Close(ctx context.Context) error
}

// Origin identifies the agent in every frame it sends.
type Origin struct {
	NodeID        string
	ClientVersion string
}

type DeclareFrame struct {
	NodeID        string             `json:"node_id"`
	ClientVersion string             `json:"client_version"`
	TimestampUnix int64              `json:"timestamp_unix"`
	Metrics       model.Declarations `json:"metrics"`
}

type PointFrame struct {
	NodeID            string  `json:"node_id"`
	Metric            string  `json:"metric"`
	TimestampUnixNano int64   `json:"timestamp_unix_nano"`
	Value             float64 `json:"value"`
}

// DeclareAck is the reply of the unary declare call.
type DeclareAck struct {
	Error string `json:"error,omitempty"`
}

func EncodeEnvelope(e model.Envelope) ([]byte, error) {
	return json.Marshal(e)
}

func NewDeclareFrame(o Origin, decl model.Declarations, at time.Time) DeclareFrame {
	return DeclareFrame{NodeID: o.NodeID, ClientVersion: o.ClientVersion, TimestampUnix: at.Unix(), Metrics: decl}
}

func NewPointFrame(o Origin, p model.Point) PointFrame {
	return PointFrame{NodeID: o.NodeID, Metric: p.Metric, TimestampUnixNano: p.Timestamp.UnixNano(), Value: p.Value}
}

func DeclareEnvelope(o Origin, decl model.Declarations, at time.Time) model.Envelope {
	return model.Envelope{
		Type:          model.MessageTypeDeclare,
		NodeID:        o.NodeID,
		ClientVersion: o.ClientVersion,
		Timestamp:     at,
		Payload:       NewDeclareFrame(o, decl, at),
	}
}

func PointEnvelope(o Origin, p model.Point) model.Envelope {
	return model.Envelope{
		Type:      model.MessageTypePoint,
		NodeID:    o.NodeID,
		Timestamp: p.Timestamp,
		Payload:   NewPointFrame(o, p),
	}
}
