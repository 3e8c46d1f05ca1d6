package stream

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"

	"sysinfo-agent/internal/model"
)

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// GRPCClient declares metrics with a unary call and streams points over a
// long-lived client stream.
type GRPCClient struct {
	mu sync.Mutex

	logger        *zap.SugaredLogger
	origin        Origin
	addr          string
	tlsConfig     *tls.Config
	token         string
	declareMethod string
	pointMethod   string
	conn          *grpc.ClientConn
	pointStream   grpc.ClientStream
	streamCancel  context.CancelFunc
	dialTimeout   time.Duration
}

func NewGRPCClient(addr string, tlsCfg *tls.Config, token, declareMethod, pointMethod string, origin Origin, logger *zap.SugaredLogger) *GRPCClient {
	encoding.RegisterCodec(jsonCodec{})
	return &GRPCClient{
		logger:        logger,
		origin:        origin,
		addr:          addr,
		tlsConfig:     tlsCfg,
		token:         token,
		declareMethod: declareMethod,
		pointMethod:   pointMethod,
		dialTimeout:   8 * time.Second,
	}
}

func (c *GRPCClient) Declare(ctx context.Context, decl model.Declarations) error {
	c.mu.Lock()
	err := c.ensureConnLocked(ctx)
	conn := c.conn
	c.mu.Unlock()
	if err != nil {
		return err
	}

	var ack DeclareAck
	frame := NewDeclareFrame(c.origin, decl, time.Now().UTC())
	if err := conn.Invoke(c.withAuth(ctx), c.declareMethod, &frame, &ack); err != nil {
		return fmt.Errorf("declare %d metrics: %w", len(decl), err)
	}
	if ack.Error != "" {
		return fmt.Errorf("declare rejected: %s", ack.Error)
	}
	return nil
}

func (c *GRPCClient) Send(ctx context.Context, p model.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureConnLocked(ctx); err != nil {
		return err
	}
	if c.pointStream == nil {
		if err := c.openPointStreamLocked(); err != nil {
			return err
		}
	}
	frame := NewPointFrame(c.origin, p)
	if err := c.pointStream.SendMsg(&frame); err != nil {
		c.logger.Warnw("grpc point send failed, reopening stream", "error", err)
		c.closePointStreamLocked()
		if err2 := c.openPointStreamLocked(); err2 != nil {
			return fmt.Errorf("reopen point stream: %w", err2)
		}
		if err2 := c.pointStream.SendMsg(&frame); err2 != nil {
			return fmt.Errorf("send point frame: %w", err2)
		}
	}
	return nil
}

func (c *GRPCClient) Close(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closePointStreamLocked()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *GRPCClient) ensureConnLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	var creds credentials.TransportCredentials
	if c.tlsConfig != nil {
		creds = credentials.NewTLS(c.tlsConfig)
	} else {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.DialContext(
		dialCtx,
		c.addr,
		grpc.WithTransportCredentials(creds),
		grpc.WithBlock(),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{}), grpc.CallContentSubtype("json")),
	)
	if err != nil {
		return fmt.Errorf("grpc dial %s: %w", c.addr, err)
	}
	c.conn = conn
	c.logger.Infow("grpc stream connected", "addr", c.addr)
	return nil
}

// openPointStreamLocked opens the point stream on its own context so it
// outlives the per-send deadline.
func (c *GRPCClient) openPointStreamLocked() error {
	if c.conn == nil {
		return errors.New("grpc conn is nil")
	}
	streamCtx, cancel := context.WithCancel(context.Background())
	s, err := c.conn.NewStream(c.withAuth(streamCtx), &grpc.StreamDesc{ClientStreams: true}, c.pointMethod)
	if err != nil {
		cancel()
		return fmt.Errorf("open point stream: %w", err)
	}
	c.pointStream = s
	c.streamCancel = cancel
	return nil
}

func (c *GRPCClient) closePointStreamLocked() {
	if c.pointStream != nil {
		_ = c.pointStream.CloseSend()
		c.pointStream = nil
	}
	if c.streamCancel != nil {
		c.streamCancel()
		c.streamCancel = nil
	}
}

func (c *GRPCClient) withAuth(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}
