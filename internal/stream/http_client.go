package stream

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"sysinfo-agent/internal/model"
)

const (
	httpDeclarePath = "declare"
	httpPointsPath  = "points"
)

// HTTPClient posts gzip-compressed JSON frames to a REST ingest endpoint.
// Requests refused at the TCP level are retried with backoff.
type HTTPClient struct {
	origin  Origin
	client  *resty.Client
	declare string
	points  string
}

func NewHTTPClient(baseURL, token string, tlsCfg *tls.Config, origin Origin, logger *zap.SugaredLogger) (*HTTPClient, error) {
	declareURL, err := url.JoinPath(baseURL, httpDeclarePath)
	if err != nil {
		return nil, fmt.Errorf("failed to join URL path: %w", err)
	}
	pointsURL, err := url.JoinPath(baseURL, httpPointsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to join URL path: %w", err)
	}

	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("Content-Encoding", "gzip").
		SetRetryCount(3).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(_ *resty.Response, err error) bool {
			return errors.Is(err, syscall.ECONNREFUSED)
		}).
		AddRetryHook(func(_ *resty.Response, err error) {
			logger.Warnw("backend refused connection, retrying", "error", err)
		})
	if token != "" {
		client.SetAuthToken(token)
	}
	if tlsCfg != nil {
		client.SetTLSClientConfig(tlsCfg)
	}

	return &HTTPClient{
		origin:  origin,
		client:  client,
		declare: declareURL,
		points:  pointsURL,
	}, nil
}

func (c *HTTPClient) Declare(ctx context.Context, decl model.Declarations) error {
	return c.post(ctx, c.declare, NewDeclareFrame(c.origin, decl, time.Now().UTC()))
}

func (c *HTTPClient) Send(ctx context.Context, p model.Point) error {
	return c.post(ctx, c.points, NewPointFrame(c.origin, p))
}

func (c *HTTPClient) Close(_ context.Context) error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

func (c *HTTPClient) post(ctx context.Context, target string, frame any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}
	body, err := CompressData(data)
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(target)
	if err != nil {
		return fmt.Errorf("post %s: %w", target, err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func CompressData(data []byte) ([]byte, error) {
	var buffer bytes.Buffer

	w := gzip.NewWriter(&buffer)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
