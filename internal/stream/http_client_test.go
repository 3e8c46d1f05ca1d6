package stream

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sysinfo-agent/internal/model"
)

func decompress(t *testing.T, body io.Reader) []byte {
	t.Helper()
	r, err := gzip.NewReader(body)
	require.NoError(t, err)
	defer r.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestHTTPClientPostsGzipFrames(t *testing.T) {
	var (
		mu       sync.Mutex
		declared DeclareFrame
		points   []PointFrame
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "gzip", r.Header.Get("Content-Encoding"))
		assert.Equal(t, "Bearer source-sysinfo", r.Header.Get("Authorization"))

		data := decompress(t, r.Body)
		mu.Lock()
		defer mu.Unlock()
		switch r.URL.Path {
		case "/api/declare":
			assert.NoError(t, json.Unmarshal(data, &declared))
		case "/api/points":
			var p PointFrame
			assert.NoError(t, json.Unmarshal(data, &p))
			points = append(points, p)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL+"/api", "source-sysinfo", nil, Origin{NodeID: "n1", ClientVersion: "V0.3"}, zap.NewNop().Sugar())
	require.NoError(t, err)

	ctx := context.Background()
	decl := model.Declarations{"node1.cpu.usage": {Rate: 1, Unit: "%", Description: "cpu"}}
	require.NoError(t, c.Declare(ctx, decl))

	at := time.Unix(10, 5)
	require.NoError(t, c.Send(ctx, model.Point{Metric: "node1.cpu.usage", Timestamp: at, Value: 3}))
	require.NoError(t, c.Close(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "n1", declared.NodeID)
	assert.Equal(t, "V0.3", declared.ClientVersion)
	assert.Equal(t, decl, declared.Metrics)
	require.Len(t, points, 1)
	assert.Equal(t, PointFrame{NodeID: "n1", Metric: "node1.cpu.usage", TimestampUnixNano: at.UnixNano(), Value: 3}, points[0])
}

func TestHTTPClientRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, "", nil, Origin{NodeID: "n1"}, zap.NewNop().Sugar())
	require.NoError(t, err)

	err = c.Send(context.Background(), model.Point{Metric: "x", Timestamp: time.Now()})
	assert.ErrorContains(t, err, "server returned status 400")
}

func TestCompressDataRoundTrip(t *testing.T) {
	compressed, err := CompressData([]byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(decompress(t, bytes.NewReader(compressed))))
}
