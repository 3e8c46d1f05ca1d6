package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"sysinfo-agent/internal/model"
)

func TestWebSocketClientSendsEnvelopes(t *testing.T) {
	received := make(chan map[string]any, 4)
	authHeader := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader <- r.Header.Get("Authorization")
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			var msg map[string]any
			if json.Unmarshal(data, &msg) == nil {
				received <- msg
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewWebSocketClient(url, "tok", nil, time.Second, time.Hour, Origin{NodeID: "n1", ClientVersion: "V0.3"}, zap.NewNop().Sugar())
	defer c.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Declare(ctx, model.Declarations{"node1.cpu.usage": {Rate: 1, Unit: "%"}}))
	require.NoError(t, c.Send(ctx, model.Point{Metric: "node1.cpu.usage", Timestamp: time.Now(), Value: 7}))

	assert.Equal(t, "Bearer tok", <-authHeader)

	first := <-received
	assert.Equal(t, "declare", first["type"])
	assert.Equal(t, "V0.3", first["client_version"])

	second := <-received
	assert.Equal(t, "point", second["type"])
	payload, ok := second["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "node1.cpu.usage", payload["metric"])
	assert.Equal(t, 7.0, payload["value"])
}
