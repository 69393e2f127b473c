package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketwire/internal/auth"
	"github.com/vovakirdan/marketwire/internal/config"
	"github.com/vovakirdan/marketwire/internal/conversation"
	"github.com/vovakirdan/marketwire/internal/proto"
	"github.com/vovakirdan/marketwire/internal/relay"
	"github.com/vovakirdan/marketwire/internal/service/listings"
	"github.com/vovakirdan/marketwire/internal/session"
	"github.com/vovakirdan/marketwire/internal/store/sqlite"
	"github.com/vovakirdan/marketwire/internal/supportchat"
	"github.com/vovakirdan/marketwire/internal/transport/ws"
)

type testEnv struct {
	ts      *httptest.Server
	handler http.Handler
	auth    *auth.Service
	queue   *supportchat.Queue
	wsURL   string
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.JWTSecret = "test-secret"
	cfg.ConnectTimeout = 2 * time.Second
	for _, m := range mutate {
		m(&cfg)
	}

	disabledLogger := zerolog.New(nil)

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	authService := auth.NewService(&auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      time.Hour,
	})

	env := &testEnv{auth: authService, queue: supportchat.NewQueue(cfg.SupportQueueSize)}

	sessions := session.NewManager(func(id session.Identity) conversation.Transport {
		return ws.NewDialer(env.wsURL, id.Token, &disabledLogger)
	}, cfg.ConnectTimeout, &disabledLogger)

	hub := relay.NewHub(&disabledLogger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := NewServer(Deps{
		Hub:          hub,
		Auth:         authService,
		Listings:     listings.New(st, nil, &disabledLogger),
		Sessions:     sessions,
		Support:      supportchat.NewBridge(&disabledLogger),
		SupportQueue: env.queue,
	}, &cfg, &disabledLogger)

	env.handler = server.Handler
	env.ts = httptest.NewServer(server.Handler)
	env.wsURL = strings.Replace(env.ts.URL, "http", "ws", 1) + "/ws"

	t.Cleanup(env.ts.Close)
	t.Cleanup(cancel)
	t.Cleanup(sessions.Close)
	return env
}

// do sends a request through the router and returns the recorded response.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	e.handler.ServeHTTP(resp, req)
	return resp
}

func (e *testEnv) startSession(t *testing.T, username string) string {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/api/session", "", StartSessionRequest{Username: username})
	if resp.Code != http.StatusCreated {
		t.Fatalf("start session: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var s SessionResponse
	decode(t, resp, &s)
	return s.Token
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", resp.Body.String(), err)
	}
}

func expectStatus(t *testing.T, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.Code, resp.Body.String())
	}
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func dialRelay(t *testing.T, ctx context.Context, url, token string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, url+"?token="+token, nil)
	if err != nil {
		t.Fatalf("dial relay: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func writeInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil reads frames until one matches typ and event.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, typ, event string) proto.OutboundFrame {
	t.Helper()
	for {
		var frame proto.OutboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("read frame waiting for %s/%s: %v", typ, event, err)
		}
		if frame.Type == typ && (event == "" || frame.Event == event) {
			return frame
		}
	}
}
