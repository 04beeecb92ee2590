package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/hopline/internal/loop"
	"github.com/tomz197/hopline/internal/protocol"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	tn := loop.DefaultTuning()
	tn.FirstSpawnDelay = time.Hour
	s, err := New(log.New(io.Discard),
		WithBroadcastInterval(10*time.Millisecond),
		WithDriverOptions(loop.WithSessionOptions(loop.WithTuning(tn))),
	)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func sendMsg(t *testing.T, ws *websocket.Conn, typ string, payload any) {
	t.Helper()
	b, err := protocol.Encode(typ, payload)
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, b))
}

// readUntil reads until an envelope of type typ satisfies match.
func readUntil(t *testing.T, ws *websocket.Conn, typ string, match func(protocol.Envelope) bool) protocol.Envelope {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, msg, err := ws.ReadMessage()
		require.NoError(t, err)
		e, err := protocol.DecodeEnvelope(msg)
		require.NoError(t, err)
		if e.T == typ && (match == nil || match(e)) {
			return e
		}
	}
}

func TestServer_StreamsState(t *testing.T) {
	_, ts := newTestServer(t)
	ws := dial(t, ts)

	e := readUntil(t, ws, protocol.MsgState, nil)
	var snap loop.Snapshot
	require.NoError(t, json.Unmarshal(e.P, &snap))
	assert.Equal(t, uint64(1), snap.Epoch)
	assert.Equal(t, loop.DefaultTuning().Lives, snap.Lives)
}

func TestServer_ResetStartsNewEpoch(t *testing.T) {
	_, ts := newTestServer(t)
	ws := dial(t, ts)

	sendMsg(t, ws, protocol.MsgReset, nil)
	readUntil(t, ws, protocol.MsgState, func(e protocol.Envelope) bool {
		var snap loop.Snapshot
		return json.Unmarshal(e.P, &snap) == nil && snap.Epoch == 2
	})
}

func TestServer_RejectsUnknownMessage(t *testing.T) {
	_, ts := newTestServer(t)
	ws := dial(t, ts)

	sendMsg(t, ws, "teleport", nil)
	e := readUntil(t, ws, protocol.MsgError, nil)
	p, err := protocol.DecodePayload[protocol.Error](e)
	require.NoError(t, err)
	assert.Contains(t, p.Message, "teleport")
}

func TestServer_ReportsCalibrationPhase(t *testing.T) {
	_, ts := newTestServer(t)
	ws := dial(t, ts)

	sendMsg(t, ws, protocol.MsgCalibrate, nil)
	e := readUntil(t, ws, protocol.MsgCalibration, nil)
	p, err := protocol.DecodePayload[protocol.Calibration](e)
	require.NoError(t, err)
	assert.Equal(t, "standing", p.Phase)
}

func TestServer_TracksActiveSessions(t *testing.T) {
	s, ts := newTestServer(t)
	ws := dial(t, ts)
	readUntil(t, ws, protocol.MsgState, nil)
	assert.Equal(t, 1, s.Active())

	require.NoError(t, ws.Close())
	require.Eventually(t, func() bool { return s.Active() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_CloseEndsSessions(t *testing.T) {
	s, ts := newTestServer(t)
	ws := dial(t, ts)
	readUntil(t, ws, protocol.MsgState, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Close(ctx))
	assert.Equal(t, 0, s.Active())

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_Health(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["sessions"])
}
