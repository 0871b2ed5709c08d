package sensor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handsfree-presenter/skeleton"
)

func frameLine(t *testing.T, n int64) string {
	t.Helper()

	data, err := json.Marshal(skeleton.Frame{
		FrameNumber: n,
		Skeletons: []skeleton.Skeleton{{
			TrackingState: skeleton.Tracked,
			Joints:        map[skeleton.JointID]skeleton.Vector{skeleton.JointHandRight: {X: float64(n)}},
		}},
	})
	require.NoError(t, err)

	return string(data)
}

type frameCollector struct {
	mu     sync.Mutex
	frames []skeleton.Frame
}

func (c *frameCollector) handle(f skeleton.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
}

func (c *frameCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestReplay_New(t *testing.T) {
	_, err := NewReplay(nil)
	assert.Error(t, err)

	_, err = NewReplay(&ReplayConfig{Path: "frames.jsonl"})
	assert.Error(t, err)

	_, err = NewReplay(&ReplayConfig{FileSys: afero.NewMemMapFs()})
	assert.Error(t, err)
}

func TestReplay_ProbeAndStream(t *testing.T) {
	fs := afero.NewMemMapFs()
	lines := []string{frameLine(t, 1), "{not json", "", frameLine(t, 2), frameLine(t, 3)}
	require.NoError(t, afero.WriteFile(fs, "frames.jsonl", []byte(strings.Join(lines, "\n")), 0644))

	src, err := NewReplay(&ReplayConfig{FileSys: fs, Path: "frames.jsonl", FrameInterval: time.Millisecond})
	require.NoError(t, err)

	t.Run("probe fails for a missing recording", func(t *testing.T) {
		missing, err := NewReplay(&ReplayConfig{FileSys: fs, Path: "nope.jsonl"})
		require.NoError(t, err)
		assert.Error(t, missing.Probe(context.Background()))
	})

	require.NoError(t, src.Probe(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	collector := &frameCollector{}
	done := make(chan error, 1)
	go func() { done <- src.Stream(ctx, collector.handle) }()

	require.Eventually(t, func() bool { return collector.count() == 3 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not return after cancellation")
	}

	assert.Equal(t, int64(1), collector.frames[0].FrameNumber)
	assert.Equal(t, int64(2), collector.frames[1].FrameNumber)
	assert.Equal(t, int64(3), collector.frames[2].FrameNumber)
}

func TestReplay_Loop(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "frames.jsonl", []byte(frameLine(t, 1)+"\n"+frameLine(t, 2)+"\n"), 0644))

	src, err := NewReplay(&ReplayConfig{FileSys: fs, Path: "frames.jsonl", FrameInterval: time.Millisecond, Loop: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := &frameCollector{}
	go func() { _ = src.Stream(ctx, collector.handle) }()

	assert.Eventually(t, func() bool { return collector.count() >= 5 }, time.Second, time.Millisecond)
}

func sensorBridge(t *testing.T, messages []string) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}

		// hold the session open until the client leaves
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func TestWebSocket_Stream(t *testing.T) {
	server := sensorBridge(t, []string{frameLine(t, 7), "garbage", frameLine(t, 8)})
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	src, err := NewWebSocket(&WebSocketConfig{URL: url})
	require.NoError(t, err)
	require.NoError(t, src.Probe(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	collector := &frameCollector{}
	done := make(chan error, 1)
	go func() { done <- src.Stream(ctx, collector.handle) }()

	require.Eventually(t, func() bool { return collector.count() == 2 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not return after cancellation")
	}

	assert.Equal(t, int64(7), collector.frames[0].FrameNumber)
	assert.Equal(t, int64(8), collector.frames[1].FrameNumber)
}

func TestWebSocket_Unreachable(t *testing.T) {
	src, err := NewWebSocket(&WebSocketConfig{URL: "ws://127.0.0.1:1/skeleton", HandshakeTimeout: 100 * time.Millisecond})
	require.NoError(t, err)

	assert.Error(t, src.Probe(context.Background()))
	assert.Error(t, src.Stream(context.Background(), func(skeleton.Frame) {}))

	_, err = NewWebSocket(&WebSocketConfig{})
	assert.Error(t, err)
}
