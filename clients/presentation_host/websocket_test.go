package presentation_host

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handsfree-presenter/slideshow"
)

// fakeBridge pushes events to the client and records its requests.
type fakeBridge struct {
	server   *httptest.Server
	events   chan string
	requests chan request
}

func newFakeBridge(t *testing.T) *fakeBridge {
	t.Helper()

	b := &fakeBridge{
		events:   make(chan string, 8),
		requests: make(chan request, 8),
	}

	upgrader := websocket.Upgrader{}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		go func() {
			for {
				var req request
				if err := conn.ReadJSON(&req); err != nil {
					return
				}
				b.requests <- req
			}
		}()

		for ev := range b.events {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(ev)); err != nil {
				return
			}
		}

		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	t.Cleanup(b.server.Close)

	return b
}

func (b *fakeBridge) url() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http")
}

func nextEvent(t *testing.T, events <-chan slideshow.HostEvent) slideshow.HostEvent {
	t.Helper()

	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no host event")
	}

	return slideshow.HostEvent{}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{})
	assert.Error(t, err)
}

func TestClient(t *testing.T) {
	bridge := newFakeBridge(t)

	client, err := New(&Config{URL: bridge.url()})
	require.NoError(t, err)

	assert.ErrorIs(t, client.Next(), ErrNotConnected)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, client.Connect(ctx))
	defer client.Close()

	assert.Error(t, client.Connect(ctx))

	t.Run("events are delivered in order", func(t *testing.T) {
		bridge.events <- `{"type":"show_begin","slide_id":256,"slide_count":12}`
		bridge.events <- `not json`
		bridge.events <- `{"type":"slide_changed","slide_id":257}`

		assert.Equal(t, slideshow.HostEvent{Type: slideshow.ShowBegin, SlideID: 256, SlideCount: 12}, nextEvent(t, client.Events()))
		assert.Equal(t, slideshow.HostEvent{Type: slideshow.SlideChanged, SlideID: 257}, nextEvent(t, client.Events()))
		assert.Equal(t, 12, client.SlideCount())
	})

	t.Run("navigation is sent as requests", func(t *testing.T) {
		require.NoError(t, client.Next())
		require.NoError(t, client.Previous())
		require.NoError(t, client.GotoSlide(4))
		require.NoError(t, client.EndShow())

		var got []request
		for i := 0; i < 4; i++ {
			select {
			case req := <-bridge.requests:
				got = append(got, req)
			case <-time.After(time.Second):
				t.Fatal("request not received")
			}
		}

		assert.Equal(t, []request{
			{Action: "next"},
			{Action: "previous"},
			{Action: "goto_slide", Slide: 4},
			{Action: "end_show"},
		}, got)
	})

	t.Run("events close when the bridge hangs up", func(t *testing.T) {
		close(bridge.events)

		select {
		case _, open := <-client.Events():
			assert.False(t, open)
		case <-time.After(time.Second):
			t.Fatal("events were not closed")
		}
	})
}

func TestClient_CancelClosesEvents(t *testing.T) {
	bridge := newFakeBridge(t)
	defer close(bridge.events)

	client, err := New(&Config{URL: bridge.url()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, client.Connect(ctx))

	cancel()

	select {
	case _, open := <-client.Events():
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("events were not closed after cancel")
	}

	assert.Error(t, client.Next())
}

func TestClient_Unreachable(t *testing.T) {
	client, err := New(&Config{URL: "ws://127.0.0.1:1/presentation", HandshakeTimeout: 100 * time.Millisecond})
	require.NoError(t, err)

	assert.Error(t, client.Connect(context.Background()))
}
