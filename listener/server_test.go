package listener

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gogpu/ggremote/diff"
	"github.com/gogpu/ggremote/scene"
)

const addRect = `{"render": [{"AddRect": {
	"bounds": {"position": {"left": 0, "top": 0}, "size": {"width": 4, "height": 4}},
	"display": {"color": {"red": 1, "green": 2, "blue": 3, "alpha": 255}}}}]}`

func newTestServer(t *testing.T, opts ...Option) (*Server, *scene.Store, string) {
	t.Helper()
	store := scene.NewStore()
	srv := New(diff.New(store), opts...)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, store, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	return conn
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMessagesAreApplied(t *testing.T) {
	srv, store, url := newTestServer(t)
	conn := dial(t, url+"/")
	defer conn.Close()

	for range 3 {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(addRect)); err != nil {
			t.Fatalf("WriteMessage: %v", err)
		}
	}
	waitFor(t, "three items", func() bool { return store.Len() == 3 })

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"size": [640, 480]}`)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "size override", func() bool {
		sz, ok := store.TakeWindowSize()
		return ok && sz == (scene.Size{Width: 640, Height: 480})
	})
	if got := srv.Stats().Received; got != 4 {
		t.Errorf("Received = %d, want 4", got)
	}
}

func TestBadMessagesKeepConnection(t *testing.T) {
	srv, store, url := newTestServer(t)
	conn := dial(t, url+"/")
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`not json`)); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte(addRect)); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(addRect)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "one item", func() bool { return store.Len() == 1 })
	if got := srv.Stats().Failed; got != 2 {
		t.Errorf("Failed = %d, want 2", got)
	}
}

func TestDisconnectClearsScene(t *testing.T) {
	srv, store, url := newTestServer(t)
	conn := dial(t, url+"/")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(addRect)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "one item", func() bool { return store.Len() == 1 })
	waitFor(t, "peer registered", func() bool { return srv.Peers() == 1 })
	store.TakeRedraw()

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	waitFor(t, "peer removed", func() bool { return srv.Peers() == 0 })
	if store.Len() != 0 {
		t.Errorf("Len = %d after disconnect", store.Len())
	}
	if !store.TakeRedraw() {
		t.Error("disconnect did not mark the scene dirty")
	}
}

func TestReadLimit(t *testing.T) {
	srv, _, url := newTestServer(t, WithReadLimit(64))
	conn := dial(t, url+"/")
	defer conn.Close()

	waitFor(t, "peer registered", func() bool { return srv.Peers() == 1 })
	if err := conn.WriteMessage(websocket.TextMessage, []byte(addRect)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "peer dropped", func() bool { return srv.Peers() == 0 })
}

func TestWrongPath(t *testing.T) {
	_, _, url := newTestServer(t, WithPath("/scene"))
	_, resp, err := websocket.DefaultDialer.Dial(url+"/other", nil)
	if err == nil {
		t.Fatal("Dial to wrong path succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v, want 404", resp)
	}
	conn := dial(t, url+"/scene")
	conn.Close()
}

func TestServeShutdown(t *testing.T) {
	store := scene.NewStore()
	srv := New(diff.New(store))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn := dial(t, "ws://"+ln.Addr().String()+"/")
	defer conn.Close()
	waitFor(t, "peer registered", func() bool { return srv.Peers() == 1 })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	waitFor(t, "peer removed", func() bool { return srv.Peers() == 0 })
}
