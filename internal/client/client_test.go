package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"liveboard/pkg/types"
)

func TestClient_JoinValidatesTeacherID(t *testing.T) {
	c := NewClient("ws://localhost:0/ws", NewController("S1", nil, nil, nil))

	if err := c.Join("bad id!"); !errors.Is(err, types.ErrInvalidTeacherID) {
		t.Errorf("Expected ErrInvalidTeacherID, got %v", err)
	}
}

func TestClient_SendRequiresConnection(t *testing.T) {
	c := NewClient("ws://localhost:0/ws", NewController("S1", nil, nil, nil))

	if err := c.Join("T1"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
	if err := c.Leave("T1"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestClient_JoinSurvivesForReconnect(t *testing.T) {
	c := NewClient("ws://localhost:0/ws", NewController("S1", nil, nil, nil))

	_ = c.Join("T1")
	if c.joined != "T1" {
		t.Errorf("Expected subscription recorded, got %q", c.joined)
	}

	_ = c.Leave("T1")
	if c.joined != "" {
		t.Errorf("Expected subscription cleared, got %q", c.joined)
	}
}

// TestClient_ConnectSendsCatchUp verifies the post-connect sequence: a status
// check first, then a rejoin of the subscribed room.
func TestClient_ConnectSendsCatchUp(t *testing.T) {
	received := make(chan types.Event, 10)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ev, err := types.Decode(data)
			if err != nil {
				continue
			}
			received <- ev
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c := NewClient(url, NewController("S1", nil, nil, nil))
	c.joined = "T1"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(done)
	}()

	waitForEvent := func(want string) types.Event {
		select {
		case ev := <-received:
			if ev.Type() != want {
				t.Fatalf("Expected %s, got %s", want, ev.Type())
			}
			return ev
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for %s", want)
			return nil
		}
	}

	waitForEvent(types.EventCheckTeacherStatus)
	join := waitForEvent(types.EventJoinTeacherRoom).(types.JoinTeacherRoom)
	if join.TeacherID != "T1" {
		t.Errorf("Expected rejoin of T1, got %q", join.TeacherID)
	}

	cancel()
	srv.CloseClientConnections()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Client did not stop after context cancel")
	}
}
