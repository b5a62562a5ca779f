package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/framereview/annotations/internal/broadcast"
	"github.com/framereview/annotations/pkg/streaming"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check.
var _ broadcast.Publisher = (*Server)(nil)

func dial(t *testing.T, url string) *ws.Conn {
	t.Helper()
	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *ws.Conn) streaming.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env streaming.Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestPublish_FansOut(t *testing.T) {
	s := New(nil)
	srv := httptest.NewServer(s)
	defer srv.Close()

	a := dial(t, srv.URL)
	b := dial(t, srv.URL)
	require.Eventually(t, func() bool { return s.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)

	s.Publish(streaming.TypeLiveStroke, streaming.LiveStrokePayload{UserID: "u1", FrameKey: "f"})

	for _, c := range []*ws.Conn{a, b} {
		env := readEnvelope(t, c)
		assert.Equal(t, streaming.TypeLiveStroke, env.Type)
	}
}

func TestLateSubscriberGetsLastEdited(t *testing.T) {
	s := New(nil)
	srv := httptest.NewServer(s)
	defer srv.Close()

	id := "b-1"
	s.Publish(streaming.TypeAnnotationEdited, streaming.AnnotationEditedPayload{BookmarkID: &id})

	c := dial(t, srv.URL)
	env := readEnvelope(t, c)
	require.Equal(t, streaming.TypeAnnotationEdited, env.Type)
	var p streaming.AnnotationEditedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	require.NotNil(t, p.BookmarkID)
	assert.Equal(t, "b-1", *p.BookmarkID)
}

func TestClientLeaves(t *testing.T) {
	s := New(nil)
	srv := httptest.NewServer(s)
	defer srv.Close()

	c := dial(t, srv.URL)
	require.Eventually(t, func() bool { return s.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	c.Close()
	assert.Eventually(t, func() bool { return s.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStartClose(t *testing.T) {
	s := New(nil)
	addr, err := s.Start("127.0.0.1:0")
	require.NoError(t, err)

	c := dial(t, "http://"+addr)
	require.Eventually(t, func() bool { return s.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Close(ctx))
	assert.Equal(t, 0, s.Clients())

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = c.ReadMessage()
	assert.Error(t, err)
}
