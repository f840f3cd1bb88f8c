package ws

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoHandler 记录回调并原样回发
type echoHandler struct {
	mu     sync.Mutex
	opened int
	closed int
	msgs   [][]byte
}

func (h *echoHandler) OnSessionOpen(sess *Session)  { h.mu.Lock(); h.opened++; h.mu.Unlock() }
func (h *echoHandler) OnSessionClose(sess *Session) { h.mu.Lock(); h.closed++; h.mu.Unlock() }

func (h *echoHandler) OnMessage(sess *Session, data []byte) error {
	h.mu.Lock()
	h.msgs = append(h.msgs, data)
	h.mu.Unlock()
	return sess.Send(data)
}

func (h *echoHandler) counts() (int, int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opened, h.closed, len(h.msgs)
}

func startTestServer(t *testing.T, h Handler) (*Server, string) {
	t.Helper()
	srv := NewServer(
		Address("127.0.0.1:0"),
		WithHandler(h),
		Timeout(2*time.Second),
	)
	go func() { _ = srv.Start(context.Background()) }()
	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 10*time.Millisecond)
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
	return srv, "ws://" + srv.Addr().String() + "/"
}

func TestServerEcho(t *testing.T) {
	h := &echoHandler{}
	srv, url := startTestServer(t, h)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return srv.Sessions().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"req":"PING"}`)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)
	assert.JSONEq(t, `{"req":"PING"}`, string(data))

	opened, _, msgs := h.counts()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, msgs)
}

func TestServerSessionClose(t *testing.T) {
	h := &echoHandler{}
	srv, url := startTestServer(t, h)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.Sessions().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return srv.Sessions().Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	_, closed, _ := h.counts()
	assert.Equal(t, 1, closed)
}

func TestSessionSendAfterClose(t *testing.T) {
	h := &echoHandler{}
	srv, url := startTestServer(t, h)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return srv.Sessions().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	var sess *Session
	srv.Sessions().Range(func(s *Session) { sess = s })
	require.NotNil(t, sess)

	require.True(t, sess.Close(true))
	assert.False(t, sess.Close(true)) // 只关一次
	assert.ErrorIs(t, sess.Send([]byte("x")), errSessionClosed)
}
