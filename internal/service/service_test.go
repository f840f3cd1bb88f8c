package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yola1107/makao/internal/conf"
	"github.com/yola1107/makao/internal/protocol"
	"github.com/yola1107/makao/internal/server"
	"github.com/yola1107/makao/internal/service"
)

type frame map[string]any

func (f frame) str(key string) string {
	s, _ := f[key].(string)
	return s
}

func (f frame) seq() uint64 {
	n, _ := f["seq"].(float64)
	return uint64(n)
}

// startStack 全栈起服 返回可拨号地址
func startStack(t *testing.T, gc *conf.Game) string {
	t.Helper()
	svc, cleanup, err := service.NewService(gc)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	wss := server.NewWebsocketServer(&conf.Server{
		Websocket: &conf.Websocket{Network: "tcp", Addr: "127.0.0.1:0", Path: "/"},
	}, svc)
	go func() { _ = wss.Start(context.Background()) }()
	require.Eventually(t, func() bool { return wss.Addr() != nil }, 2*time.Second, 10*time.Millisecond)
	t.Cleanup(func() { _ = wss.Stop(context.Background()) })

	return "ws://" + wss.Addr().String() + "/"
}

func quietGameConf() *conf.Game {
	return &conf.Game{
		HandSize:            5,
		HeartbeatIntervalMs: 60000,
		ClientTimeoutMs:     60000,
		LogCache:            &conf.LogCache{},
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

// waitFor 顺序消费帧直到命中
func waitFor(t *testing.T, conn *websocket.Conn, pred func(frame) bool) frame {
	t.Helper()
	for i := 0; i < 50; i++ {
		f := readFrame(t, conn)
		if pred(f) {
			return f
		}
	}
	t.Fatal("expected frame not received")
	return nil
}

func send(t *testing.T, conn *websocket.Conn, req string, fields map[string]any) string {
	t.Helper()
	reqID := fmt.Sprintf("req-%d", time.Now().UnixNano())
	payload := map[string]any{"req": req, "uuid": reqID}
	for k, v := range fields {
		payload[k] = v
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
	return reqID
}

// reply 发请求并等待对应应答帧
func reply(t *testing.T, conn *websocket.Conn, req string, fields map[string]any) frame {
	t.Helper()
	reqID := send(t, conn, req, fields)
	return waitFor(t, conn, func(f frame) bool { return f.str("req") == reqID })
}

// handshake 消费HELLO与CLIENT_INFO 返回clientID
func handshake(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	hello := readFrame(t, conn)
	require.Equal(t, protocol.EvHello, hello.str("req"))
	require.NotEmpty(t, hello.str("clientID"))
	require.Equal(t, uint64(1), hello.seq())

	info := readFrame(t, conn)
	require.Equal(t, protocol.EvClientInfo, info.str("req"))
	require.NotEmpty(t, info.str("name"))
	require.Equal(t, uint64(2), info.seq())
	return hello.str("clientID")
}

func TestConnectHandshake(t *testing.T) {
	url := startStack(t, quietGameConf())
	conn := dial(t, url)
	clientID := handshake(t, conn)
	assert.NotEmpty(t, clientID)
}

func TestChangeNameAndAvatar(t *testing.T) {
	url := startStack(t, quietGameConf())
	conn := dial(t, url)
	handshake(t, conn)

	ack := reply(t, conn, protocol.ReqChangeName, map[string]any{"name": "alice"})
	assert.Equal(t, true, ack["success"])

	info := waitFor(t, conn, func(f frame) bool { return f.str("req") == protocol.EvClientInfo })
	assert.Equal(t, "alice", info.str("name"))

	before := info.str("avatar")
	ack = reply(t, conn, protocol.ReqChangeAvatar, nil)
	assert.Equal(t, true, ack["success"])
	info = waitFor(t, conn, func(f frame) bool { return f.str("req") == protocol.EvClientInfo })
	assert.NotEqual(t, before, info.str("avatar"))
}

func TestCreateGameFlow(t *testing.T) {
	url := startStack(t, quietGameConf())
	conn := dial(t, url)
	handshake(t, conn)

	var events []string
	var lastSeq uint64
	reqID := send(t, conn, protocol.ReqCreateGame, nil)
	ack := waitFor(t, conn, func(f frame) bool {
		events = append(events, f.str("req"))
		assert.Greater(t, f.seq(), lastSeq, "seq must be strictly increasing")
		lastSeq = f.seq()
		return f.str("req") == reqID
	})
	assert.Equal(t, true, ack["success"])
	assert.Contains(t, events, protocol.EvPlayerIDAssigned)
	assert.Contains(t, events, protocol.EvGameStateChanged)
	assert.Contains(t, events, protocol.EvPlayerJoined)
	assert.Contains(t, events, protocol.EvGameListAdded)

	games := reply(t, conn, protocol.ReqGetGames, nil)
	list, ok := games["games"].([]any)
	require.True(t, ok)
	assert.Len(t, list, 1)

	// 已有未结束对局 再建被拒
	errFrame := reply(t, conn, protocol.ReqCreateGame, nil)
	assert.Equal(t, "FORBIDDEN", errFrame.str("error"))
}

// GET_GAMES列大厅可加入的局 GAME.LIST列自己所在的局 开局后仍可见
func TestGameListScopes(t *testing.T) {
	url := startStack(t, quietGameConf())

	conn1 := dial(t, url)
	handshake(t, conn1)
	send(t, conn1, protocol.ReqCreateGame, nil)
	assigned := waitFor(t, conn1, func(f frame) bool { return f.str("req") == protocol.EvPlayerIDAssigned })
	gameID := assigned.str("id")
	player1 := assigned["player"].(map[string]any)["uuid"].(string)

	own := reply(t, conn1, protocol.ReqGameList, nil)
	list, ok := own["games"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, gameID, list[0].(map[string]any)["uuid"])

	// 别的连接名下无局
	conn2 := dial(t, url)
	handshake(t, conn2)
	other := reply(t, conn2, protocol.ReqGameList, nil)
	assert.Empty(t, other["games"])

	ack := reply(t, conn1, protocol.ReqStartGame, map[string]any{"playerID": player1})
	require.Equal(t, true, ack["success"])

	// 进行中的局不再可加入 但仍在自己的列表里
	lobby := reply(t, conn2, protocol.ReqGetGames, nil)
	assert.Empty(t, lobby["games"])

	own = reply(t, conn1, protocol.ReqGameList, nil)
	list, ok = own["games"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, gameID, list[0].(map[string]any)["uuid"])
}

func TestJoinAndStart(t *testing.T) {
	url := startStack(t, quietGameConf())

	conn1 := dial(t, url)
	handshake(t, conn1)
	send(t, conn1, protocol.ReqCreateGame, nil)

	assigned := waitFor(t, conn1, func(f frame) bool { return f.str("req") == protocol.EvPlayerIDAssigned })
	gameID := assigned.str("id")
	player1 := assigned["player"].(map[string]any)["uuid"].(string)

	conn2 := dial(t, url)
	handshake(t, conn2)
	send(t, conn2, protocol.ReqJoinGame, map[string]any{"gameID": gameID})
	assigned2 := waitFor(t, conn2, func(f frame) bool { return f.str("req") == protocol.EvPlayerIDAssigned })
	player2 := assigned2["player"].(map[string]any)["uuid"].(string)

	// 非房主不能开局
	errFrame := reply(t, conn2, protocol.ReqStartGame, map[string]any{"playerID": player2})
	assert.Equal(t, "FORBIDDEN", errFrame.str("error"))

	// 别人的playerID不能用
	errFrame = reply(t, conn2, protocol.ReqStartGame, map[string]any{"playerID": player1})
	assert.Equal(t, "FORBIDDEN", errFrame.str("error"))

	ack := reply(t, conn1, protocol.ReqStartGame, map[string]any{"playerID": player1})
	assert.Equal(t, true, ack["success"])

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		cards := waitFor(t, conn, func(f frame) bool { return f.str("req") == protocol.EvSelfCards })
		hand, ok := cards["cards"].([]any)
		require.True(t, ok)
		assert.Len(t, hand, 5)
	}
}

func TestResume(t *testing.T) {
	url := startStack(t, quietGameConf())

	conn1 := dial(t, url)
	clientID1 := handshake(t, conn1)
	require.NoError(t, conn1.Close())
	time.Sleep(500 * time.Millisecond) // 等服务端感知断开

	conn2 := dial(t, url)
	clientID2 := handshake(t, conn2)

	// 接管自己被拒
	errFrame := reply(t, conn2, protocol.ReqAuth, map[string]any{"clientID": clientID2})
	assert.Equal(t, "BAD_REQUEST", errFrame.str("error"))

	// 未知身份被拒
	errFrame = reply(t, conn2, protocol.ReqAuth, map[string]any{"clientID": "00000000-0000-0000-0000-00000000dead"})
	assert.Equal(t, "FORBIDDEN", errFrame.str("error"))

	// 接管断开的旧身份
	ack := reply(t, conn2, protocol.ReqAuth, map[string]any{"clientID": clientID1})
	assert.Equal(t, true, ack["success"])
	info := waitFor(t, conn2, func(f frame) bool { return f.str("req") == protocol.EvClientInfo })
	assert.NotEmpty(t, info.str("name"))

	// 在线身份不可被接管
	conn3 := dial(t, url)
	handshake(t, conn3)
	errFrame = reply(t, conn3, protocol.ReqAuth, map[string]any{"clientID": clientID1})
	assert.Equal(t, "CLIENT_STILL_CONNECTED", errFrame.str("error"))
}

func TestHeartbeatSweep(t *testing.T) {
	url := startStack(t, &conf.Game{
		HandSize:            5,
		HeartbeatIntervalMs: 50,
		ClientTimeoutMs:     200,
		LogCache:            &conf.LogCache{},
	})

	conn := dial(t, url)
	handshake(t, conn)

	// 不回心跳 等服务端踢下线
	heartbeats := 0
	for {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var f frame
		if json.Unmarshal(data, &f) == nil && f.str("req") == protocol.EvHeartbeat {
			heartbeats++
		}
	}
	assert.GreaterOrEqual(t, heartbeats, 1)
}
