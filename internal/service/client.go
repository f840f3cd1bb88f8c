package service

import (
	"errors"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/yola1107/makao/internal/protocol"
	"github.com/yola1107/makao/internal/transport/ws"
)

var errClientOffline = errors.New("client: offline")

// ClientState 连接状态 断开后身份保留 可被接管
type ClientState int32

const (
	CONNECTED ClientState = iota
	DISCONNECTED
)

// Client 连接身份 名字头像随机签发
type Client struct {
	id uuid.UUID

	mu            sync.Mutex
	name          string
	avatar        uuid.UUID
	state         ClientState
	lastHeartbeat time.Time
	seq           uint64 // 连接内递增 盖在每条下行消息上
	sess          *ws.Session
}

func newClient(sess *ws.Session) *Client {
	return &Client{
		id:            uuid.New(),
		name:          gofakeit.Gamertag(),
		avatar:        uuid.New(),
		state:         CONNECTED,
		lastHeartbeat: time.Now(),
		sess:          sess,
	}
}

func (c *Client) ID() uuid.UUID {
	return c.id
}

func (c *Client) Info() (name string, avatar string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name, c.avatar.String()
}

func (c *Client) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// NewAvatar 重新随机头像
func (c *Client) NewAvatar() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.avatar = uuid.New()
}

func (c *Client) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// touch 任一上行帧都算心跳
func (c *Client) touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastHeartbeat = time.Now()
}

func (c *Client) silentFor() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.lastHeartbeat)
}

// session 当前绑定的会话 可能为nil
func (c *Client) session() *ws.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

func (c *Client) ownsSession(sessID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil && c.sess.ID() == sessID
}

// markDisconnected 标记断开 座位与手牌不动
func (c *Client) markDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = DISCONNECTED
	c.sess = nil
}

// adoptSession 被接管 沿用新连接的消息序号保证连接内单调
func (c *Client) adoptSession(sess *ws.Session, seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sess = sess
	c.seq = seq
	c.state = CONNECTED
	c.lastHeartbeat = time.Now()
}

// send 盖seq编码下发 断开时丢弃
func (c *Client) send(msg protocol.Message) error {
	c.mu.Lock()
	if c.state != CONNECTED || c.sess == nil {
		c.mu.Unlock()
		return errClientOffline
	}
	c.seq++
	msg.SetSeq(c.seq)
	data, err := protocol.Encode(msg)
	sess := c.sess
	c.mu.Unlock()

	if err != nil {
		return err
	}
	return sess.Send(data)
}
