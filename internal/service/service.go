package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yola1107/kratos/v2/library/work"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/makao/internal/biz/game"
	"github.com/yola1107/makao/internal/conf"
	"github.com/yola1107/makao/internal/protocol"
	"github.com/yola1107/makao/internal/transport/ws"
	"github.com/yola1107/makao/pkg/codes"
)

var (
	_ game.Sender = (*Service)(nil)
	_ ws.Handler  = (*Service)(nil)
)

// Service 连接身份与请求分发
type Service struct {
	serverID uuid.UUID
	gc       *conf.Game
	registry *game.Registry
	timer    work.Scheduler

	mu        sync.RWMutex
	clients   map[uuid.UUID]*Client
	bySession map[uuid.UUID]*Client
}

// NewService new a service.
func NewService(gc *conf.Game) (*Service, func(), error) {
	log.Infof("start server:%q version:%s", conf.Name, conf.Version)

	s := &Service{
		serverID:  uuid.New(),
		gc:        gc,
		clients:   make(map[uuid.UUID]*Client),
		bySession: make(map[uuid.UUID]*Client),
	}
	s.registry = game.NewRegistry(s, game.Options{
		HandSize: gc.HandSize,
		LogCache: &game.LogConfig{Open: gc.LogCache.Open},
	})
	s.timer = work.NewScheduler()

	cleanup := func() {
		log.Info("closing the service resources")
		s.timer.Stop()
	}

	s.timer.Forever(time.Duration(gc.HeartbeatIntervalMs)*time.Millisecond, s.sweepHeartbeat)
	return s, cleanup, nil
}

func (s *Service) ServerID() uuid.UUID {
	return s.serverID
}

// Registry 对局索引
func (s *Service) Registry() *game.Registry {
	return s.registry
}

// OnSessionOpen 连接建立 签发身份并推送HELLO
func (s *Service) OnSessionOpen(sess *ws.Session) {
	c := newClient(sess)

	s.mu.Lock()
	s.clients[c.ID()] = c
	s.bySession[sess.ID()] = c
	s.mu.Unlock()

	log.Infof("client connected. client=%s session=%s addr=%s", c.ID(), sess.ID(), sess.GetRemoteIP())

	_ = c.send(protocol.NewHello(c.ID().String(), s.serverID.String()))
	s.pushClientInfo(c)
}

// OnSessionClose 连接断开 身份保留等待接管
func (s *Service) OnSessionClose(sess *ws.Session) {
	s.mu.Lock()
	c, ok := s.bySession[sess.ID()]
	delete(s.bySession, sess.ID())
	s.mu.Unlock()

	if !ok {
		return
	}
	if c.ownsSession(sess.ID()) {
		c.markDisconnected()
	}
	log.Infof("client disconnected. client=%s session=%s", c.ID(), sess.ID())
}

// SendTo 按连接下发 断开的丢弃
func (s *Service) SendTo(clientID uuid.UUID, msg protocol.Message) {
	s.mu.RLock()
	c, ok := s.clients[clientID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	if err := c.send(msg); err != nil {
		log.Debugf("send dropped. client=%s err=%v", clientID, err)
	}
}

// Broadcast 发给所有在线连接
func (s *Service) Broadcast(msg protocol.Message) {
	for _, c := range s.snapshotClients() {
		if err := c.send(msg); err != nil {
			log.Debugf("broadcast dropped. client=%s err=%v", c.ID(), err)
		}
	}
}

// ClientInfo 连接的公开资料
func (s *Service) ClientInfo(clientID uuid.UUID) (string, string, bool) {
	s.mu.RLock()
	c, ok := s.clients[clientID]
	s.mu.RUnlock()
	if !ok {
		return "", "", false
	}
	name, avatar := c.Info()
	return name, avatar, true
}

func (s *Service) snapshotClients() []*Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	return out
}

func (s *Service) clientBySession(sess *ws.Session) (*Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.bySession[sess.ID()]
	return c, ok
}

func (s *Service) pushClientInfo(c *Client) {
	name, avatar := c.Info()
	_ = c.send(protocol.NewClientInfo(avatar, name))
}

// sweepHeartbeat 心跳巡检 超时标记断开并关socket 在线的补推心跳
func (s *Service) sweepHeartbeat() {
	timeout := time.Duration(s.gc.ClientTimeoutMs) * time.Millisecond
	for _, c := range s.snapshotClients() {
		if c.State() != CONNECTED {
			continue
		}
		if c.silentFor() > timeout {
			log.Warnf("client heartbeat timeout. client=%s silent=%v", c.ID(), c.silentFor())
			sess := c.session()
			c.markDisconnected()
			if sess != nil {
				sess.Close(true)
			}
			continue
		}
		_ = c.send(protocol.NewHeartbeat())
	}
}

// resume 接管断开的旧身份 当前连接的临时身份作废
func (s *Service) resume(cur *Client, sess *ws.Session, targetID uuid.UUID) (*Client, error) {
	if targetID == cur.ID() {
		return nil, codes.ErrResumeSelf
	}

	s.mu.Lock()
	target, ok := s.clients[targetID]
	if !ok {
		s.mu.Unlock()
		return nil, codes.ErrResumeUnknown
	}
	if target.State() == CONNECTED {
		s.mu.Unlock()
		return nil, codes.ErrStillConnected
	}
	delete(s.clients, cur.ID())
	s.bySession[sess.ID()] = target
	s.mu.Unlock()

	cur.mu.Lock()
	seq := cur.seq
	cur.mu.Unlock()
	target.adoptSession(sess, seq)
	cur.markDisconnected()

	// 临时身份可能已建局 连带清退
	s.registry.OnClientRemoved(cur.ID())

	log.Infof("client resumed. old=%s dropped=%s session=%s", targetID, cur.ID(), sess.ID())
	return target, nil
}
