package ws

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/yola1107/kratos/v2/library/xgo"
	"github.com/yola1107/kratos/v2/log"
)

var errSessionClosed = errors.New("session: closed send")

// Handler 会话事件回调 由service层实现
type Handler interface {
	// OnSessionOpen 会话建立后回调，注册session、签发身份等
	OnSessionOpen(sess *Session)
	// OnSessionClose 会话断开时回调，清理绑定、注销session等
	OnSessionClose(sess *Session)
	// OnMessage 处理客户端发来的JSON文本帧
	OnMessage(sess *Session, data []byte) error
}

type SessionConfig struct {
	WriteTimeout time.Duration
	ReadDeadline time.Duration // 0 表示不设读超时 由应用层心跳清理
	SendChanSize int
}

type Session struct {
	id       uuid.UUID
	h        Handler
	connMu   sync.Mutex
	conn     *websocket.Conn
	config   *SessionConfig
	sendChan chan []byte
	closed   atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	sendMu   sync.Mutex
}

func NewSession(h Handler, conn *websocket.Conn, config *SessionConfig) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       uuid.New(),
		h:        h,
		conn:     conn,
		config:   config,
		sendChan: make(chan []byte, config.SendChanSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.h.OnSessionOpen(s)
	go s.readPump()
	go s.writePump()
	return s
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) GetRemoteIP() string {
	return s.conn.RemoteAddr().String()
}

func (s *Session) Closed() bool {
	return s.closed.Load()
}

func (s *Session) Send(message []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.Closed() {
		return errSessionClosed
	}
	select {
	case s.sendChan <- message:
		return nil
	case <-s.ctx.Done():
		return errSessionClosed
	}
}

func (s *Session) readPump() {
	defer xgo.RecoverFromError(nil)
	defer s.Close(false)

	for {
		if s.config.ReadDeadline > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(s.config.ReadDeadline)); err != nil {
				log.Errorf("sessionID=%q set read deadline error: %v", s.id, err)
				return
			}
		}

		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warnf("sessionID=%q unexpected close: %v", s.id, err)
			}
			return
		}

		switch msgType {
		case websocket.TextMessage:
			_ = s.h.OnMessage(s, data)
		case websocket.PingMessage:
			s.writeControl(websocket.PongMessage, data)
		case websocket.PongMessage:
		case websocket.CloseMessage:
			return
		default:
			log.Warnf("sessionID=%q unsupported message type: %d", s.id, msgType)
		}
	}
}

func (s *Session) writePump() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-s.sendChan:
			if !ok {
				return
			}
			if err := s.writeTextMessage(msg); err != nil {
				if errors.Is(err, errSessionClosed) || strings.Contains(err.Error(), "close sent") {
					log.Infof("sessionID=%q write aborted, reason: %v", s.id, err)
				} else {
					log.Errorf("sessionID=%q write error: %v", s.id, err)
				}
				s.Close(true)
				return
			}
		}
	}
}

func (s *Session) Close(force bool) bool {
	if !s.closed.CompareAndSwap(false, true) {
		return false
	}

	s.closeNotify(force)

	s.cancel()

	s.sendMu.Lock()
	close(s.sendChan)
	s.sendMu.Unlock()

	s.connMu.Lock()
	_ = s.conn.Close()
	s.connMu.Unlock()

	s.h.OnSessionClose(s) // 回调处理器
	return true
}

func (s *Session) closeNotify(force bool) {
	reason := "Normal Closure"
	if force {
		reason = "Force Closure"
	}
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	s.writeControl(websocket.CloseMessage, message)
}

func (s *Session) writeControl(msgType int, data []byte) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	_ = s.conn.WriteControl(msgType, data, time.Now().Add(s.config.WriteTimeout))
}

func (s *Session) writeTextMessage(data []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.Closed() {
		return errSessionClosed
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
