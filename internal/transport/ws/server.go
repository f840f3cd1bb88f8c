package ws

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yola1107/kratos/v2/log"
	"github.com/yola1107/kratos/v2/transport"
)

var _ transport.Server = (*Server)(nil)

// ServerOption is a Websocket server option.
type ServerOption func(*Server)

func Network(network string) ServerOption {
	return func(o *Server) { o.network = network }
}
func Address(addr string) ServerOption {
	return func(o *Server) { o.address = addr }
}
func Path(path string) ServerOption {
	return func(o *Server) { o.path = path }
}
func TlsConf(tlsConfig *tls.Config) ServerOption {
	return func(o *Server) { o.tlsConf = tlsConfig }
}
func MaxConnLimit(maxConnLimit int32) ServerOption {
	return func(o *Server) { o.maxConnLimit = maxConnLimit }
}
func SessionConf(c *SessionConfig) ServerOption {
	return func(o *Server) { o.sessionConf = c }
}
func SendChanSize(size int) ServerOption {
	return func(o *Server) { o.sessionConf.SendChanSize = size }
}
func Timeout(d time.Duration) ServerOption {
	return func(o *Server) { o.sessionConf.WriteTimeout = d }
}
func WithHandler(h Handler) ServerOption {
	return func(o *Server) { o.handler = h }
}

// Server is a Websocket server wrapper.
type Server struct {
	*http.Server
	baseCtx      context.Context
	lis          net.Listener
	tlsConf      *tls.Config
	path         string
	network      string
	address      string
	maxConnLimit int32
	sessionConf  *SessionConfig
	upgrader     *websocket.Upgrader // WebSocket升级器
	sessionMgr   *SessionManager     // 会话管理
	handler      Handler             // 业务回调
}

// NewServer creates a Websocket server by options.
func NewServer(opts ...ServerOption) *Server {
	srv := &Server{
		baseCtx: context.Background(),
		network: "tcp",
		address: ":0",
		path:    "/",
		sessionConf: &SessionConfig{
			WriteTimeout: 10 * time.Second,
			SendChanSize: 128,
		},
		maxConnLimit: 10000,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessionMgr: NewSessionManager(),
	}
	for _, o := range opts {
		o(srv)
	}

	mux := http.NewServeMux()
	mux.Handle(srv.path, CORS(srv.handleConnections()))
	srv.Server = &http.Server{
		Addr:      srv.address,
		Handler:   mux,
		TLSConfig: srv.tlsConf,
	}
	return srv
}

// Sessions 当前会话集
func (s *Server) Sessions() *SessionManager {
	return s.sessionMgr
}

// Addr 实际监听地址 Start之后可用
func (s *Server) Addr() net.Addr {
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// Start start the Websocket server.
func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.network, s.address)
	if err != nil {
		return err
	}
	s.lis = lis
	s.baseCtx = ctx
	s.BaseContext = func(net.Listener) context.Context {
		return ctx
	}
	log.Infof("[websocket] server listening on: %s", s.lis.Addr().String())
	if s.tlsConf != nil {
		err = s.ServeTLS(s.lis, "", "")
	} else {
		err = s.Serve(s.lis)
	}
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleConnections() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cnt := s.sessionMgr.Len(); cnt >= s.maxConnLimit {
			w.WriteHeader(http.StatusServiceUnavailable)
			log.Warnf("[websocket] StatusServiceUnavailable. over maxConnections(%d)", cnt)
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Errorf("[websocket] upgrade error: %v", err)
			return
		}

		_ = NewSession(s, conn, s.sessionConf)
	}
}

// Stop stop the Websocket server.
func (s *Server) Stop(ctx context.Context) error {
	log.Info("[websocket] server stopping")

	// 停止HTTP服务器
	err := s.Shutdown(ctx)

	// 关闭所有会话
	s.sessionMgr.CloseAllSessions()

	return err
}

func (s *Server) OnSessionOpen(sess *Session) {
	s.sessionMgr.Add(sess)
	if s.handler != nil {
		s.handler.OnSessionOpen(sess)
	}
}

func (s *Server) OnSessionClose(sess *Session) {
	if s.handler != nil {
		s.handler.OnSessionClose(sess)
	}
	s.sessionMgr.Delete(sess)
}

func (s *Server) OnMessage(sess *Session, data []byte) error {
	if s.handler == nil {
		return nil
	}
	return s.handler.OnMessage(sess, data)
}

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 添加 CORS 相关头部
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, UPDATE")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Length, X-CSRF-Token, Token, session")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
