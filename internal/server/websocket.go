package server

import (
	"time"

	"github.com/yola1107/makao/internal/conf"
	"github.com/yola1107/makao/internal/service"
	"github.com/yola1107/makao/internal/transport/ws"
)

// NewWebsocketServer new an Websocket server.
func NewWebsocketServer(c *conf.Server, svc *service.Service) *ws.Server {
	opts := []ws.ServerOption{
		ws.WithHandler(svc),
	}
	if c.Websocket.Network != "" {
		opts = append(opts, ws.Network(c.Websocket.Network))
	}
	if c.Websocket.Addr != "" {
		opts = append(opts, ws.Address(c.Websocket.Addr))
	}
	if c.Websocket.Path != "" {
		opts = append(opts, ws.Path(c.Websocket.Path))
	}
	if c.Websocket.TimeoutMs > 0 {
		opts = append(opts, ws.Timeout(time.Duration(c.Websocket.TimeoutMs)*time.Millisecond))
	}
	if c.Websocket.MaxConn > 0 {
		opts = append(opts, ws.MaxConnLimit(c.Websocket.MaxConn))
	}
	if c.Websocket.SendChanSize > 0 {
		opts = append(opts, ws.SendChanSize(c.Websocket.SendChanSize))
	}
	return ws.NewServer(opts...)
}
