package game

import (
	"github.com/google/uuid"

	"github.com/yola1107/makao/internal/protocol"
)

// Sender 下行通道 由service层实现 断线客户端由实现方丢弃
type Sender interface {
	SendTo(clientID uuid.UUID, msg protocol.Message)
	Broadcast(msg protocol.Message)
	ClientInfo(clientID uuid.UUID) (name string, avatar string, ok bool)
}

// outbox 锁内收集事件 锁外统一下发 避免持锁发包
type outbox struct {
	sender Sender
	items  []func(Sender)
}

func newOutbox(s Sender) *outbox {
	return &outbox{sender: s}
}

func (o *outbox) to(clientID uuid.UUID, msg protocol.Message) {
	o.items = append(o.items, func(s Sender) { s.SendTo(clientID, msg) })
}

func (o *outbox) broadcast(msg protocol.Message) {
	o.items = append(o.items, func(s Sender) { s.Broadcast(msg) })
}

// Flush 按收集顺序下发
func (o *outbox) Flush() {
	for _, item := range o.items {
		item(o.sender)
	}
	o.items = nil
}
