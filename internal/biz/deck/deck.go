package deck

import (
	"errors"

	"github.com/google/uuid"
	"github.com/yola1107/kratos/v2/library/xgo"

	"github.com/yola1107/makao/internal/biz/card"
)

var ErrNoStartCard = errors.New("deck: no playable start card")

// Card 牌实例 同名牌面可存在多张
type Card struct {
	ID   uuid.UUID `json:"uuid"`
	Type card.Type `json:"type"`
}

// Code 牌面编码
func (c Card) Code() string {
	return c.Type.Code()
}

/*
	Deck 管理牌堆
	三个区互斥：抽牌堆 弃牌堆 手牌 合起来恰好是全部实例
*/

type Deck struct {
	types   map[uuid.UUID]card.Type   // 全部实例
	draw    []uuid.UUID               // 抽牌堆 末位先抽
	discard []uuid.UUID               // 弃牌堆 末位为顶牌
	hands   map[uuid.UUID][]uuid.UUID // 玩家手牌
}

// New 组牌洗牌并翻出起始牌
func New(decks int, settings card.SettingsMap) (*Deck, error) {
	if decks < 1 {
		decks = 1
	}
	d := &Deck{
		types: make(map[uuid.UUID]card.Type),
		hands: make(map[uuid.UUID][]uuid.UUID),
	}
	for i := 0; i < decks; i++ {
		for _, t := range settings.DeckTypes() {
			id := uuid.New()
			d.types[id] = t
			d.draw = append(d.draw, id)
		}
	}
	xgo.SliceShuffle(d.draw)

	// 翻牌直到顶牌可做起始牌
	for len(d.draw) > 0 {
		id := d.pop()
		d.discard = append(d.discard, id)
		if settings.Get(d.types[id]).CanBeStartCard {
			return d, nil
		}
	}
	return nil, ErrNoStartCard
}

func (d *Deck) pop() uuid.UUID {
	id := d.draw[len(d.draw)-1]
	d.draw = d.draw[:len(d.draw)-1]
	return id
}

// Deal 发牌 抽牌堆耗尽时回收弃牌堆重洗 仍不足则少发
func (d *Deck) Deal(player uuid.UUID, n int) []Card {
	var dealt []Card
	for i := 0; i < n; i++ {
		if len(d.draw) == 0 {
			d.recycle()
		}
		if len(d.draw) == 0 {
			break
		}
		id := d.pop()
		d.hands[player] = append(d.hands[player], id)
		dealt = append(dealt, Card{ID: id, Type: d.types[id]})
	}
	return dealt
}

// recycle 顶牌以外的弃牌全部洗回抽牌堆
func (d *Deck) recycle() {
	if len(d.discard) <= 1 {
		return
	}
	top := d.discard[len(d.discard)-1]
	d.draw = append(d.draw, d.discard[:len(d.discard)-1]...)
	d.discard = []uuid.UUID{top}
	xgo.SliceShuffle(d.draw)
}

// Play 手牌移入弃牌堆顶 未知实例不处理
func (d *Deck) Play(id uuid.UUID) bool {
	for player, hand := range d.hands {
		for i, cid := range hand {
			if cid != id {
				continue
			}
			d.hands[player] = append(hand[:i:i], hand[i+1:]...)
			d.discard = append(d.discard, id)
			return true
		}
	}
	return false
}

// Top 弃牌堆顶牌
func (d *Deck) Top() (Card, bool) {
	if len(d.discard) == 0 {
		return Card{}, false
	}
	id := d.discard[len(d.discard)-1]
	return Card{ID: id, Type: d.types[id]}, true
}

// Hand 玩家手牌 发牌顺序
func (d *Deck) Hand(player uuid.UUID) []Card {
	hand := make([]Card, 0, len(d.hands[player]))
	for _, id := range d.hands[player] {
		hand = append(hand, Card{ID: id, Type: d.types[id]})
	}
	return hand
}

func (d *Deck) HandSize(player uuid.UUID) int {
	return len(d.hands[player])
}

// Holds 玩家手里是否有该实例
func (d *Deck) Holds(player, id uuid.UUID) bool {
	for _, cid := range d.hands[player] {
		if cid == id {
			return true
		}
	}
	return false
}

// Lookup 实例对应的牌面
func (d *Deck) Lookup(id uuid.UUID) (card.Type, bool) {
	t, ok := d.types[id]
	return t, ok
}

// HasColor 玩家手里是否有该花色
func (d *Deck) HasColor(player uuid.UUID, c card.Color) bool {
	for _, id := range d.hands[player] {
		if d.types[id].Color == c {
			return true
		}
	}
	return false
}

// HasValue 玩家手里是否有该点数
func (d *Deck) HasValue(player uuid.UUID, v card.Value) bool {
	for _, id := range d.hands[player] {
		if d.types[id].Value == v {
			return true
		}
	}
	return false
}

// HasExact 玩家手里是否有该牌面
func (d *Deck) HasExact(player uuid.UUID, t card.Type) bool {
	for _, id := range d.hands[player] {
		if d.types[id] == t {
			return true
		}
	}
	return false
}

// RemovePlayer 弃置离场玩家的手牌
func (d *Deck) RemovePlayer(player uuid.UUID) {
	d.discard = append(d.discard, d.hands[player]...)
	delete(d.hands, player)
}

// Discarded 弃牌堆 末位为顶牌
func (d *Deck) Discarded() []Card {
	cards := make([]Card, 0, len(d.discard))
	for _, id := range d.discard {
		cards = append(cards, Card{ID: id, Type: d.types[id]})
	}
	return cards
}

func (d *Deck) DrawCount() int {
	return len(d.draw)
}

func (d *Deck) DiscardCount() int {
	return len(d.discard)
}

func (d *Deck) Size() int {
	return len(d.types)
}
