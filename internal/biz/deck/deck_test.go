package deck

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yola1107/makao/internal/biz/card"
)

func TestNew(t *testing.T) {
	var settings card.SettingsMap
	d, err := New(1, settings)
	require.NoError(t, err)
	assert.Equal(t, 52, d.Size())

	// 起始牌可做底
	top, ok := d.Top()
	require.True(t, ok)
	assert.True(t, settings.Get(top.Type).CanBeStartCard)

	// 三区之和等于实例总数
	assert.Equal(t, d.Size(), d.DrawCount()+d.DiscardCount())

	d, err = New(2, settings)
	require.NoError(t, err)
	assert.Equal(t, 104, d.Size())
}

func TestNewNoStartCard(t *testing.T) {
	// 全部牌都不可做底
	settings := card.SettingsMap{}
	for _, typ := range card.AllTypes() {
		settings[typ] = card.Settings{IncludeInDeck: true, CanBeStartCard: false}
	}
	_, err := New(1, settings)
	assert.ErrorIs(t, err, ErrNoStartCard)
}

func TestDealAndPlay(t *testing.T) {
	var settings card.SettingsMap
	d, err := New(1, settings)
	require.NoError(t, err)

	p1 := uuid.New()
	dealt := d.Deal(p1, 5)
	require.Len(t, dealt, 5)
	assert.Equal(t, 5, d.HandSize(p1))
	assert.Equal(t, 52, d.DrawCount()+d.DiscardCount()+d.HandSize(p1))

	// 出一张 进弃牌堆顶
	played := dealt[2]
	assert.True(t, d.Holds(p1, played.ID))
	assert.True(t, d.Play(played.ID))
	assert.Equal(t, 4, d.HandSize(p1))
	top, ok := d.Top()
	require.True(t, ok)
	assert.Equal(t, played.ID, top.ID)

	// 未知实例不处理
	assert.False(t, d.Play(uuid.New()))
	assert.Equal(t, 4, d.HandSize(p1))
}

func TestDealRecycle(t *testing.T) {
	var settings card.SettingsMap
	d, err := New(1, settings)
	require.NoError(t, err)

	p1 := uuid.New()
	p2 := uuid.New()

	// 抽空整个抽牌堆
	d.Deal(p1, d.DrawCount())
	assert.Equal(t, 0, d.DrawCount())

	// p1全部打出 弃牌堆变厚
	for _, c := range d.Hand(p1) {
		d.Play(c.ID)
	}
	discarded := d.DiscardCount()
	require.Greater(t, discarded, 1)

	// 继续发牌触发回收 顶牌留在弃牌堆
	top, _ := d.Top()
	dealt := d.Deal(p2, 3)
	assert.Len(t, dealt, 3)
	assert.Equal(t, 1, d.DiscardCount())
	newTop, _ := d.Top()
	assert.Equal(t, top.ID, newTop.ID)
	assert.Equal(t, discarded-1-3, d.DrawCount())
}

func TestDealExhausted(t *testing.T) {
	var settings card.SettingsMap
	d, err := New(1, settings)
	require.NoError(t, err)

	// 全部发给一人 只剩弃牌堆顶一张可回收不到
	p1 := uuid.New()
	dealt := d.Deal(p1, 100)
	assert.Len(t, dealt, 51)
	assert.Equal(t, 0, d.DrawCount())
	assert.Equal(t, 1, d.DiscardCount())

	// 无牌可发 静默少发
	assert.Empty(t, d.Deal(p1, 1))
}

func TestHandQueries(t *testing.T) {
	p1 := uuid.New()
	aceHearts := card.Type{Value: card.ACE, Color: card.HEARTS}
	sevenSpades := card.Type{Value: card.CARD_7, Color: card.SPADES}
	id1, id2 := uuid.New(), uuid.New()

	d := &Deck{
		types: map[uuid.UUID]card.Type{id1: aceHearts, id2: sevenSpades},
		hands: map[uuid.UUID][]uuid.UUID{p1: {id1, id2}},
	}

	assert.True(t, d.HasColor(p1, card.HEARTS))
	assert.True(t, d.HasColor(p1, card.SPADES))
	assert.False(t, d.HasColor(p1, card.CLUBS))

	assert.True(t, d.HasValue(p1, card.ACE))
	assert.False(t, d.HasValue(p1, card.KING))

	assert.True(t, d.HasExact(p1, aceHearts))
	assert.False(t, d.HasExact(p1, card.Type{Value: card.ACE, Color: card.SPADES}))

	other := uuid.New()
	assert.False(t, d.HasColor(other, card.HEARTS))
	assert.False(t, d.HasValue(other, card.ACE))
}

func TestRemovePlayer(t *testing.T) {
	var settings card.SettingsMap
	d, err := New(1, settings)
	require.NoError(t, err)

	p1 := uuid.New()
	d.Deal(p1, 5)
	before := d.DiscardCount()

	d.RemovePlayer(p1)
	assert.Equal(t, 0, d.HandSize(p1))
	assert.Equal(t, before+5, d.DiscardCount())
	assert.Equal(t, d.Size(), d.DrawCount()+d.DiscardCount())
}
