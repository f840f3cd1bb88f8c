package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllTypes(t *testing.T) {
	types := AllTypes()
	require.Len(t, types, 52)

	// 编码唯一
	seen := map[string]bool{}
	for _, typ := range types {
		code := typ.Code()
		assert.Len(t, code, 2)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestTypeCode(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Type{ACE, HEARTS}, "AH"},
		{Type{CARD_10, CLUBS}, "TC"},
		{Type{CARD_2, SPADES}, "2S"},
		{Type{KING, DIAMONDS}, "KD"},
		{Type{QUEEN, CLUBS}, "QC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.Code())
	}
}

func TestDefaultSettings(t *testing.T) {
	var m SettingsMap

	tests := []struct {
		typ      Type
		canStart bool
		preset   Preset
		draw     int
		wait     int
	}{
		{Type{CARD_2, HEARTS}, false, STANDARD, 2, 0},
		{Type{CARD_3, CLUBS}, false, STANDARD, 3, 0},
		{Type{CARD_4, SPADES}, false, STANDARD, 0, 1},
		{Type{CARD_5, HEARTS}, true, STANDARD, 0, 0},
		{Type{CARD_10, DIAMONDS}, true, STANDARD, 0, 0},
		{Type{JACK, HEARTS}, false, REQUIRE_VALUE, 0, 0},
		{Type{QUEEN, SPADES}, false, ACCEPT_ALL, 0, 0},
		{Type{KING, CLUBS}, false, STANDARD, 5, 0},
		{Type{KING, HEARTS}, false, STANDARD, 5, 0},
		{Type{KING, DIAMONDS}, true, STANDARD, 0, 0},
		{Type{KING, SPADES}, true, STANDARD, 0, 0},
		{Type{ACE, DIAMONDS}, false, REQUIRE_COLOR, 0, 0},
	}
	for _, tt := range tests {
		s := m.Get(tt.typ)
		assert.True(t, s.IncludeInDeck, tt.typ.Code())
		assert.Equal(t, tt.canStart, s.CanBeStartCard, tt.typ.Code())
		assert.Equal(t, tt.preset, s.Preset, tt.typ.Code())
		assert.Equal(t, tt.draw, s.CardsToDraw, tt.typ.Code())
		assert.Equal(t, tt.wait, s.TurnsToWait, tt.typ.Code())
	}
}

func TestSettingsMapOverride(t *testing.T) {
	m := SettingsMap{
		{QUEEN, SPADES}: {IncludeInDeck: true, CanBeStartCard: true, Preset: STANDARD},
	}

	// 覆盖生效
	s := m.Get(Type{QUEEN, SPADES})
	assert.True(t, s.CanBeStartCard)
	assert.Equal(t, STANDARD, s.Preset)

	// 未覆盖的走内置表
	s = m.Get(Type{QUEEN, HEARTS})
	assert.False(t, s.CanBeStartCard)
	assert.Equal(t, ACCEPT_ALL, s.Preset)
}

func TestDeckTypes(t *testing.T) {
	var m SettingsMap
	assert.Len(t, m.DeckTypes(), 52)

	m = SettingsMap{
		{CARD_2, CLUBS}: {IncludeInDeck: false},
	}
	assert.Len(t, m.DeckTypes(), 51)
}
