package card

import (
	"encoding/json"
	"fmt"
)

// Color 花色
type Color int32

const (
	CLUBS Color = iota
	DIAMONDS
	HEARTS
	SPADES
)

var colorCodes = map[Color]string{
	CLUBS:    "C",
	DIAMONDS: "D",
	HEARTS:   "H",
	SPADES:   "S",
}

func (c Color) Code() string {
	return colorCodes[c]
}

func (c Color) String() string {
	switch c {
	case CLUBS:
		return "CLUBS"
	case DIAMONDS:
		return "DIAMONDS"
	case HEARTS:
		return "HEARTS"
	case SPADES:
		return "SPADES"
	default:
		return "Unknown"
	}
}

// Colors 全部花色 固定顺序
func Colors() []Color {
	return []Color{CLUBS, DIAMONDS, HEARTS, SPADES}
}

// ParseColor 解析线上花色名
func ParseColor(name string) (Color, bool) {
	for _, c := range Colors() {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}

// Value 点数
type Value int32

const (
	CARD_2 Value = iota + 2
	CARD_3
	CARD_4
	CARD_5
	CARD_6
	CARD_7
	CARD_8
	CARD_9
	CARD_10
	JACK
	QUEEN
	KING
	ACE
)

var valueCodes = map[Value]string{
	CARD_2: "2", CARD_3: "3", CARD_4: "4", CARD_5: "5", CARD_6: "6",
	CARD_7: "7", CARD_8: "8", CARD_9: "9", CARD_10: "T",
	JACK: "J", QUEEN: "Q", KING: "K", ACE: "A",
}

func (v Value) Code() string {
	return valueCodes[v]
}

func (v Value) String() string {
	switch v {
	case JACK:
		return "JACK"
	case QUEEN:
		return "QUEEN"
	case KING:
		return "KING"
	case ACE:
		return "ACE"
	default:
		return fmt.Sprintf("CARD_%d", int32(v))
	}
}

// Values 全部点数 固定顺序
func Values() []Value {
	return []Value{CARD_2, CARD_3, CARD_4, CARD_5, CARD_6, CARD_7, CARD_8,
		CARD_9, CARD_10, JACK, QUEEN, KING, ACE}
}

// ParseValue 解析线上点数名
func ParseValue(name string) (Value, bool) {
	for _, v := range Values() {
		if v.String() == name {
			return v, true
		}
	}
	return 0, false
}

// Type 牌面 点数+花色
type Type struct {
	Value Value
	Color Color
}

// Code 编码格式：点数码+花色码 如 "AH" "TC"
func (t Type) Code() string {
	return t.Value.Code() + t.Color.Code()
}

// MarshalJSON 线上格式 {"value":"ACE","color":"HEARTS","code":"AH"}
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value string `json:"value"`
		Color string `json:"color"`
		Code  string `json:"code"`
	}{t.Value.String(), t.Color.String(), t.Code()})
}

// AllTypes 一副牌的全部牌面 52张
func AllTypes() []Type {
	types := make([]Type, 0, len(Values())*len(Colors()))
	for _, v := range Values() {
		for _, c := range Colors() {
			types = append(types, Type{Value: v, Color: c})
		}
	}
	return types
}

// Preset 出牌后链重建方式
type Preset int32

const (
	STANDARD Preset = iota // 按顶牌的点数或花色
	REQUIRE_COLOR          // 指定花色
	REQUIRE_VALUE          // 指定点数
	ACCEPT_ALL             // 任意牌
)

func (p Preset) String() string {
	switch p {
	case STANDARD:
		return "STANDARD"
	case REQUIRE_COLOR:
		return "REQUIRE_COLOR"
	case REQUIRE_VALUE:
		return "REQUIRE_VALUE"
	case ACCEPT_ALL:
		return "ACCEPT_ALL"
	default:
		return "Unknown"
	}
}

// Settings 牌面规则配置
type Settings struct {
	IncludeInDeck  bool   // 是否参与组牌
	CanBeStartCard bool   // 可否做起始牌
	Preset         Preset // 链重建方式
	CardsToDraw    int    // 罚抓张数 (数值保留 无判负逻辑)
	TurnsToWait    int    // 罚停轮数 (数值保留 无判负逻辑)
}

// defaultSettings 内置牌面规则表
func defaultSettings(t Type) Settings {
	s := Settings{IncludeInDeck: true, CanBeStartCard: true, Preset: STANDARD}
	switch t.Value {
	case CARD_2:
		s.CanBeStartCard = false
		s.CardsToDraw = 2
	case CARD_3:
		s.CanBeStartCard = false
		s.CardsToDraw = 3
	case CARD_4:
		s.CanBeStartCard = false
		s.TurnsToWait = 1
	case JACK:
		s.CanBeStartCard = false
		s.Preset = REQUIRE_VALUE
	case QUEEN:
		s.CanBeStartCard = false
		s.Preset = ACCEPT_ALL
	case KING:
		// 黑梅/红桃K罚抓5 其余K为普通牌
		if t.Color == CLUBS || t.Color == HEARTS {
			s.CanBeStartCard = false
			s.CardsToDraw = 5
		}
	case ACE:
		s.CanBeStartCard = false
		s.Preset = REQUIRE_COLOR
	}
	return s
}

// SettingsMap 每局可覆盖的规则表 未覆盖时用内置表
type SettingsMap map[Type]Settings

func (m SettingsMap) Get(t Type) Settings {
	if m != nil {
		if s, ok := m[t]; ok {
			return s
		}
	}
	return defaultSettings(t)
}

// DeckTypes 参与组牌的牌面
func (m SettingsMap) DeckTypes() []Type {
	var types []Type
	for _, t := range AllTypes() {
		if m.Get(t).IncludeInDeck {
			types = append(types, t)
		}
	}
	return types
}
