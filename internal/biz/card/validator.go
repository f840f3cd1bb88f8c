package card

import (
	"fmt"
	"strings"
)

// Validator 单条出牌规则
type Validator interface {
	Validate(t Type) bool
	Desc() string
}

// Chain 规则链 任一条通过即可出
type Chain []Validator

func (c Chain) Accepts(t Type) bool {
	for _, v := range c {
		if v.Validate(t) {
			return true
		}
	}
	return false
}

func (c Chain) Desc() string {
	descs := make([]string, 0, len(c))
	for _, v := range c {
		descs = append(descs, v.Desc())
	}
	return "[" + strings.Join(descs, " | ") + "]"
}

type acceptAll struct{}

func (acceptAll) Validate(Type) bool { return true }
func (acceptAll) Desc() string       { return "any" }

// AcceptAll 任意牌
func AcceptAll() Validator { return acceptAll{} }

type sameColor struct {
	color Color
}

func (v sameColor) Validate(t Type) bool { return t.Color == v.color }
func (v sameColor) Desc() string         { return fmt.Sprintf("color=%s", v.color) }

// SameColor 同花色
func SameColor(c Color) Validator { return sameColor{color: c} }

type sameValue struct {
	value Value
}

func (v sameValue) Validate(t Type) bool { return t.Value == v.value }
func (v sameValue) Desc() string         { return fmt.Sprintf("value=%s", v.value.Code()) }

// SameValue 同点数
func SameValue(v Value) Validator { return sameValue{value: v} }

type combined struct {
	children []Validator
}

func (v combined) Validate(t Type) bool {
	for _, c := range v.children {
		if !c.Validate(t) {
			return false
		}
	}
	return true
}

func (v combined) Desc() string {
	descs := make([]string, 0, len(v.children))
	for _, c := range v.children {
		descs = append(descs, c.Desc())
	}
	return "(" + strings.Join(descs, " & ") + ")"
}

// Combined 子规则全部通过才可出
func Combined(children ...Validator) Validator { return combined{children: children} }
