package game

import (
	"github.com/google/uuid"
	"github.com/yola1107/kratos/v2/library/xgo"
)

// TurnManager 回合轮转 加入顺序即座次
type TurnManager struct {
	players []uuid.UUID
	turnOf  uuid.UUID // uuid.Nil 表示未定
}

func (t *TurnManager) Add(id uuid.UUID) {
	t.players = append(t.players, id)
}

func (t *TurnManager) Len() int {
	return len(t.players)
}

// Current 当前回合玩家 首次访问时随机指定
func (t *TurnManager) Current() uuid.UUID {
	if t.turnOf == uuid.Nil {
		t.Next()
	}
	return t.turnOf
}

// Next 顺序轮转到下一家 未定时随机指定第一家
func (t *TurnManager) Next() {
	if len(t.players) == 0 {
		return
	}
	if t.turnOf == uuid.Nil {
		t.turnOf = t.players[xgo.RandInt(0, len(t.players))]
		return
	}
	t.turnOf = t.players[(t.index(t.turnOf)+1)%len(t.players)]
}

func (t *TurnManager) index(id uuid.UUID) int {
	for i, p := range t.players {
		if p == id {
			return i
		}
	}
	return -1
}

// Remove 移除玩家 正轮到被移除者时先轮转再删
func (t *TurnManager) Remove(id uuid.UUID) {
	if t.turnOf == id {
		t.Next()
	}
	if i := t.index(id); i >= 0 {
		t.players = append(t.players[:i:i], t.players[i+1:]...)
	}
	// 轮转后仍指向被移除者说明没人了 置为未定
	if t.turnOf == id {
		t.turnOf = uuid.Nil
	}
}
