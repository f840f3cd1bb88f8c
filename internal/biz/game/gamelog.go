package game

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yola1107/kratos/v2/library/log/file"

	"github.com/yola1107/makao/internal/biz/deck"
)

const logDirPath = "./logs/log_cache/makao/game_%s.log"

// LogConfig 对局日志开关
type LogConfig struct {
	Open bool `json:"open"`
}

// Log 单局流水日志
type Log struct {
	c      *LogConfig
	gameID uuid.UUID
	logger *file.Log
}

func NewGameLog(gameID uuid.UUID, c *LogConfig) *Log {
	return &Log{
		c:      c,
		gameID: gameID,
		logger: file.NewFileLog(fmt.Sprintf(logDirPath, gameID)),
	}
}

func (l *Log) Close() error {
	return l.logger.Sync()
}

func (l *Log) write(msg string, args ...interface{}) {
	if l.c == nil || !l.c.Open {
		return
	}
	l.logger.WriteLog(msg, args...)
}

func (l *Log) playerJoined(playerID, clientID uuid.UUID, cnt int) {
	l.write("[玩家加入] player:%s client:%s 人数(%d)", playerID, clientID, cnt)
}

func (l *Log) playerLeft(playerID uuid.UUID, cnt int) {
	l.write("[玩家离开] player:%s 剩余(%d)", playerID, cnt)
}

func (l *Log) begin(decks int, players []uuid.UUID, hands map[uuid.UUID][]deck.Card) {
	logs := []string{fmt.Sprintf("[游戏开始] decks:%d players:%d", decks, len(players))}
	for _, p := range players {
		logs = append(logs, fmt.Sprintf("玩家:%s Hands:%s", p, descCards(hands[p])))
	}
	l.write(strings.Join(logs, "\r\n"))
}

func (l *Log) play(playerID uuid.UUID, cards []deck.Card, request string, chain string) {
	l.write("[玩家出牌] player:%s out=%s request=%q chain=%s", playerID, descCards(cards), request, chain)
}

func (l *Log) draw(playerID uuid.UUID, cards []deck.Card) {
	l.write("[玩家抓牌] player:%s drawn=%s", playerID, descCards(cards))
}

func (l *Log) turn(turnOf uuid.UUID) {
	l.write("[回合轮转] turnOf=%s", turnOf)
}

func (l *Log) end(msg string) {
	l.write("[对局结束] %s", msg)
	l.write("\r\n\r\n")
}

func descCards(cards []deck.Card) string {
	codes := make([]string, 0, len(cards))
	for _, c := range cards {
		codes = append(codes, c.Code())
	}
	return "[" + strings.Join(codes, " ") + "]"
}
