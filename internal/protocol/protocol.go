// Package protocol 定义线上JSON协议 一条文本帧即一条消息
package protocol

import (
	"encoding/json"
)

// 上行请求名
const (
	ReqHeartbeat    = "HEARTBEAT"
	ReqAuth         = "AUTH"
	ReqGetGames     = "GET_GAMES"
	ReqCreateGame   = "CREATE_GAME"
	ReqChangeName   = "CHANGE_NAME"
	ReqChangeAvatar = "CHANGE_AVATAR"
	ReqPlayCard     = "GAME.PLAY_CARD"
	ReqDrawCard     = "GAME.DRAW_CARD"
	ReqStartGame    = "GAME.START_GAME"
	ReqGameList     = "GAME.LIST"
	ReqJoinGame     = "GAME.JOIN"
	ReqGameUpdate   = "GAME.UPDATE"
)

// 下行推送事件名
const (
	EvHello            = "HELLO"
	EvClientInfo       = "CLIENT_INFO"
	EvHeartbeat        = "HEARTBEAT"
	EvGameListAdded    = "GAME_LIST_ADDED"
	EvGameListRemoved  = "GAME_LIST_REMOVED"
	EvGameListUpdated  = "GAME_LIST_UPDATED"
	EvGameStateChanged = "GAME.GAME_STATE_CHANGED"
	EvNextTurn         = "GAME.NEXT_TURN"
	EvPlayerIDAssigned = "GAME.PLAYER_ID_ASSIGNED"
	EvPlayerJoined     = "GAME.PLAYER_JOINED"
	EvPlayerLeft       = "GAME.PLAYER_LEFT"
	EvDeckUpdated      = "GAME.DECK_UPDATED"
	EvSelfCards        = "GAME.SELF_CARDS_UPDATED"
)

// Envelope 上行信封 uuid为请求关联ID 其余字段按请求名二次解码
type Envelope struct {
	Req  string `json:"req"`
	UUID string `json:"uuid"`
}

// 上行请求体

type AuthRequest struct {
	ClientID string `json:"clientID"`
}

type ChangeNameRequest struct {
	Name string `json:"name"`
}

type JoinRequest struct {
	GameID string `json:"gameID"`
}

type UpdateRequest struct {
	GameID string `json:"gameID"`
}

type StartGameRequest struct {
	PlayerID string `json:"playerID"`
}

type DrawCardRequest struct {
	PlayerID string `json:"playerID"`
}

type PlayCardRequest struct {
	PlayerID string   `json:"playerID"`
	Cards    []string `json:"cards"`
	Request  *string  `json:"request"` // REQUIRE_COLOR/REQUIRE_VALUE 时必填
}

// Message 可下发的消息 发送前盖上连接内递增的seq
type Message interface {
	SetSeq(seq uint64)
}

// Frame 下行公共帧头
type Frame struct {
	Seq uint64 `json:"seq"`
}

func (f *Frame) SetSeq(seq uint64) { f.Seq = seq }

// Encode 编码为一条文本帧
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// 请求应答

type Ack struct {
	Frame
	Success bool   `json:"success"`
	Req     string `json:"req"`
}

func NewAck(reqID string) *Ack {
	return &Ack{Success: true, Req: reqID}
}

type ErrorReply struct {
	Frame
	Success bool    `json:"success"`
	Req     *string `json:"req"`
	Error   string  `json:"error"`
}

func NewError(reqID string, reason string) *ErrorReply {
	e := &ErrorReply{Success: true, Error: reason}
	if reqID != "" {
		e.Req = &reqID
	}
	return e
}

type GamesReply struct {
	Frame
	Success bool          `json:"success"`
	Req     string        `json:"req"`
	Games   []GameSummary `json:"games"`
}

func NewGamesReply(reqID string, games []GameSummary) *GamesReply {
	if games == nil {
		games = []GameSummary{}
	}
	return &GamesReply{Success: true, Req: reqID, Games: games}
}

type UpdateReply struct {
	Frame
	Success  bool     `json:"success"`
	Req      string   `json:"req"`
	Game     GameFull `json:"game"`
	PlayerID *string  `json:"playerID"`
}

func NewUpdateReply(reqID string, game GameFull, playerID *string) *UpdateReply {
	return &UpdateReply{Success: true, Req: reqID, Game: game, PlayerID: playerID}
}

// 下行推送

type Hello struct {
	Frame
	Req      string `json:"req"`
	ClientID string `json:"clientID"`
	ServerID string `json:"serverID"`
}

func NewHello(clientID, serverID string) *Hello {
	return &Hello{Req: EvHello, ClientID: clientID, ServerID: serverID}
}

type ClientInfo struct {
	Frame
	Req    string `json:"req"`
	Avatar string `json:"avatar"`
	Name   string `json:"name"`
}

func NewClientInfo(avatar, name string) *ClientInfo {
	return &ClientInfo{Req: EvClientInfo, Avatar: avatar, Name: name}
}

type Heartbeat struct {
	Frame
	Req string `json:"req"`
}

func NewHeartbeat() *Heartbeat {
	return &Heartbeat{Req: EvHeartbeat}
}

type GameListAdded struct {
	Frame
	Req  string      `json:"req"`
	Game GameSummary `json:"game"`
}

func NewGameListAdded(game GameSummary) *GameListAdded {
	return &GameListAdded{Req: EvGameListAdded, Game: game}
}

type GameListRemoved struct {
	Frame
	Req    string `json:"req"`
	GameID string `json:"gameID"`
}

func NewGameListRemoved(gameID string) *GameListRemoved {
	return &GameListRemoved{Req: EvGameListRemoved, GameID: gameID}
}

type GameListUpdated struct {
	Frame
	Req  string      `json:"req"`
	Game GameSummary `json:"game"`
}

func NewGameListUpdated(game GameSummary) *GameListUpdated {
	return &GameListUpdated{Req: EvGameListUpdated, Game: game}
}

type GameStateChanged struct {
	Frame
	Req  string   `json:"req"`
	ID   string   `json:"id"`
	Game GameFull `json:"game"`
}

func NewGameStateChanged(gameID string, game GameFull) *GameStateChanged {
	return &GameStateChanged{Req: EvGameStateChanged, ID: gameID, Game: game}
}

type NextTurn struct {
	Frame
	Req    string `json:"req"`
	ID     string `json:"id"`
	TurnOf string `json:"turnOf"`
}

func NewNextTurn(gameID, turnOf string) *NextTurn {
	return &NextTurn{Req: EvNextTurn, ID: gameID, TurnOf: turnOf}
}

type PlayerEvent struct {
	Frame
	Req    string     `json:"req"`
	ID     string     `json:"id"`
	Player PlayerInfo `json:"player"`
}

func NewPlayerIDAssigned(gameID string, player PlayerInfo) *PlayerEvent {
	return &PlayerEvent{Req: EvPlayerIDAssigned, ID: gameID, Player: player}
}

func NewPlayerJoined(gameID string, player PlayerInfo) *PlayerEvent {
	return &PlayerEvent{Req: EvPlayerJoined, ID: gameID, Player: player}
}

func NewPlayerLeft(gameID string, player PlayerInfo) *PlayerEvent {
	return &PlayerEvent{Req: EvPlayerLeft, ID: gameID, Player: player}
}

type DeckUpdated struct {
	Frame
	Req  string    `json:"req"`
	ID   string    `json:"id"`
	Deck *DeckView `json:"deck"`
}

func NewDeckUpdated(gameID string, deck *DeckView) *DeckUpdated {
	return &DeckUpdated{Req: EvDeckUpdated, ID: gameID, Deck: deck}
}

type SelfCardsUpdated struct {
	Frame
	Req   string     `json:"req"`
	ID    string     `json:"id"`
	Cards []CardInfo `json:"cards"`
}

func NewSelfCardsUpdated(gameID string, cards []CardInfo) *SelfCardsUpdated {
	if cards == nil {
		cards = []CardInfo{}
	}
	return &SelfCardsUpdated{Req: EvSelfCards, ID: gameID, Cards: cards}
}

// 视图对象

// CardInfo 单张牌的公开描述
type CardInfo struct {
	UUID string   `json:"uuid"`
	Type CardType `json:"type"`
}

type CardType struct {
	Value string `json:"value"`
	Color string `json:"color"`
	Code  string `json:"code"`
}

// PlayerInfo 玩家公开信息 不含手牌
type PlayerInfo struct {
	UUID           string  `json:"uuid"`
	CardsRemaining int     `json:"cardsRemaining"`
	Avatar         *string `json:"avatar"`
	Name           string  `json:"name"`
}

// DeckView 牌堆公开视图 只含弃牌堆 末位为顶牌
type DeckView struct {
	DiscardedCards []CardInfo `json:"discardedCards"`
}

// GameSummary 大厅列表用摘要
type GameSummary struct {
	UUID    string       `json:"uuid"`
	Phase   string       `json:"phase"`
	Players []PlayerInfo `json:"players"`
}

// GameFull 完整快照 含牌堆公开视图与当前回合
type GameFull struct {
	GameSummary
	Deck   *DeckView `json:"deck"`
	TurnOf string    `json:"turnOf"`
}
