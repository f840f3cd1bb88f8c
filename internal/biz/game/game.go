package game

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/makao/internal/biz/card"
	"github.com/yola1107/makao/internal/biz/deck"
	"github.com/yola1107/makao/internal/protocol"
	"github.com/yola1107/makao/pkg/codes"
)

// Phase 对局阶段 单向推进
type Phase int32

const (
	PREPARING Phase = iota // 备局 可加人
	IN_GAME                // 对局中
	FINISHED               // 终局 不再变更
)

func (p Phase) String() string {
	switch p {
	case PREPARING:
		return "PREPARING"
	case IN_GAME:
		return "IN_GAME"
	case FINISHED:
		return "FINISHED"
	default:
		return "Unknown"
	}
}

// Game 一局Makao
type Game struct {
	id       uuid.UUID
	registry *Registry
	sender   Sender
	mLog     *Log
	handSize int

	phase atomic.Int32 // Phase 锁外可读

	// 游戏变量 mu覆盖 players deck chain turn drawn
	mu        sync.Mutex
	players   []uuid.UUID // 加入顺序 首位为admin
	deck      *deck.Deck
	chain     card.Chain
	settings  card.SettingsMap
	turn      *TurnManager
	drawnCard bool
}

func newGame(id uuid.UUID, registry *Registry, sender Sender, opts Options) *Game {
	return &Game{
		id:       id,
		registry: registry,
		sender:   sender,
		mLog:     NewGameLog(id, opts.LogCache),
		handSize: opts.HandSize,
		settings: card.SettingsMap{},
		turn:     &TurnManager{},
	}
}

func (g *Game) ID() uuid.UUID {
	return g.id
}

// Phase 当前阶段 无需持锁
func (g *Game) Phase() Phase {
	return Phase(g.phase.Load())
}

func (g *Game) setPhase(p Phase, out *outbox) {
	g.phase.Store(int32(p))
	g.sendAll(out, protocol.NewGameStateChanged(g.id.String(), g.fullStateLocked()))
}

// Players 加入顺序的玩家ID
func (g *Game) Players() []uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]uuid.UUID(nil), g.players...)
}

// Turn 当前回合玩家
func (g *Game) Turn() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turn.Current()
}

// Admin 首位加入者是房主
func (g *Game) Admin(playerID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players) > 0 && g.players[0] == playerID
}

// HasClient 该连接是否已入局
func (g *Game) HasClient(clientID uuid.UUID) bool {
	for _, p := range g.Players() {
		if c, ok := g.registry.ClientOf(p); ok && c == clientID {
			return true
		}
	}
	return false
}

// AddPlayer 备局阶段加人 分配玩家ID并通知各方
func (g *Game) AddPlayer(clientID uuid.UUID) (uuid.UUID, error) {
	out := newOutbox(g.sender)
	defer out.Flush()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Phase() != PREPARING {
		return uuid.Nil, codes.ErrWrongPhase
	}

	playerID := g.registry.UniquePlayerID(clientID, g)
	g.seatLocked(out, clientID, playerID)
	return playerID, nil
}

// seat 用已分配好的玩家ID入座 建局时发起者走这里
func (g *Game) seat(clientID, playerID uuid.UUID) {
	out := newOutbox(g.sender)
	defer out.Flush()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.seatLocked(out, clientID, playerID)
}

func (g *Game) seatLocked(out *outbox, clientID, playerID uuid.UUID) {
	g.players = append(g.players, playerID)
	g.turn.Add(playerID)

	g.mLog.playerJoined(playerID, clientID, len(g.players))
	log.Infof("player joined. game=%s player=%s client=%s cnt=%d", g.id, playerID, clientID, len(g.players))

	info := g.playerInfoLocked(playerID)
	out.to(clientID, protocol.NewPlayerIDAssigned(g.id.String(), info))
	out.to(clientID, protocol.NewGameStateChanged(g.id.String(), g.fullStateLocked()))
	g.sendAll(out, protocol.NewPlayerJoined(g.id.String(), info))
	out.broadcast(protocol.NewGameListUpdated(g.summaryLocked()))
}

// RemovePlayer 离场 手牌弃置 空局即拆局
func (g *Game) RemovePlayer(playerID uuid.UUID) error {
	out := newOutbox(g.sender)
	defer out.Flush()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Phase() == FINISHED {
		return codes.ErrWrongPhase
	}

	i := g.indexLocked(playerID)
	if i < 0 {
		return nil
	}

	info := g.playerInfoLocked(playerID)
	g.players = append(g.players[:i:i], g.players[i+1:]...)
	g.turn.Remove(playerID)
	if g.deck != nil {
		g.deck.RemovePlayer(playerID)
	}
	g.registry.RemovePlayer(playerID)

	g.mLog.playerLeft(playerID, len(g.players))
	log.Infof("player left. game=%s player=%s cnt=%d", g.id, playerID, len(g.players))

	g.sendAll(out, protocol.NewPlayerLeft(g.id.String(), info))
	if g.Phase() == PREPARING {
		out.broadcast(protocol.NewGameListUpdated(g.summaryLocked()))
	}
	if len(g.players) == 0 {
		g.registry.RemoveGame(g.id)
		g.mLog.end("last player left")
		_ = g.mLog.Close()
		out.broadcast(protocol.NewGameListRemoved(g.id.String()))
	}
	return nil
}

// Start 开局 组牌发牌 定首家
func (g *Game) Start() error {
	out := newOutbox(g.sender)
	defer out.Flush()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Phase() != PREPARING {
		return codes.ErrWrongPhase
	}

	// 先组牌 失败不动任何状态
	decks := (len(g.players)-1)/4 + 1
	d, err := deck.New(decks, g.settings)
	if err != nil {
		return err
	}

	g.setPhase(IN_GAME, out)
	out.broadcast(protocol.NewGameListRemoved(g.id.String()))

	// 随机首家
	g.turn.Current()

	g.deck = d
	g.sendAll(out, protocol.NewGameStateChanged(g.id.String(), g.fullStateLocked()))

	hands := make(map[uuid.UUID][]deck.Card, len(g.players))
	for _, p := range g.players {
		g.deck.Deal(p, g.handSize)
		hands[p] = g.deck.Hand(p)
		g.sendSelfCards(out, p)
	}

	// 起始牌按普通牌建链
	top, _ := g.deck.Top()
	g.setStandardChain(top.Type)

	g.mLog.begin(decks, g.players, hands)
	log.Infof("game started. game=%s players=%d decks=%d", g.id, len(g.players), decks)

	g.nextTurnLocked(out)
	return nil
}

// DrawCard 当前回合玩家摸一张 每回合一次
func (g *Game) DrawCard(playerID uuid.UUID) error {
	out := newOutbox(g.sender)
	defer out.Flush()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.indexLocked(playerID) < 0 {
		return codes.ErrPlayerNotFound
	}
	if g.Phase() != IN_GAME {
		return codes.ErrWrongPhase
	}
	if g.turn.Current() != playerID {
		return codes.ErrWrongTurn
	}
	if g.drawnCard {
		return codes.ErrAlreadyDrawn
	}

	g.drawnCard = true
	drawn := g.deck.Deal(playerID, 1)
	g.mLog.draw(playerID, drawn)
	g.sendSelfCards(out, playerID)
	return nil
}

// PlayCard 批量出牌 全部校验通过才落地 过牌后按末张重建规则链
func (g *Game) PlayCard(playerID uuid.UUID, cardIDs []uuid.UUID, request *string) error {
	out := newOutbox(g.sender)
	defer out.Flush()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.indexLocked(playerID) < 0 {
		return codes.ErrPlayerNotFound
	}
	if g.Phase() != IN_GAME {
		return codes.ErrWrongPhase
	}
	if g.turn.Current() != playerID {
		return codes.ErrWrongTurn
	}
	if len(cardIDs) == 0 {
		return codes.ErrInvalidCard
	}

	// 先整批校验
	seen := make(map[uuid.UUID]bool, len(cardIDs))
	var batch []deck.Card
	for i, id := range cardIDs {
		t, ok := g.deck.Lookup(id)
		if !ok || !g.deck.Holds(playerID, id) {
			return codes.ErrCardNotFound
		}
		if seen[id] {
			return codes.ErrInvalidCard
		}
		seen[id] = true

		// 首张过链 其余同点数
		if i == 0 && !g.chain.Accepts(t) {
			return codes.ErrInvalidCard
		}
		if i > 0 && batch[0].Type.Value != t.Value {
			return codes.ErrInvalidCard
		}
		batch = append(batch, deck.Card{ID: id, Type: t})
	}

	final := batch[len(batch)-1]
	preset := g.settings.Get(final.Type).Preset
	var reqColor card.Color
	var reqValue card.Value
	switch preset {
	case card.REQUIRE_COLOR:
		if request == nil {
			return codes.ErrMissingRequest
		}
		c, ok := card.ParseColor(*request)
		if !ok {
			return codes.ErrBadRequest
		}
		reqColor = c
	case card.REQUIRE_VALUE:
		if request == nil {
			return codes.ErrMissingRequest
		}
		v, ok := card.ParseValue(*request)
		if !ok {
			return codes.ErrBadRequest
		}
		reqValue = v
	}

	// 整批落地
	for _, c := range batch {
		g.deck.Play(c.ID)
	}

	switch preset {
	case card.STANDARD:
		g.setStandardChain(final.Type)
	case card.ACCEPT_ALL:
		g.chain = card.Chain{card.AcceptAll()}
	case card.REQUIRE_COLOR:
		g.setRequiredColorChain(reqColor)
	case card.REQUIRE_VALUE:
		g.setRequiredValueChain(reqValue)
	}

	reqDesc := ""
	if request != nil {
		reqDesc = *request
	}
	g.mLog.play(playerID, batch, reqDesc, g.chain.Desc())
	log.Debugf("card played. game=%s player=%s cards=%d chain=%s", g.id, playerID, len(batch), g.chain.Desc())

	g.sendAll(out, protocol.NewDeckUpdated(g.id.String(), g.deckViewLocked()))
	g.sendSelfCards(out, playerID)
	g.nextTurnLocked(out)
	return nil
}

// UpdatePlayer 给单个玩家重推全量状态与手牌
func (g *Game) UpdatePlayer(playerID uuid.UUID) {
	out := newOutbox(g.sender)
	defer out.Flush()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.indexLocked(playerID) < 0 {
		return
	}
	clientID, ok := g.registry.ClientOf(playerID)
	if !ok {
		return
	}
	out.to(clientID, protocol.NewGameStateChanged(g.id.String(), g.fullStateLocked()))
	g.sendSelfCards(out, playerID)
}

// Summary 大厅摘要
func (g *Game) Summary() protocol.GameSummary {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.summaryLocked()
}

// FullState 完整快照
func (g *Game) FullState() protocol.GameFull {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fullStateLocked()
}

func (g *Game) nextTurnLocked(out *outbox) {
	g.drawnCard = false
	g.turn.Next()
	turnOf := g.turn.Current()
	g.mLog.turn(turnOf)
	g.sendAll(out, protocol.NewNextTurn(g.id.String(), turnOf.String()))
}

func (g *Game) setStandardChain(t card.Type) {
	g.chain = card.Chain{card.SameColor(t.Color), card.SameValue(t.Value)}
}

// setRequiredColorChain 指定花色 同preset牌面保留兜底出口
func (g *Game) setRequiredColorChain(c card.Color) {
	chain := card.Chain{card.SameColor(c)}
	for _, t := range card.AllTypes() {
		if g.settings.Get(t).Preset == card.REQUIRE_COLOR {
			chain = append(chain, card.Combined(card.SameValue(t.Value), card.SameColor(t.Color)))
		}
	}
	g.chain = chain
}

func (g *Game) setRequiredValueChain(v card.Value) {
	chain := card.Chain{card.SameValue(v)}
	for _, t := range card.AllTypes() {
		if g.settings.Get(t).Preset == card.REQUIRE_VALUE {
			chain = append(chain, card.Combined(card.SameValue(t.Value), card.SameColor(t.Color)))
		}
	}
	g.chain = chain
}

func (g *Game) indexLocked(playerID uuid.UUID) int {
	for i, p := range g.players {
		if p == playerID {
			return i
		}
	}
	return -1
}

// sendAll 发给局内每个玩家各自的连接
func (g *Game) sendAll(out *outbox, msg protocol.Message) {
	for _, p := range g.players {
		if clientID, ok := g.registry.ClientOf(p); ok {
			out.to(clientID, msg)
		}
	}
}

// sendSelfCards 手牌只发给本人
func (g *Game) sendSelfCards(out *outbox, playerID uuid.UUID) {
	if g.deck == nil {
		return
	}
	clientID, ok := g.registry.ClientOf(playerID)
	if !ok {
		return
	}
	cards := make([]protocol.CardInfo, 0, g.deck.HandSize(playerID))
	for _, c := range g.deck.Hand(playerID) {
		cards = append(cards, cardInfo(c))
	}
	out.to(clientID, protocol.NewSelfCardsUpdated(g.id.String(), cards))
}

func (g *Game) summaryLocked() protocol.GameSummary {
	players := make([]protocol.PlayerInfo, 0, len(g.players))
	for _, p := range g.players {
		players = append(players, g.playerInfoLocked(p))
	}
	return protocol.GameSummary{
		UUID:    g.id.String(),
		Phase:   g.Phase().String(),
		Players: players,
	}
}

func (g *Game) fullStateLocked() protocol.GameFull {
	turnOf := ""
	if len(g.players) > 0 {
		turnOf = g.turn.Current().String()
	}
	return protocol.GameFull{
		GameSummary: g.summaryLocked(),
		Deck:        g.deckViewLocked(),
		TurnOf:      turnOf,
	}
}

// deckViewLocked 公开视图只含弃牌堆 不泄露抽牌堆顺序
func (g *Game) deckViewLocked() *protocol.DeckView {
	if g.deck == nil {
		return nil
	}
	discarded := make([]protocol.CardInfo, 0, g.deck.DiscardCount())
	for _, c := range g.deck.Discarded() {
		discarded = append(discarded, cardInfo(c))
	}
	return &protocol.DeckView{DiscardedCards: discarded}
}

func (g *Game) playerInfoLocked(playerID uuid.UUID) protocol.PlayerInfo {
	info := protocol.PlayerInfo{UUID: playerID.String()}
	if g.deck != nil {
		info.CardsRemaining = g.deck.HandSize(playerID)
	}
	if clientID, ok := g.registry.ClientOf(playerID); ok {
		if name, avatar, ok := g.sender.ClientInfo(clientID); ok {
			info.Name = name
			info.Avatar = &avatar
		}
	}
	return info
}

func cardInfo(c deck.Card) protocol.CardInfo {
	return protocol.CardInfo{
		UUID: c.ID.String(),
		Type: protocol.CardType{
			Value: c.Type.Value.String(),
			Color: c.Type.Color.String(),
			Code:  c.Type.Code(),
		},
	}
}
