package game

import (
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/makao/internal/protocol"
	"github.com/yola1107/makao/pkg/codes"
)

// Options 开局参数
type Options struct {
	HandSize int
	LogCache *LogConfig
}

func (o Options) withDefaults() Options {
	if o.HandSize <= 0 {
		o.HandSize = 5
	}
	if o.LogCache == nil {
		o.LogCache = &LogConfig{}
	}
	return o
}

/*
	Registry 对局与身份索引
	三张身份表必须同步变更：连接->玩家列表 玩家->连接 玩家->对局
*/

type Registry struct {
	sender Sender
	opts   Options

	mu            sync.RWMutex
	games         map[uuid.UUID]*Game
	clientPlayers map[uuid.UUID][]uuid.UUID
	playerClient  map[uuid.UUID]uuid.UUID
	playerGame    map[uuid.UUID]*Game
	usedPlayerIDs map[uuid.UUID]struct{}
}

func NewRegistry(sender Sender, opts Options) *Registry {
	return &Registry{
		sender:        sender,
		opts:          opts.withDefaults(),
		games:         make(map[uuid.UUID]*Game),
		clientPlayers: make(map[uuid.UUID][]uuid.UUID),
		playerClient:  make(map[uuid.UUID]uuid.UUID),
		playerGame:    make(map[uuid.UUID]*Game),
		usedPlayerIDs: make(map[uuid.UUID]struct{}),
	}
}

// CreateGame 建局并让发起者入座 一个连接同时只能有一个未结束的局
// 查重 建局 发起者身份登记在同一临界区内完成
func (r *Registry) CreateGame(clientID uuid.UUID) (*Game, error) {
	r.mu.Lock()
	for _, p := range r.clientPlayers[clientID] {
		if g, ok := r.playerGame[p]; ok && g.Phase() != FINISHED {
			r.mu.Unlock()
			return nil, codes.ErrAlreadyInGame
		}
	}

	id := uuid.New()
	for {
		if _, exists := r.games[id]; !exists {
			break
		}
		id = uuid.New()
	}
	g := newGame(id, r, r.sender, r.opts)
	r.games[id] = g
	playerID := r.allocPlayerIDLocked(clientID, g)
	r.mu.Unlock()

	g.seat(clientID, playerID)

	log.Infof("game created. game=%s client=%s", id, clientID)
	r.sender.Broadcast(protocol.NewGameListAdded(g.Summary()))
	return g, nil
}

// Game 按对局ID查找
func (r *Registry) Game(id uuid.UUID) (*Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	return g, ok
}

// GameByPlayer 按玩家ID查找所在对局
func (r *Registry) GameByPlayer(playerID uuid.UUID) (*Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.playerGame[playerID]
	return g, ok
}

// ClientGames 该连接名下的对局
func (r *Registry) ClientGames(clientID uuid.UUID) []*Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.FilterMap(r.clientPlayers[clientID], func(p uuid.UUID, _ int) (*Game, bool) {
		g, ok := r.playerGame[p]
		return g, ok
	})
}

// JoinableGames 备局中的对局
func (r *Registry) JoinableGames() []*Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Filter(lo.Values(r.games), func(g *Game, _ int) bool {
		return g.Phase() == PREPARING
	})
}

// UniquePlayerID 分配进程内唯一玩家ID并登记三张身份表
func (r *Registry) UniquePlayerID(clientID uuid.UUID, g *Game) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocPlayerIDLocked(clientID, g)
}

func (r *Registry) allocPlayerIDLocked(clientID uuid.UUID, g *Game) uuid.UUID {
	id := uuid.New()
	for {
		if _, used := r.usedPlayerIDs[id]; !used {
			break
		}
		id = uuid.New()
	}
	r.usedPlayerIDs[id] = struct{}{}
	r.playerClient[id] = clientID
	r.playerGame[id] = g
	r.clientPlayers[clientID] = append(r.clientPlayers[clientID], id)
	return id
}

// RemovePlayer 三张身份表同时清除
func (r *Registry) RemovePlayer(playerID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clientID, ok := r.playerClient[playerID]; ok {
		r.clientPlayers[clientID] = lo.Without(r.clientPlayers[clientID], playerID)
		if len(r.clientPlayers[clientID]) == 0 {
			delete(r.clientPlayers, clientID)
		}
	}
	delete(r.playerClient, playerID)
	delete(r.playerGame, playerID)
}

// ClientOf 玩家所属连接
func (r *Registry) ClientOf(playerID uuid.UUID) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clientID, ok := r.playerClient[playerID]
	return clientID, ok
}

// RemoveGame 从索引删除对局
func (r *Registry) RemoveGame(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, id)
}

// OnClientRemoved 连接身份销毁时尽力清退其玩家 阶段不允许的忽略
func (r *Registry) OnClientRemoved(clientID uuid.UUID) {
	r.mu.RLock()
	players := append([]uuid.UUID(nil), r.clientPlayers[clientID]...)
	r.mu.RUnlock()

	for _, p := range players {
		if g, ok := r.GameByPlayer(p); ok {
			if err := g.RemovePlayer(p); err != nil {
				log.Warnf("remove player skipped. game=%s player=%s err=%v", g.ID(), p, err)
			}
		}
	}

	r.mu.Lock()
	delete(r.clientPlayers, clientID)
	r.mu.Unlock()
}
