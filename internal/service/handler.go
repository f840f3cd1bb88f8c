package service

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/yola1107/kratos/v2/log"

	"github.com/yola1107/makao/internal/biz/game"
	"github.com/yola1107/makao/internal/protocol"
	"github.com/yola1107/makao/internal/transport/ws"
	"github.com/yola1107/makao/pkg/codes"
)

// OnMessage 上行帧统一入口 任一帧都刷新心跳
func (s *Service) OnMessage(sess *ws.Session, data []byte) error {
	c, ok := s.clientBySession(sess)
	if !ok {
		return nil
	}
	c.touch()

	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		_ = c.send(protocol.NewError("", codes.ReasonBadRequest))
		return err
	}

	if err := s.dispatch(c, sess, &env, data); err != nil {
		log.Warnf("request failed. client=%s req=%s err=%v", c.ID(), env.Req, err)
		_ = c.send(protocol.NewError(env.UUID, codes.Reason(err)))
	}
	return nil
}

func (s *Service) dispatch(c *Client, sess *ws.Session, env *protocol.Envelope, data []byte) error {
	switch env.Req {
	case protocol.ReqHeartbeat:
		return nil

	case protocol.ReqAuth:
		return s.handleAuth(c, sess, env, data)

	case protocol.ReqGetGames:
		return s.handleJoinableGames(c, env)

	case protocol.ReqGameList:
		return s.handleOwnGames(c, env)

	case protocol.ReqCreateGame:
		_, err := s.registry.CreateGame(c.ID())
		if err != nil {
			return err
		}
		return c.send(protocol.NewAck(env.UUID))

	case protocol.ReqChangeName:
		var req protocol.ChangeNameRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Name == "" {
			return codes.ErrBadRequest
		}
		c.SetName(req.Name)
		if err := c.send(protocol.NewAck(env.UUID)); err != nil {
			return err
		}
		s.pushClientInfo(c)
		return nil

	case protocol.ReqChangeAvatar:
		c.NewAvatar()
		if err := c.send(protocol.NewAck(env.UUID)); err != nil {
			return err
		}
		s.pushClientInfo(c)
		return nil

	case protocol.ReqJoinGame:
		return s.handleJoin(c, env, data)

	case protocol.ReqGameUpdate:
		return s.handleUpdate(c, env, data)

	case protocol.ReqStartGame:
		var req protocol.StartGameRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return codes.ErrBadRequest
		}
		g, playerID, err := s.ownGame(c, req.PlayerID)
		if err != nil {
			return err
		}
		if !g.Admin(playerID) {
			return codes.ErrNotAdmin
		}
		if err = g.Start(); err != nil {
			return err
		}
		return c.send(protocol.NewAck(env.UUID))

	case protocol.ReqDrawCard:
		var req protocol.DrawCardRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return codes.ErrBadRequest
		}
		g, playerID, err := s.ownGame(c, req.PlayerID)
		if err != nil {
			return err
		}
		if err = g.DrawCard(playerID); err != nil {
			return err
		}
		return c.send(protocol.NewAck(env.UUID))

	case protocol.ReqPlayCard:
		return s.handlePlayCard(c, env, data)

	default:
		log.Warnf("unknown request. client=%s req=%q", c.ID(), env.Req)
		return codes.ErrBadRequest
	}
}

// handleAuth 断线重连 接管旧身份
func (s *Service) handleAuth(c *Client, sess *ws.Session, env *protocol.Envelope, data []byte) error {
	var req protocol.AuthRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return codes.ErrBadRequest
	}
	targetID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return codes.ErrBadRequest
	}

	target, err := s.resume(c, sess, targetID)
	if err != nil {
		return err
	}
	if err = target.send(protocol.NewAck(env.UUID)); err != nil {
		return err
	}
	s.pushClientInfo(target)
	return nil
}

// handleJoinableGames 大厅列表 只含等待开局的对局
func (s *Service) handleJoinableGames(c *Client, env *protocol.Envelope) error {
	return c.send(protocol.NewGamesReply(env.UUID, summaries(s.registry.JoinableGames())))
}

// handleOwnGames 自己所在的对局 不限阶段
func (s *Service) handleOwnGames(c *Client, env *protocol.Envelope) error {
	return c.send(protocol.NewGamesReply(env.UUID, summaries(s.registry.ClientGames(c.ID()))))
}

func summaries(games []*game.Game) []protocol.GameSummary {
	out := make([]protocol.GameSummary, 0, len(games))
	for _, g := range games {
		out = append(out, g.Summary())
	}
	return out
}

func (s *Service) handleJoin(c *Client, env *protocol.Envelope, data []byte) error {
	var req protocol.JoinRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return codes.ErrBadRequest
	}
	gameID, err := uuid.Parse(req.GameID)
	if err != nil {
		return codes.ErrGameNotFound
	}
	g, ok := s.registry.Game(gameID)
	if !ok {
		return codes.ErrGameNotFound
	}
	if g.HasClient(c.ID()) {
		return codes.ErrForbidden
	}
	// 一个连接同时只进一局
	for _, active := range s.registry.ClientGames(c.ID()) {
		if active.Phase() != game.FINISHED {
			return codes.ErrAlreadyInGame
		}
	}
	if _, err = g.AddPlayer(c.ID()); err != nil {
		return err
	}
	return c.send(protocol.NewAck(env.UUID))
}

// handleUpdate 全量快照应答 局内成员附带自己的playerID
func (s *Service) handleUpdate(c *Client, env *protocol.Envelope, data []byte) error {
	var req protocol.UpdateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return codes.ErrBadRequest
	}
	gameID, err := uuid.Parse(req.GameID)
	if err != nil {
		return codes.ErrGameNotFound
	}
	g, ok := s.registry.Game(gameID)
	if !ok {
		return codes.ErrGameNotFound
	}

	var playerID *string
	var self uuid.UUID
	for _, p := range g.Players() {
		if clientID, ok := s.registry.ClientOf(p); ok && clientID == c.ID() {
			str := p.String()
			playerID, self = &str, p
			break
		}
	}
	if err = c.send(protocol.NewUpdateReply(env.UUID, g.FullState(), playerID)); err != nil {
		return err
	}
	if playerID != nil {
		g.UpdatePlayer(self)
	}
	return nil
}

func (s *Service) handlePlayCard(c *Client, env *protocol.Envelope, data []byte) error {
	var req protocol.PlayCardRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return codes.ErrBadRequest
	}
	g, playerID, err := s.ownGame(c, req.PlayerID)
	if err != nil {
		return err
	}

	cardIDs := make([]uuid.UUID, 0, len(req.Cards))
	for _, raw := range req.Cards {
		id, err := uuid.Parse(raw)
		if err != nil {
			return codes.ErrMalformedCards
		}
		cardIDs = append(cardIDs, id)
	}

	if err = g.PlayCard(playerID, cardIDs, req.Request); err != nil {
		return err
	}
	return c.send(protocol.NewAck(env.UUID))
}

// ownGame 解析playerID 校验归属 返回所在对局
func (s *Service) ownGame(c *Client, rawPlayerID string) (*game.Game, uuid.UUID, error) {
	playerID, err := uuid.Parse(rawPlayerID)
	if err != nil {
		return nil, uuid.Nil, codes.ErrBadRequest
	}
	g, ok := s.registry.GameByPlayer(playerID)
	if !ok {
		return nil, uuid.Nil, codes.ErrGameNotFound
	}
	clientID, ok := s.registry.ClientOf(playerID)
	if !ok || clientID != c.ID() {
		return nil, uuid.Nil, codes.ErrForbidden
	}
	return g, playerID, nil
}
