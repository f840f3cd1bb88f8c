package codes

import (
	"github.com/yola1107/kratos/v2/errors"
)

// 线上协议错误码 Reason即下发给客户端的error字段
const (
	ReasonBadRequest           = "BAD_REQUEST"
	ReasonForbidden            = "FORBIDDEN"
	ReasonNotFound             = "NOT_FOUND"
	ReasonClientStillConnected = "CLIENT_STILL_CONNECTED"
	ReasonInternal             = "INTERNAL_SERVER_ERROR"
)

var (
	ErrBadRequest     = errors.New(400, ReasonBadRequest, "bad request")
	ErrMalformedCards = errors.New(400, ReasonBadRequest, "malformed card list")
	ErrMissingRequest = errors.New(400, ReasonBadRequest, "request value required")
	ErrResumeSelf     = errors.New(400, ReasonBadRequest, "resume to own identity")

	ErrForbidden     = errors.New(403, ReasonForbidden, "forbidden")
	ErrWrongTurn     = errors.New(403, ReasonForbidden, "not this player's turn")
	ErrWrongPhase    = errors.New(403, ReasonForbidden, "operation not allowed in this phase")
	ErrInvalidCard   = errors.New(403, ReasonForbidden, "card rejected by rules")
	ErrAlreadyDrawn  = errors.New(403, ReasonForbidden, "already drew this turn")
	ErrNotAdmin      = errors.New(403, ReasonForbidden, "admin only")
	ErrAlreadyInGame = errors.New(403, ReasonForbidden, "client already in an active game")
	ErrResumeUnknown = errors.New(403, ReasonForbidden, "unknown client identity")

	ErrGameNotFound   = errors.New(404, ReasonNotFound, "game not found")
	ErrPlayerNotFound = errors.New(404, ReasonNotFound, "player not found")
	ErrCardNotFound   = errors.New(404, ReasonNotFound, "card not found")

	ErrStillConnected = errors.New(409, ReasonClientStillConnected, "client still connected")

	ErrInternal = errors.New(500, ReasonInternal, "internal server error")
)

// Reason 映射为线上error字段 未识别的一律内部错误
func Reason(err error) string {
	if err == nil {
		return ""
	}
	e := errors.FromError(err)
	switch e.Reason {
	case ReasonBadRequest, ReasonForbidden, ReasonNotFound, ReasonClientStillConnected:
		return e.Reason
	default:
		return ReasonInternal
	}
}
