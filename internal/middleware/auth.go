package middleware

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/pkg/jwtauth"
)

// SessionChecker resolves live sessions. Expired or revoked sessions must
// return an error.
type SessionChecker interface {
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

// JWTAuth admits requests carrying a valid bearer token whose session is
// still alive, and records the caller on the request.
func JWTAuth(tokens *jwtauth.Manager, sessions SessionChecker, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing token")
				return
			}

			claims, err := tokens.Parse(tokenString)
			if err != nil {
				logger.Warn("invalid jwt token", zap.Error(err))
				unauthorized(ctx, "invalid token")
				return
			}

			if sessions != nil {
				session, err := sessions.GetSession(ctx, claims.SessionID)
				if err != nil || !session.BelongsTo(claims.UserID) {
					logger.Debug("session rejected", zap.String("session_id", claims.SessionID), zap.Error(err))
					unauthorized(ctx, "session expired")
					return
				}
			}

			ctx.SetUserValue(httpcontext.UserIDKey, claims.UserID)
			ctx.SetUserValue(httpcontext.SessionIDKey, claims.SessionID)

			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeUnauthorized), message, nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBody(body)
}
