package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/pkg/jwtauth"
	authUC "github.com/fastygo/taskboard/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc         *authUC.UseCase
	tokens     *jwtauth.Manager
	sessionTTL time.Duration
}

func NewAuthHandler(uc *authUC.UseCase, tokens *jwtauth.Manager, adapter *httpcontext.Adapter, logger *zap.Logger, sessionTTL time.Duration) *AuthHandler {
	if sessionTTL <= 0 {
		sessionTTL = 2 * time.Hour
	}
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		tokens:      tokens,
		sessionTTL:  sessionTTL,
	}
}

// @Summary Register a new account
// @Tags auth
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Register(stdCtx, authUC.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, transport.NewUserView(user))
}

// @Summary Exchange credentials for a session token
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, session, err := h.uc.Login(stdCtx, req.Email, req.Password, h.sessionTTL)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSession(ctx, user, session)
}

// @Summary Extend the current session and issue a fresh token
// @Tags auth
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.RefreshSession(stdCtx, httpcontext.SessionID(ctx), h.sessionTTL)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			err = domain.ErrUnauthorized
		}
		h.respondError(ctx, err)
		return
	}
	user, err := h.uc.CurrentUser(stdCtx, session.UserID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSession(ctx, user, session)
}

// @Summary Revoke the current session
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.RevokeSession(stdCtx, httpcontext.SessionID(ctx)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

func (h *AuthHandler) respondSession(ctx *fasthttp.RequestCtx, user *domain.User, session *domain.Session) {
	token, expires, err := h.tokens.Issue(user.ID, session.ID)
	if err != nil {
		h.respondError(ctx, domain.NewStorageError(err))
		return
	}
	if session.ExpiresAt.Before(expires) {
		expires = session.ExpiresAt
	}
	h.respondSuccess(ctx, http.StatusOK, transport.SessionView{
		Token:     token,
		SessionID: session.ID,
		ExpiresAt: expires,
		User:      transport.NewUserView(user),
	})
}
