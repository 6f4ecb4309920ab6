package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	profileUC "github.com/fastygo/taskboard/usecase/profile"
)

type ProfileHandler struct {
	baseHandler
	uc *profileUC.UseCase
}

func NewProfileHandler(uc *profileUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Get profile
// @Tags profile
// @Success 200 {object} transport.Envelope
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, ok := h.actor(ctx, stdCtx, h.uc)
	if !ok {
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewUserView(user))
}

// @Summary Update name and email
// @Tags profile
// @Accept json
// @Produce json
// @Router /api/v1/profile [put]
func (h *ProfileHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	var req transport.ProfileUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, ok := h.actor(ctx, stdCtx, h.uc)
	if !ok {
		return
	}

	updated, err := h.uc.UpdateProfile(stdCtx, user, profileUC.Input{Name: req.Name, Email: req.Email})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewUserView(updated))
}

// @Summary Change password
// @Tags profile
// @Router /api/v1/profile/password [put]
func (h *ProfileHandler) ChangePassword(ctx *fasthttp.RequestCtx) {
	var req transport.PasswordChangeRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, ok := h.actor(ctx, stdCtx, h.uc)
	if !ok {
		return
	}

	if err := h.uc.ChangePassword(stdCtx, user, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondNoContent(ctx)
}
