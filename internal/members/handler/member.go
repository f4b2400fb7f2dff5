package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"roombook/internal/members/service"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type MemberHandler struct {
	service service.MemberService
	limiter *middleware.ClientRateLimiter
	log     *logger.Logger
}

func NewMemberHandler(service service.MemberService, limiter *middleware.ClientRateLimiter, log *logger.Logger) *MemberHandler {
	return &MemberHandler{
		service: service,
		limiter: limiter,
		log:     log,
	}
}

func (h *MemberHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Login", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Login", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, pair); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "operation", "WriteJSON", "error", err)
	}
}

func (h *MemberHandler) Refresh(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Refresh", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Refresh", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, pair); err != nil {
		h.log.Error("failed to write success response", "handler", "Refresh", "operation", "WriteJSON", "error", err)
	}
}

func (h *MemberHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/member/login/", h.limiter.Limit(h.Login))
	router.POST("/member/token/refresh/", h.limiter.Limit(h.Refresh))
}
