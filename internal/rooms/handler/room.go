package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"roombook/internal/rooms/service"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/middleware"
	"roombook/pkg/model"
)

type RoomHandler struct {
	service service.RoomService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

// availableRoom is the public listing shape: id, name and capacity only.
type availableRoom struct {
	ID       string `json:"id"`
	RoomName string `json:"room_name"`
	Capacity int    `json:"capacity"`
}

func NewRoomHandler(service service.RoomService, auth *middleware.Authenticator, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

// Available lists rooms free for the requested window. Without a window it
// lists every active room.
func (h *RoomHandler) Available(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	var start, end *time.Time
	if startStr := query.Get("start_time"); startStr != "" {
		parsed, err := time.Parse(model.TimeLayout, startStr)
		if err != nil {
			h.writeError(w, "Available", apperrors.InvalidInput(fmt.Sprintf("invalid start_time format, must be %q", model.TimeLayout)))
			return
		}
		start = &parsed
	}
	if endStr := query.Get("end_time"); endStr != "" {
		parsed, err := time.Parse(model.TimeLayout, endStr)
		if err != nil {
			h.writeError(w, "Available", apperrors.InvalidInput(fmt.Sprintf("invalid end_time format, must be %q", model.TimeLayout)))
			return
		}
		end = &parsed
	}

	limit, offset, err := paginationParams(query.Get("limit"), query.Get("offset"))
	if err != nil {
		h.writeError(w, "Available", err)
		return
	}

	rooms, err := h.service.FindAvailable(r.Context(), start, end, limit, offset)
	if err != nil {
		h.writeError(w, "Available", err)
		return
	}

	listing := make([]availableRoom, 0, len(rooms))
	for _, room := range rooms {
		listing = append(listing, availableRoom{
			ID:       room.ID,
			RoomName: room.RoomName,
			Capacity: room.Capacity,
		})
	}

	if err := httputil.WriteSuccess(w, listing); err != nil {
		h.log.Error("failed to write success response", "handler", "Available", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var room model.Room
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &room); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, room); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("room_id")

	var updates model.RoomUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Update(r.Context(), id, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *RoomHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/booking/available/", h.Available)
	router.POST("/rooms/", h.auth.RequireStaff(h.Create))
	router.PATCH("/rooms/:room_id/", h.auth.RequireStaff(h.Update))
}

func (h *RoomHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func paginationParams(limitStr, offsetStr string) (int, int64, error) {
	limit := 0
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, apperrors.InvalidInput(fmt.Sprintf("invalid limit parameter: %s", limitStr))
		}
		limit = n
	}

	var offset int64
	if offsetStr != "" {
		n, err := strconv.ParseInt(offsetStr, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput(fmt.Sprintf("invalid offset parameter: %s", offsetStr))
		}
		offset = n
	}

	return limit, offset, nil
}
