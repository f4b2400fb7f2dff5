package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"roombook/internal/bookings/service"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
	"roombook/pkg/middleware"
	"roombook/pkg/model"
)

type createBookingRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	// Pointer so an omitted headcount can default to 1 while an explicit
	// zero still fails validation.
	NoOfPersons *int `json:"no_of_persons"`
}

type BookingHandler struct {
	service service.BookingService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, auth *middleware.Authenticator, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, "Create", apperrors.Unauthorized("Authentication required"))
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	startTime, err := time.Parse(model.TimeLayout, req.StartTime)
	if err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput(fmt.Sprintf("invalid start_time format, must be %q", model.TimeLayout)))
		return
	}
	endTime, err := time.Parse(model.TimeLayout, req.EndTime)
	if err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput(fmt.Sprintf("invalid end_time format, must be %q", model.TimeLayout)))
		return
	}

	// Omitted headcount means a booking for one person.
	noOfPersons := 1
	if req.NoOfPersons != nil {
		noOfPersons = *req.NoOfPersons
	}

	booking := model.Booking{
		RoomID:      ps.ByName("room_id"),
		StartTime:   startTime,
		EndTime:     endTime,
		NoOfPersons: noOfPersons,
		MemberID:    identity.MemberID,
		MemberEmail: identity.Email,
	}

	if err := h.service.Create(r.Context(), &booking); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusCreated, httputil.MessageResponse{
		Message: "Meeting room booked successfully.",
	}); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteJSON", "error", err)
	}
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, "ListMine", apperrors.Unauthorized("Authentication required"))
		return
	}

	query := r.URL.Query()

	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			h.writeError(w, "ListMine", apperrors.InvalidInput(fmt.Sprintf("invalid limit parameter: %s", limitStr)))
			return
		}
	}

	var offset int64
	if offsetStr := query.Get("offset"); offsetStr != "" {
		var err error
		offset, err = strconv.ParseInt(offsetStr, 10, 64)
		if err != nil {
			h.writeError(w, "ListMine", apperrors.InvalidInput(fmt.Sprintf("invalid offset parameter: %s", offsetStr)))
			return
		}
	}

	bookings, total, err := h.service.ListByMember(r.Context(), identity.MemberID, limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, int(offset)); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, "Cancel", apperrors.Unauthorized("Authentication required"))
		return
	}

	if err := h.service.Cancel(r.Context(), ps.ByName("booking_id"), identity.MemberID); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/booking/:room_id/book/", h.auth.Require(h.Create))
	router.GET("/booking/my-bookings/", h.auth.Require(h.ListMine))
	router.DELETE("/booking/:booking_id/cancel-booking/", h.auth.Require(h.Cancel))
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
