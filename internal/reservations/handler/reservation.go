package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"roomly/internal/reservations/service"
	apperrors "roomly/pkg/errors"
	httputil "roomly/pkg/http"
	"roomly/pkg/logger"
	"roomly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	booking, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, booking)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if found := h.service.Cancel(r.Context(), id); !found {
		httputil.WriteError(w, apperrors.NotFoundWithID("Booking", id))
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) ListByRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("room")

	bookings, err := h.service.ListByRoom(r.Context(), roomID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, bookings)
}

func (h *ReservationHandler) FreeSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()

	rangeStart, err := parseTimeParam(query.Get("start_time"))
	if err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("invalid start_time format, must be RFC3339"))
		return
	}
	rangeEnd, err := parseTimeParam(query.Get("end_time"))
	if err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("invalid end_time format, must be RFC3339"))
		return
	}

	minHours := 0.0
	if s := query.Get("min_hours"); s != "" {
		minHours, err = strconv.ParseFloat(s, 64)
		if err != nil {
			httputil.WriteError(w, apperrors.InvalidInput("invalid min_hours parameter: "+s))
			return
		}
	}

	slots, err := h.service.FreeSlots(r.Context(), &model.FreeSlotQuery{
		RoomID:     ps.ByName("room"),
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		MinHours:   minHours,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, slots)
}

// parseTimeParam keeps the zero time for absent parameters so validation
// reports them as missing rather than malformed.
func parseTimeParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.DELETE("/api/v1/reservations/id/:id", h.Cancel)
	router.GET("/api/v1/rooms/:room/reservations", h.ListByRoom)
	router.GET("/api/v1/rooms/:room/free-slots", h.FreeSlots)
}
