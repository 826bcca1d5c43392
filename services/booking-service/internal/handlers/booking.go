package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/belvedhair/booking/services/booking-service/internal/booking"
	"github.com/belvedhair/booking/services/booking-service/internal/model"
	"github.com/go-playground/validator/v10"
)

// BookingHandler serves the public customer-facing routes.
type BookingHandler struct {
	svc      *booking.Service
	logger   *slog.Logger
	validate *validator.Validate
}

func NewBookingHandler(svc *booking.Service, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		svc:      svc,
		logger:   logger,
		validate: newValidator(),
	}
}

type staffItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url,omitempty"`
	IsActive bool   `json:"is_active"`
}

type staffResponse struct {
	Staff []staffItem `json:"staff"`
}

type availabilityResponse struct {
	Date        model.Date        `json:"date"`
	DurationMin int               `json:"duration_min"`
	Slots       []model.TimeOfDay `json:"slots"`
}

type dayItem struct {
	Date model.Date `json:"date"`
	Free int        `json:"free"`
}

type monthOverviewResponse struct {
	Month string    `json:"month"`
	Days  []dayItem `json:"days"`
}

type bookRequest struct {
	StaffID      string `json:"staff_id" validate:"required"`
	StartLocal   string `json:"start_local" validate:"required"`
	CustomerName string `json:"customer_name" validate:"required,min=2,max=80"`
	PhoneE164    string `json:"phone_e164" validate:"required,e164"`
	Email        string `json:"email" validate:"omitempty,email,max=254"`
}

type bookResponse struct {
	OK        bool   `json:"ok"`
	BookingID string `json:"booking_id"`
}

type priorityRequest struct {
	StaffID      string `json:"staff_id" validate:"required"`
	DesiredLocal string `json:"desired_local" validate:"required"`
	CustomerName string `json:"customer_name" validate:"required,min=2,max=80"`
	PhoneE164    string `json:"phone_e164" validate:"required,e164"`
	Email        string `json:"email" validate:"omitempty,email,max=254"`
	Notes        string `json:"notes" validate:"max=500"`
}

type priorityResponse struct {
	OK        bool   `json:"ok"`
	RequestID string `json:"request_id"`
}

func (h *BookingHandler) Staff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	staff, err := h.svc.ListStaff(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	items := make([]staffItem, 0, len(staff))
	for _, s := range staff {
		items = append(items, staffItem{ID: s.ID, Name: s.Name, PhotoURL: s.PhotoURL, IsActive: s.IsActive})
	}
	writeJSON(w, http.StatusOK, staffResponse{Staff: items})
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	staffID := strings.TrimSpace(q.Get("staff_id"))
	if staffID == "" {
		http.Error(w, "staff_id required", http.StatusBadRequest)
		return
	}
	day, err := model.ParseDate(strings.TrimSpace(q.Get("date")))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	slots, err := h.svc.DaySlots(r.Context(), staffID, day)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{
		Date:        day,
		DurationMin: int(h.svc.SlotDuration().Minutes()),
		Slots:       slots,
	})
}

func (h *BookingHandler) MonthOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	staffID := strings.TrimSpace(q.Get("staff_id"))
	if staffID == "" {
		http.Error(w, "staff_id required", http.StatusBadRequest)
		return
	}
	month, err := model.ParseYearMonth(strings.TrimSpace(q.Get("month")))
	if err != nil {
		http.Error(w, "month must be YYYY-MM", http.StatusBadRequest)
		return
	}

	counts, err := h.svc.MonthOverview(r.Context(), staffID, month)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	days := make([]dayItem, 0, len(counts))
	for _, c := range counts {
		days = append(days, dayItem{Date: c.Date, Free: c.Free})
	}
	writeJSON(w, http.StatusOK, monthOverviewResponse{Month: month.String(), Days: days})
}

func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	trim(&req.StaffID, &req.StartLocal, &req.CustomerName, &req.PhoneE164, &req.Email)
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	b, err := h.svc.Book(r.Context(), booking.BookRequest{
		StaffID:      req.StaffID,
		StartLocal:   req.StartLocal,
		CustomerName: req.CustomerName,
		PhoneE164:    req.PhoneE164,
		Email:        req.Email,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookResponse{OK: true, BookingID: b.ID})
}

func (h *BookingHandler) PriorityRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req priorityRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	trim(&req.StaffID, &req.DesiredLocal, &req.CustomerName, &req.PhoneE164, &req.Email, &req.Notes)
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	id, err := h.svc.RequestPriority(r.Context(), booking.PriorityRequest{
		StaffID:      req.StaffID,
		DesiredLocal: req.DesiredLocal,
		CustomerName: req.CustomerName,
		PhoneE164:    req.PhoneE164,
		Email:        req.Email,
		Notes:        req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, priorityResponse{OK: true, RequestID: id})
}
