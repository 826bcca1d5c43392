package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/belvedhair/booking/services/booking-service/internal/booking"
	"github.com/belvedhair/booking/services/booking-service/internal/export"
	"github.com/belvedhair/booking/services/booking-service/internal/model"
	"github.com/go-playground/validator/v10"
)

// maxListDays bounds the admin bookings listing.
const maxListDays = 92

// AdminHandler serves the shop owner's routes. Authentication happens in front of it.
type AdminHandler struct {
	svc      *booking.Service
	logger   *slog.Logger
	validate *validator.Validate
}

func NewAdminHandler(svc *booking.Service, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		svc:      svc,
		logger:   logger,
		validate: newValidator(),
	}
}

type bookingItem struct {
	BookingID    string `json:"booking_id"`
	StaffID      string `json:"staff_id"`
	StaffName    string `json:"staff_name,omitempty"`
	CustomerName string `json:"customer_name"`
	PhoneE164    string `json:"phone_e164"`
	Email        string `json:"email,omitempty"`
	StartLocal   string `json:"start_local"`
	EndLocal     string `json:"end_local"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Status       string `json:"status"`
	CancelledAt  string `json:"cancelled_at,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

type listBookingsResponse struct {
	From     model.Date    `json:"from"`
	To       model.Date    `json:"to"`
	Bookings []bookingItem `json:"bookings"`
}

type cancelRequest struct {
	BookingID string `json:"booking_id" validate:"required"`
}

type cancelResponse struct {
	OK          bool   `json:"ok"`
	BookingID   string `json:"booking_id"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at,omitempty"`
}

type timeOffRequest struct {
	StaffID    string `json:"staff_id" validate:"required"`
	StartLocal string `json:"start_local" validate:"required"`
	EndLocal   string `json:"end_local" validate:"required"`
	Reason     string `json:"reason" validate:"max=200"`
}

type timeOffResponse struct {
	OK        bool   `json:"ok"`
	TimeOffID string `json:"time_off_id"`
}

type createStaffRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	PhotoURL string `json:"photo_url" validate:"omitempty,url"`
	IsActive *bool  `json:"is_active"`
}

type createStaffResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

type shiftItem struct {
	Start model.TimeOfDay `json:"start"`
	End   model.TimeOfDay `json:"end"`
}

type workingHoursRequest struct {
	Weekday int         `json:"weekday" validate:"min=1,max=7"`
	Shifts  []shiftItem `json:"shifts"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// Bookings lists bookings of every status between two local days, as JSON or,
// with format=xlsx, as a spreadsheet download.
func (h *AdminHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	from, err := model.ParseDate(strings.TrimSpace(q.Get("from")))
	if err != nil {
		http.Error(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := model.ParseDate(strings.TrimSpace(q.Get("to")))
	if err != nil {
		http.Error(w, "to must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if from.AddDays(maxListDays).Before(to) {
		http.Error(w, fmt.Sprintf("range must not exceed %d days", maxListDays), http.StatusBadRequest)
		return
	}
	staffID := strings.TrimSpace(q.Get("staff_id"))

	bookings, err := h.svc.ListBookings(r.Context(), staffID, from, to)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	if strings.EqualFold(q.Get("format"), "xlsx") {
		var buf bytes.Buffer
		if err := export.WriteBookings(&buf, bookings, from, to, h.svc.Location()); err != nil {
			h.logger.Error("bookings export failed", "err", err)
			http.Error(w, "failed to build spreadsheet", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bookings_%s_%s.xlsx"`, from, to))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	loc := h.svc.Location()
	items := make([]bookingItem, 0, len(bookings))
	for _, b := range bookings {
		item := bookingItem{
			BookingID:    b.ID,
			StaffID:      b.StaffID,
			StaffName:    b.StaffName,
			CustomerName: b.CustomerName,
			PhoneE164:    b.PhoneE164,
			Email:        b.Email,
			StartLocal:   b.Start.In(loc).Format("2006-01-02T15:04"),
			EndLocal:     b.End.In(loc).Format("2006-01-02T15:04"),
			StartTime:    b.Start.UTC().Format(time.RFC3339),
			EndTime:      b.End.UTC().Format(time.RFC3339),
			Status:       string(b.Status),
		}
		if b.CancelledAt != nil {
			item.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
		}
		if !b.CreatedAt.IsZero() {
			item.CreatedAt = b.CreatedAt.UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, listBookingsResponse{From: from, To: to, Bookings: items})
}

func (h *AdminHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	trim(&req.BookingID)
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	b, err := h.svc.Cancel(r.Context(), req.BookingID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	resp := cancelResponse{OK: true, BookingID: b.ID, Status: string(b.Status)}
	if b.CancelledAt != nil {
		resp.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) TimeOff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req timeOffRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	trim(&req.StaffID, &req.StartLocal, &req.EndLocal, &req.Reason)
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	id, err := h.svc.AddTimeOff(r.Context(), booking.TimeOffRequest{
		StaffID:    req.StaffID,
		StartLocal: req.StartLocal,
		EndLocal:   req.EndLocal,
		Reason:     req.Reason,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, timeOffResponse{OK: true, TimeOffID: id})
}

func (h *AdminHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createStaffRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	trim(&req.Name, &req.PhotoURL)
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	id, err := h.svc.CreateStaff(r.Context(), model.Staff{Name: req.Name, PhotoURL: req.PhotoURL, IsActive: active})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, createStaffResponse{OK: true, ID: id})
}

// WorkingHours replaces one weekday's shifts; an empty list marks the day off.
func (h *AdminHandler) WorkingHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	if staffID == "" {
		http.Error(w, "staff_id required", http.StatusBadRequest)
		return
	}
	var req workingHoursRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	shifts := make([]booking.Shift, 0, len(req.Shifts))
	for _, s := range req.Shifts {
		shifts = append(shifts, booking.Shift{Start: s.Start, End: s.End})
	}
	if err := h.svc.SetWorkingHours(r.Context(), staffID, req.Weekday, shifts); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
