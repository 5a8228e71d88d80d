package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/goalpost/internal/calendar"
	"github.com/dukerupert/goalpost/internal/tracker"
)

type ReportHandler struct {
	svc    *tracker.Service
	logger *slog.Logger
	now    func() time.Time
}

func NewReportHandler(svc *tracker.Service, logger *slog.Logger, now func() time.Time) *ReportHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportHandler{svc: svc, logger: logger, now: now}
}

// dateParam returns ?date=, defaulting to today.
func (h *ReportHandler) dateParam(r *http.Request) string {
	if d := r.URL.Query().Get("date"); d != "" {
		return d
	}
	return calendar.Today(h.now())
}

type weekResponse struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Days  []string `json:"days"`
}

func (h *ReportHandler) Week(w http.ResponseWriter, r *http.Request) {
	date := h.dateParam(r)
	week, err := calendar.WeekRange(date)
	if err != nil {
		writeError(w, h.logger, "compute week", err)
		return
	}
	days, err := calendar.WeekDays(date)
	if err != nil {
		writeError(w, h.logger, "compute week", err)
		return
	}
	writeJSON(w, http.StatusOK, weekResponse{Start: week.Start, End: week.End, Days: days})
}

// WeeklyStats counts done tasks per goal; ?done_only=false counts open tasks
// too.
func (h *ReportHandler) WeeklyStats(w http.ResponseWriter, r *http.Request) {
	doneOnly := true
	if v := r.URL.Query().Get("done_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "done_only must be a boolean"})
			return
		}
		doneOnly = b
	}

	report, err := h.svc.WeeklyStats(r.Context(), h.dateParam(r), doneOnly)
	if err != nil {
		writeError(w, h.logger, "compute weekly stats", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
