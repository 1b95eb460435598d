package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/imelnik/fintrack/internal/service"
)

const checkDateLayout = "2006-01-02"

// yearPerformanceHandler serves GET /year_performance?year=YYYY.
func yearPerformanceHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /year_performance")
		defer span.End()

		raw := r.URL.Query().Get("year")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "year query parameter is required")
			return
		}
		year, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "year must be an integer")
			return
		}
		span.SetAttributes(attribute.Int("report.year", year))

		rows, err := svc.YearPerformance(ctx, year)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// userCreditsHandler serves GET /user_credits/{userID}.
func userCreditsHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /user_credits/{userID}")
		defer span.End()

		userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "user_id must be an integer")
			return
		}
		span.SetAttributes(attribute.Int64("report.user_id", userID))

		summaries, err := svc.UserCredits(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

// plansPerformanceHandler serves GET /plans_performance?check_date=YYYY-MM-DD.
func plansPerformanceHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /plans_performance")
		defer span.End()

		raw := r.URL.Query().Get("check_date")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "check_date query parameter is required")
			return
		}
		checkDate, err := time.Parse(checkDateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "check_date must be formatted as YYYY-MM-DD")
			return
		}
		span.SetAttributes(attribute.String("report.check_date", raw))

		rows, err := svc.PlansPerformance(ctx, checkDate)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}
