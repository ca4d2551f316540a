// Package api exposes the statistics query surface over HTTP. The query
// path is read-only and fully stateless; any number of requests may be
// served concurrently with the event consumer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Valerolactone/analytics-todo/internal/domain"
	"github.com/Valerolactone/analytics-todo/internal/tracker"
	"github.com/Valerolactone/analytics-todo/pkg/telemetry"
)

// StatisticsService is the aggregator the handlers read from.
// Implemented by tracker.Stats.
type StatisticsService interface {
	GlobalCounts(ctx context.Context) (tracker.Statistics, error)
	ProjectStatistics(ctx context.Context, title string) (tracker.ProjectStatistics, error)
	WeeklyParticipantStatistics(ctx context.Context, participantID int64) (tracker.ParticipantStatistics, error)
}

// Pinger reports backing-store connectivity for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// REST handles the statistics HTTP endpoints.
type REST struct {
	stats  StatisticsService
	db     Pinger
	logger *slog.Logger
}

// NewREST creates a new REST handler.
func NewREST(stats StatisticsService, db Pinger, logger *slog.Logger) *REST {
	return &REST{stats: stats, db: db, logger: logger}
}

// Routes mounts the statistics endpoints on a router.
func (h *REST) Routes(r chi.Router) {
	r.Get("/", h.GetStatistics)
	r.Get("/weekly/{participant_id}", h.GetWeeklyParticipantStatistics)
	r.Get("/{project_title}", h.GetProjectStatistics)
}

// GetStatistics handles GET /statistics/.
func (h *REST) GetStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.get_statistics")
	defer span.End()

	stats, err := h.stats.GlobalCounts(ctx)
	if err != nil {
		h.logger.Error("global statistics failed", slog.String("error", err.Error()))
		span.RecordError(err)
		h.respond(w, "global", http.StatusInternalServerError, errorBody("internal server error"))
		return
	}
	h.respond(w, "global", http.StatusOK, stats)
}

// GetProjectStatistics handles GET /statistics/{project_title}.
func (h *REST) GetProjectStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.get_project_statistics")
	defer span.End()

	title := chi.URLParam(r, "project_title")
	span.SetAttributes(attribute.String("project.title", title))

	stats, err := h.stats.ProjectStatistics(ctx, title)
	if err != nil {
		var notFound *domain.ProjectNotFoundError
		if errors.As(err, &notFound) {
			h.respond(w, "project", http.StatusNotFound, errorBody(notFound.Error()))
			return
		}
		h.logger.Error("project statistics failed",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		span.RecordError(err)
		h.respond(w, "project", http.StatusInternalServerError, errorBody("internal server error"))
		return
	}
	h.respond(w, "project", http.StatusOK, stats)
}

// GetWeeklyParticipantStatistics handles GET /statistics/weekly/{participant_id}.
func (h *REST) GetWeeklyParticipantStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.get_weekly_participant_statistics")
	defer span.End()

	raw := chi.URLParam(r, "participant_id")
	participantID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.respond(w, "weekly", http.StatusBadRequest, errorBody("participant id must be an integer"))
		return
	}
	span.SetAttributes(attribute.Int64("participant.id", participantID))

	stats, err := h.stats.WeeklyParticipantStatistics(ctx, participantID)
	if err != nil {
		var notFound *domain.ParticipantNotFoundError
		if errors.As(err, &notFound) {
			h.respond(w, "weekly", http.StatusNotFound, errorBody(notFound.Error()))
			return
		}
		h.logger.Error("weekly statistics failed",
			slog.Int64("participant_id", participantID),
			slog.String("error", err.Error()),
		)
		span.RecordError(err)
		h.respond(w, "weekly", http.StatusInternalServerError, errorBody("internal server error"))
		return
	}
	h.respond(w, "weekly", http.StatusOK, stats)
}

// Healthz handles GET /healthz.
func (h *REST) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Readyz handles GET /readyz and checks store connectivity.
func (h *REST) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(errorBody("store not ready"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func (h *REST) respond(w http.ResponseWriter, endpoint string, code int, body any) {
	telemetry.StatisticsRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response", slog.String("error", err.Error()))
	}
}

func errorBody(detail string) map[string]string {
	return map[string]string{"detail": detail}
}
