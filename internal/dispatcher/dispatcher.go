// Package dispatcher consumes the tracker event stream and routes each
// event to the lifecycle or membership engine based on its kind field.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Valerolactone/analytics-todo/internal/domain"
	"github.com/Valerolactone/analytics-todo/internal/kafka"
	"github.com/Valerolactone/analytics-todo/internal/tracker"
	"github.com/Valerolactone/analytics-todo/pkg/telemetry"
)

// Dispatcher routes events to the engines. Events are processed strictly
// sequentially; that ordering is what keeps the multi-step mutation
// sequences (create task, then update project) race-free without
// cross-entity transactions.
type Dispatcher struct {
	consumer   kafka.Consumer
	lifecycle  *tracker.Lifecycle
	membership *tracker.Membership
	logger     *slog.Logger
}

// NewDispatcher wires the consumer to the engines.
func NewDispatcher(
	consumer kafka.Consumer,
	lifecycle *tracker.Lifecycle,
	membership *tracker.Membership,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		consumer:   consumer,
		lifecycle:  lifecycle,
		membership: membership,
		logger:     logger,
	}
}

// Run starts consuming. Blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	return d.consumer.Subscribe(ctx, d.route)
}

// route decodes and applies a single event. It always reports success to
// the consumer: a failed event is logged and dropped so one bad message
// can never stall the stream. The set-union design of the membership
// mutations makes an externally retried event harmless.
func (d *Dispatcher) route(ctx context.Context, msg kafka.Message) error {
	ctx, span := otel.Tracer("dispatcher").Start(ctx, "dispatcher.route")
	defer span.End()

	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		d.logger.Error("malformed event, dropping",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed event")
		telemetry.EventsDropped.WithLabelValues("malformed").Inc()
		return nil
	}

	span.SetAttributes(
		attribute.String("event.kind", ev.Key),
		attribute.String("event.title", ev.Title),
	)

	log := d.logger.With(
		slog.String("kind", ev.Key),
		slog.String("title", ev.Title),
		slog.Int64("offset", msg.Offset),
	)

	var err error
	switch ev.Key {
	case KindCreateProject:
		err = d.createProject(ctx, &ev)
	case KindUpdateProject:
		err = d.updateProject(ctx, &ev)
	case KindCreateTask:
		err = d.createTask(ctx, &ev)
	case KindUpdateTask:
		err = d.updateTask(ctx, &ev)
	default:
		log.Warn("unknown event kind, ignoring")
		telemetry.EventsDropped.WithLabelValues("unknown_kind").Inc()
		return nil
	}

	if err != nil {
		log.Error("event failed, dropping", slog.String("error", err.Error()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "event failed")
		telemetry.EventsDropped.WithLabelValues("failed").Inc()
		return nil
	}

	telemetry.EventsConsumed.WithLabelValues(ev.Key).Inc()
	return nil
}

func (d *Dispatcher) createProject(ctx context.Context, ev *Event) error {
	if ev.Title == "" || ev.ParticipantID == nil {
		return fmt.Errorf("create_project: missing title or participant_id")
	}
	_, err := d.membership.Create(ctx, ev.Title, *ev.ParticipantID)
	return err
}

func (d *Dispatcher) updateProject(ctx context.Context, ev *Event) error {
	if ev.Title == "" || ev.IsActive == nil {
		return fmt.Errorf("update_project: missing title or is_active")
	}
	return d.membership.SetActive(ctx, ev.Title, *ev.IsActive)
}

// createTask inserts the task, then links it and its participants into
// the owning project. The two steps are not transactional; both are
// idempotent so re-running either after a crash is safe.
func (d *Dispatcher) createTask(ctx context.Context, ev *Event) error {
	if ev.Title == "" || ev.ProjectTitle == "" {
		return fmt.Errorf("create_task: missing title or project_title")
	}

	var executorID int64
	if ev.ExecutorID != nil {
		executorID = *ev.ExecutorID
	}

	taskID, err := d.lifecycle.Create(ctx, ev.ProjectTitle, ev.Title, domain.Status(ev.Status), executorID)
	if err != nil {
		return err
	}
	return d.membership.AddTaskAndParticipants(ctx, ev.ProjectTitle, taskID, ev.participants())
}

// updateTask branches on which payload fields are present, in a fixed
// precedence order. Only the first matching branch fires even when the
// event happens to carry fields for several.
func (d *Dispatcher) updateTask(ctx context.Context, ev *Event) error {
	if ev.Title == "" {
		return fmt.Errorf("update_task: missing title")
	}

	switch {
	case ev.IsActive != nil:
		return d.lifecycle.SetActive(ctx, ev.Title, *ev.IsActive)

	case ev.ExecutorID != nil && ev.ExecutorName != "":
		if err := d.lifecycle.AssignExecutor(ctx, ev.Title, *ev.ExecutorID, ev.ExecutorName); err != nil {
			return err
		}
		// Partial payloads without a project title still reassign the
		// executor but cannot touch the membership set.
		if ev.ProjectTitle == "" {
			return nil
		}
		return d.membership.AddParticipants(ctx, ev.ProjectTitle, ev.participants())

	case ev.Status != "":
		return d.lifecycle.ApplyStatusChange(ctx, ev.Title, domain.Status(ev.Status))
	}

	return fmt.Errorf("update_task: no applicable fields")
}
