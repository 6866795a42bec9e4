package runtime

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/correlator-io/correlator/internal/bus"
	"github.com/correlator-io/correlator/internal/kernelerrors"
	"github.com/correlator-io/correlator/internal/mapping"
	"github.com/correlator-io/correlator/internal/scenario"
)

// processEnvelope dispatches env to every listener registered for its
// event name, in declaration order, breaking early if stop is signalled
// mid-dispatch.
func (r *Runtime) processEnvelope(domainID string, env bus.Envelope) {
	listeners := r.scenarioValue.Index().ListenersByEvent[env.EventName]
	if len(listeners) == 0 {
		r.logger.Debug(
			"no listeners registered for event",
			slog.String("domain", domainID),
			slog.String("event", env.EventName),
		)

		return
	}

	for _, ref := range listeners {
		if !r.isRunning() {
			break
		}

		r.executeListener(ref, env)
	}
}

// executeListener runs ref's delay (if any) then its actions in order.
// A failing action is logged and skipped; it never aborts the remaining
// actions in the listener.
func (r *Runtime) executeListener(ref scenario.ListenerRef, env bus.Envelope) {
	if ref.Listener.DelayMs > 0 {
		time.Sleep(time.Duration(ref.Listener.DelayMs) * time.Millisecond)
	}

	for idx, action := range ref.Listener.Actions {
		if !r.isRunning() {
			break
		}

		if err := r.executeAction(ref.DomainID, action, env); err != nil {
			actionErr := &kernelerrors.ListenerActionError{
				ListenerID: ref.Listener.ID,
				ActionIdx:  idx,
				Cause:      err,
			}

			r.logger.Error(
				"failed to execute action for listener",
				slog.String("listener_id", ref.Listener.ID),
				slog.String("error", actionErr.Error()),
			)
		}
	}
}

// executeAction runs one action, mutating correlation state for
// set-state or pushing an outbound envelope for emit. listenerDomainID
// is the domain that owns the listener (and, for set-state, the domain
// whose state entry is mutated).
func (r *Runtime) executeAction(listenerDomainID string, action scenario.Action, env bus.Envelope) error {
	switch action.Kind {
	case scenario.ActionSetState:
		r.setState(env.CorrelationID, listenerDomainID, action.Status)
		r.logger.Debug(
			"set state",
			slog.String("correlation_id", env.CorrelationID),
			slog.String("domain", listenerDomainID),
			slog.String("status", action.Status),
		)

		return nil
	case scenario.ActionEmit:
		return r.executeEmit(action, env)
	default:
		return nil
	}
}

func (r *Runtime) executeEmit(action scenario.Action, env bus.Envelope) error {
	dest, ok := r.scenarioValue.Index().EventsByName[action.Event]
	if !ok {
		r.logger.Error("emit targets an unknown event", slog.String("event", action.Event))

		return nil
	}

	targetDomainID := dest.DomainID
	if action.HasToDomain {
		targetDomainID = action.ToDomain
	}

	queue, ok := r.domainQueues[targetDomainID]
	if !ok {
		r.logger.Error(
			"unable to emit event because domain has no queue",
			slog.String("event", action.Event),
			slog.String("domain", targetDomainID),
		)

		return nil
	}

	traceID := env.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}

	source := asRecord(env.Data)

	outbound, warnings := mapping.Evaluate(source, scenario.ToMappingSchema(dest.Event.PayloadSchema), scenario.ToMappingMapping(action.Mapping))

	for _, w := range warnings {
		r.logger.Warn(
			"mapping warning",
			slog.String("listener_event", action.Event),
			slog.String("path", w.Path),
			slog.String("message", w.Message),
		)
	}

	outEnv := bus.Envelope{
		EventName:     action.Event,
		Version:       1,
		EventID:       uuid.NewString(),
		TraceID:       traceID,
		CorrelationID: env.CorrelationID,
		OccurredAt:    time.Now().UTC(),
		CausationID:   env.EventID,
		Data:          outbound,
	}

	if err := r.bus.Push(r.workerContext(), queue, outEnv); err != nil {
		r.logger.Error(
			"bus push failed",
			slog.String("event", action.Event),
			slog.String("queue", queue),
			slog.String("error", err.Error()),
		)

		return nil
	}

	r.logger.Info(
		"emitted event to queue",
		slog.String("event", action.Event),
		slog.String("queue", queue),
	)

	return nil
}

// asRecord coerces v to a record, treating arrays, scalars and nil as an
// empty record per the emit action's "coerce env.data" step.
func asRecord(v any) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}

	return map[string]interface{}{}
}
