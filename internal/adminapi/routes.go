package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/correlator-io/correlator/internal/adminapi/middleware"
	"github.com/correlator-io/correlator/internal/bus"
	"github.com/correlator-io/correlator/internal/kernelerrors"
	"github.com/correlator-io/correlator/internal/runtime"
	"github.com/correlator-io/correlator/internal/scenario"
)

func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /v1/scenarios", s.handleListScenarios)
	mux.HandleFunc("POST /v1/scenarios", s.handleCreateScenario)
	mux.HandleFunc("POST /v1/scenarios/{name}/start", s.handleStartScenario)
	mux.HandleFunc("POST /v1/scenarios/{name}/stop", s.handleStopScenario)
	mux.HandleFunc("GET /v1/scenarios/{name}/state", s.handleScenarioState)
	mux.HandleFunc("POST /v1/scenarios/{name}/seed", s.handleSeedScenario)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type scenarioSummary struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
	Running bool   `json:"running"`
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	names := s.registry.list()

	summaries := make([]scenarioSummary, 0, len(names))

	for _, name := range names {
		entry, ok := s.registry.get(name)
		if !ok {
			continue
		}

		summaries = append(summaries, scenarioSummary{
			Name:    entry.scenarioValue.Name,
			Version: entry.scenarioValue.Version,
			Running: entry.runtimeValue.IsRunning(),
		})
	}

	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeProblem(w, r, s.logger, badRequest("failed to read request body"))

		return
	}

	doc, err := scenario.Validate(body)
	if err != nil {
		s.writeValidationError(w, r, err)

		return
	}

	rt := runtime.New(runtime.Config{
		Scenario:       doc,
		Bus:            s.bus,
		Logger:         s.logger,
		PollIntervalMs: s.config.PollIntervalMs,
	})

	s.registry.put(doc.Name, &registryEntry{scenarioValue: doc, runtimeValue: rt})

	writeJSON(w, http.StatusCreated, scenarioSummary{Name: doc.Name, Version: doc.Version, Running: false})
}

// validationProblem embeds the full issue list alongside the RFC 7807
// body, per the admin API's contract for POST /v1/scenarios.
type validationProblem struct {
	middleware.ProblemDetail
	Issues []kernelerrors.Issue `json:"issues"`
}

// writeValidationError reports a scenario.Validate failure as a 422 with
// the full issue list embedded when the cause is a ValidationError, or a
// plain 422 otherwise.
func (s *Server) writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *kernelerrors.ValidationError

	if errors.As(err, &valErr) {
		problem := unprocessable(fmt.Sprintf("%d validation issue(s) found", len(valErr.Issues)))
		problem.CorrelationID = middleware.GetCorrelationID(r.Context())
		problem.Instance = r.URL.Path

		writeJSON(w, http.StatusUnprocessableEntity, validationProblem{
			ProblemDetail: problem,
			Issues:        valErr.Issues,
		})

		return
	}

	writeProblem(w, r, s.logger, unprocessable(err.Error()))
}

func (s *Server) handleStartScenario(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	entry, ok := s.registry.get(name)
	if !ok {
		writeProblem(w, r, s.logger, notFound("no scenario named "+name+" has been loaded"))

		return
	}

	entry.runtimeValue.Start(context.Background())

	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleStopScenario(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	entry, ok := s.registry.get(name)
	if !ok {
		writeProblem(w, r, s.logger, notFound("no scenario named "+name+" has been loaded"))

		return
	}

	entry.runtimeValue.Stop()

	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleScenarioState(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	entry, ok := s.registry.get(name)
	if !ok {
		writeProblem(w, r, s.logger, notFound("no scenario named "+name+" has been loaded"))

		return
	}

	writeJSON(w, http.StatusOK, entry.runtimeValue.Snapshot())
}

type seedRequest struct {
	Queue         string      `json:"queue"`
	EventName     string      `json:"eventName"`
	CorrelationID string      `json:"correlationId"`
	Data          interface{} `json:"data"`
}

func (s *Server) handleSeedScenario(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if _, ok := s.registry.get(name); !ok {
		writeProblem(w, r, s.logger, notFound("no scenario named "+name+" has been loaded"))

		return
	}

	var req seedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, r, s.logger, badRequest("invalid seed request body: "+err.Error()))

		return
	}

	if strings.TrimSpace(req.Queue) == "" || strings.TrimSpace(req.EventName) == "" {
		writeProblem(w, r, s.logger, badRequest("queue and eventName are required"))

		return
	}

	env := bus.Envelope{
		EventName:     req.EventName,
		Version:       1,
		EventID:       uuid.NewString(),
		TraceID:       uuid.NewString(),
		CorrelationID: req.CorrelationID,
		OccurredAt:    time.Now().UTC(),
		Data:          req.Data,
	}

	if env.CorrelationID == "" {
		// ULIDs sort lexicographically by creation time, which makes
		// seeded correlation ids easier to scan in order when an
		// operator lists state across several smoke-test runs.
		env.CorrelationID = ulid.Make().String()
	}

	if err := s.bus.Push(r.Context(), req.Queue, env); err != nil {
		writeProblem(w, r, s.logger, internalError("failed to push seed envelope: "+err.Error()))

		return
	}

	writeJSON(w, http.StatusAccepted, env)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
