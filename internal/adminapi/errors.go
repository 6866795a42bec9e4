package adminapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/correlator-io/correlator/internal/adminapi/middleware"
)

// newProblem builds an RFC 7807 ProblemDetail, following the teacher's
// NewProblemDetail convention.
func newProblem(status int, title, detail string) middleware.ProblemDetail {
	return middleware.ProblemDetail{
		Type:   fmt.Sprintf("https://correlator.io/problems/%d", status),
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// writeProblem writes problem as the response body, filling in
// correlation id and instance path if the caller left them blank.
func writeProblem(w http.ResponseWriter, r *http.Request, logger *slog.Logger, problem middleware.ProblemDetail) {
	if problem.CorrelationID == "" {
		problem.CorrelationID = middleware.GetCorrelationID(r.Context())
	}

	if problem.Instance == "" {
		problem.Instance = r.URL.Path
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		logger.Error("failed to encode error response", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func badRequest(detail string) middleware.ProblemDetail {
	return newProblem(http.StatusBadRequest, "Bad Request", detail)
}

func notFound(detail string) middleware.ProblemDetail {
	return newProblem(http.StatusNotFound, "Not Found", detail)
}

func unprocessable(detail string) middleware.ProblemDetail {
	return newProblem(http.StatusUnprocessableEntity, "Unprocessable Entity", detail)
}

func methodNotAllowed(detail string) middleware.ProblemDetail {
	return newProblem(http.StatusMethodNotAllowed, "Method Not Allowed", detail)
}

func internalError(detail string) middleware.ProblemDetail {
	return newProblem(http.StatusInternalServerError, "Internal Server Error", detail)
}
