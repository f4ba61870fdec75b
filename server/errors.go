package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/playothello/othello-api"
)

// ErrorResponse is the uniform error envelope for every failure, including
// unmatched routes.
type ErrorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// MessageResponse is the envelope for plain success messages.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports service health and build information.
type HealthResponse struct {
	Healthy  string `json:"healthy"`
	Revision string `json:"revision,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Branch   string `json:"branch,omitempty"`
}

// respondError maps a kinded error to its HTTP status and renders the
// uniform envelope. Unkinded errors become opaque 500s.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := othello.KindOf(err)
	status := kind.HTTPStatus()

	if kind == othello.KindInternal {
		log.Errorw("request failed", "method", r.Method, "path", r.URL.Path, zap.Error(err))
	} else {
		log.Warnw("request rejected", "method", r.Method, "path", r.URL.Path, "kind", kind.String(), "reason", othello.MessageOf(err))
	}

	respondJSON(w, status, ErrorResponse{Message: othello.MessageOf(err), StatusCode: status})
}

// respondJSON renders v and logs render failures, which there is no way to
// report to the client at that point.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	if err := Renderer.JSON(w, status, v); err != nil {
		log.Errorw("failed to render JSON", zap.Error(err))
	}
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, ErrorResponse{
		Message:    "resource not found",
		StatusCode: http.StatusNotFound,
	})
}
