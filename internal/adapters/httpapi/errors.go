package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mergington/activities-api/internal/app/activities"
)

const internalErrorDetail = "Internal server error"

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeAppError maps service errors onto the response. It returns the code used for metrics.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) string {
	if ae := (*activities.Error)(nil); errors.As(err, &ae) {
		writeError(w, ae.Status, ae.Message)
		return ae.Code
	}
	s.log().Error("request failed",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
	writeError(w, http.StatusInternalServerError, internalErrorDetail)
	return "INTERNAL"
}
