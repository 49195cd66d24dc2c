package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mergington/activities-api/internal/app/activities"
	"github.com/mergington/activities-api/internal/domain"
	sysclock "github.com/mergington/activities-api/internal/platform/clock"
	"github.com/mergington/activities-api/internal/platform/metrics"
	"github.com/mergington/activities-api/internal/ports/out/clock"
	"github.com/mergington/activities-api/internal/ports/out/idempotency"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyReuseMsg  = "Idempotency key reuse with different payload"

	routeSignup     = "/activities/{activityName}/signup"
	routeUnregister = "/activities/{activityName}/unregister"
)

// Server is the HTTP adapter over the activities service.
type Server struct {
	Activities *activities.Service
	Idem       idempotency.Store
	Clock      clock.Clock
	Log        *zap.Logger
	Metrics    *metrics.Metrics
}

func NewServer(svc *activities.Service, idem idempotency.Store) *Server {
	return &Server{
		Activities: svc,
		Idem:       idem,
		Clock:      sysclock.NewSystemClock(),
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) ListActivities(w http.ResponseWriter, r *http.Request) {
	as, err := s.Activities.ListActivities(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activitiesResponse(as))
}

func (s *Server) SignupForActivity(w http.ResponseWriter, r *http.Request) {
	s.rosterChange(w, r, "signup", routeSignup, s.Activities.Signup)
}

func (s *Server) UnregisterFromActivity(w http.ResponseWriter, r *http.Request) {
	s.rosterChange(w, r, "unregister", routeUnregister, s.Activities.Unregister)
}

type rosterFunc func(ctx context.Context, name domain.ActivityName, email string) (string, error)

// rosterChange runs a signup/unregister with optional idempotency handling:
//   - a "meta" record (empty BodyHash) pins the key to the first payload hash
//   - a response record (BodyHash set) stores the successful 200 for replay
//
// Failures are never stored, so a retry after an error re-executes.
func (s *Server) rosterChange(w http.ResponseWriter, r *http.Request, op, route string, fn rosterFunc) {
	ctx := r.Context()

	name, err := activityNameParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "Activity not found")
		s.Metrics.RecordRosterChange(op, activities.CodeActivityNotFound)
		return
	}
	q := r.URL.Query()
	if !q.Has("email") {
		writeError(w, http.StatusUnprocessableEntity, "email query parameter is required")
		s.Metrics.RecordRosterChange(op, activities.CodeValidation)
		return
	}
	email := q.Get("email")

	idemKey := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	var respFP idempotency.Fingerprint
	if s.Idem != nil && idemKey != "" {
		bodyHash, err := hashRosterRequest(name, email)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		metaFP := idempotency.Fingerprint{
			Key:      idempotency.Key(idemKey),
			Method:   r.Method,
			Route:    route,
			BodyHash: "",
		}
		if meta, ok, err := s.Idem.Get(ctx, metaFP); err != nil {
			s.writeAppError(w, r, err)
			return
		} else if ok {
			if string(meta.Body) != bodyHash {
				writeError(w, http.StatusConflict, idempotencyReuseMsg)
				s.Metrics.RecordRosterChange(op, "IDEMPOTENCY_KEY_REUSE")
				return
			}
		} else {
			_ = s.Idem.Put(ctx, metaFP, idempotency.Record{
				StatusCode:  0,
				ContentType: "text/plain",
				Body:        []byte(bodyHash),
				CreatedAt:   s.now(),
			})
		}

		respFP = metaFP
		respFP.BodyHash = bodyHash
		if rec, ok, err := s.Idem.Get(ctx, respFP); err != nil {
			s.writeAppError(w, r, err)
			return
		} else if ok && rec.StatusCode == http.StatusOK && strings.HasPrefix(rec.ContentType, "application/json") {
			w.Header().Set("Content-Type", rec.ContentType)
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.Body)
			s.Metrics.RecordRosterChange(op, "replayed")
			return
		}
	}

	msg, err := fn(ctx, name, email)
	if err != nil {
		s.Metrics.RecordRosterChange(op, s.writeAppError(w, r, err))
		return
	}

	resp := messageResponse{Message: msg}
	if respFP.Key != "" {
		if b, err := json.Marshal(resp); err == nil {
			_ = s.Idem.Put(ctx, respFP, idempotency.Record{
				StatusCode:  http.StatusOK,
				ContentType: "application/json",
				Body:        b,
				CreatedAt:   s.now(),
			})
		}
	}
	s.Metrics.RecordRosterChange(op, "ok")
	writeJSON(w, http.StatusOK, resp)
}

// activityNameParam returns the decoded {activityName} segment. chi matches on RawPath when the
// request carries one, in which case the parameter is still percent-encoded.
func activityNameParam(r *http.Request) (domain.ActivityName, error) {
	raw := chi.URLParam(r, "activityName")
	if r.URL.RawPath == "" {
		return domain.ActivityName(raw), nil
	}
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", err
	}
	return domain.ActivityName(name), nil
}

func hashRosterRequest(name domain.ActivityName, email string) (string, error) {
	raw, err := json.Marshal(struct {
		Activity string `json:"activity"`
		Email    string `json:"email"`
	}{
		Activity: string(name),
		Email:    email,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func (s *Server) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
