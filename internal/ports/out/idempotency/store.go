package idempotency

import (
	"context"
	"strings"
	"time"
)

// Key is the caller-provided idempotency key (Idempotency-Key header).
type Key string

// Fingerprint identifies a request for idempotency purposes.
//
// Strategy: key + route + request payload hash. Route is the HTTP method plus the route template
// (e.g. "POST /activities/{activityName}/signup"). A fingerprint with an empty BodyHash is the
// "meta" record that pins a key to the first payload it was used with.
type Fingerprint struct {
	Key      Key
	Method   string
	Route    string
	BodyHash string
}

// String renders the fingerprint as a flat storage key.
func (fp Fingerprint) String() string {
	return strings.Join([]string{string(fp.Key), fp.Method, fp.Route, fp.BodyHash}, "|")
}

// Record is the stored response we can replay for a duplicate request.
type Record struct {
	StatusCode  int       `json:"statusCode"`
	ContentType string    `json:"contentType"`
	Body        []byte    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store persists idempotency records for replaying safe responses on retries.
// Implementations may expire records; an expired record behaves like a missing one.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
