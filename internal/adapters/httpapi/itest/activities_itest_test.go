package itest

import (
	"net/http"
	"slices"
	"testing"
)

func TestActivities_ITest(t *testing.T) {
	for _, b := range backendsFromEnv(t) {
		t.Run(string(b), func(t *testing.T) {
			srv := newTestServer(t, b)

			// Root goes to the front-end.
			{
				status, _, hdr := srv.do(t, http.MethodGet, "/", "")
				if status != http.StatusTemporaryRedirect || hdr.Get("Location") != "/static/index.html" {
					t.Fatalf("GET / status=%d location=%q", status, hdr.Get("Location"))
				}
			}

			// Seed registry.
			{
				status, body, _ := srv.do(t, http.MethodGet, "/activities", "")
				if status != http.StatusOK {
					t.Fatalf("status=%d body=%s", status, string(body))
				}
				all := mustUnmarshal[map[string]activityResponse](t, body)
				if len(all) != 9 {
					t.Fatalf("len(activities)=%d want=9", len(all))
				}
				chess := all["Chess Club"]
				if chess.MaxParticipants != 12 || !slices.Equal(chess.Participants, []string{"michael@mergington.edu", "daniel@mergington.edu"}) {
					t.Fatalf("unexpected Chess Club: %+v", chess)
				}
			}

			// Signup, duplicate, unknown activity.
			{
				status, body, _ := srv.do(t, http.MethodPost, "/activities/Chess%20Club/signup?email=newstudent%40mergington.edu", "")
				requireMessage(t, status, body, "Signed up newstudent@mergington.edu for Chess Club")

				status, body, _ = srv.do(t, http.MethodPost, "/activities/Chess%20Club/signup?email=newstudent%40mergington.edu", "")
				requireDetailContains(t, status, body, http.StatusBadRequest, "already signed up")

				status, body, _ = srv.do(t, http.MethodPost, "/activities/FakeActivity/signup?email=a%40b.c", "")
				requireDetailContains(t, status, body, http.StatusNotFound, "not found")

				got := srv.participants(t, "Chess Club")
				want := []string{"michael@mergington.edu", "daniel@mergington.edu", "newstudent@mergington.edu"}
				if !slices.Equal(got, want) {
					t.Fatalf("participants=%v want=%v", got, want)
				}
			}

			// Unregister keeps the order of the rest.
			{
				status, body, _ := srv.do(t, http.MethodDelete, "/activities/Chess%20Club/unregister?email=michael%40mergington.edu", "")
				requireMessage(t, status, body, "Unregistered michael@mergington.edu from Chess Club")

				status, body, _ = srv.do(t, http.MethodDelete, "/activities/Chess%20Club/unregister?email=michael%40mergington.edu", "")
				requireDetailContains(t, status, body, http.StatusBadRequest, "not signed up")

				status, body, _ = srv.do(t, http.MethodDelete, "/activities/FakeActivity/unregister?email=a%40b.c", "")
				requireDetailContains(t, status, body, http.StatusNotFound, "not found")

				got := srv.participants(t, "Chess Club")
				want := []string{"daniel@mergington.edu", "newstudent@mergington.edu"}
				if !slices.Equal(got, want) {
					t.Fatalf("participants=%v want=%v", got, want)
				}
			}

			// Idempotent retries replay; key reuse with another payload conflicts.
			{
				status, body, _ := srv.do(t, http.MethodPost, "/activities/Gym%20Class/signup?email=retry%40mergington.edu", "itest-key-1")
				requireMessage(t, status, body, "Signed up retry@mergington.edu for Gym Class")

				status, body, _ = srv.do(t, http.MethodPost, "/activities/Gym%20Class/signup?email=retry%40mergington.edu", "itest-key-1")
				requireMessage(t, status, body, "Signed up retry@mergington.edu for Gym Class")

				status, body, _ = srv.do(t, http.MethodPost, "/activities/Gym%20Class/signup?email=other%40mergington.edu", "itest-key-1")
				requireDetailContains(t, status, body, http.StatusConflict, "idempotency key reuse")

				got := srv.participants(t, "Gym Class")
				if n := len(slices.DeleteFunc(slices.Clone(got), func(e string) bool { return e != "retry@mergington.edu" })); n != 1 {
					t.Fatalf("retry@ appears %d times in %v", n, got)
				}
			}

			// Missing email is a validation error.
			{
				status, _, _ := srv.do(t, http.MethodPost, "/activities/Chess%20Club/signup", "")
				if status != http.StatusUnprocessableEntity {
					t.Fatalf("status=%d want=422", status)
				}
			}
		})
	}
}
