package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mergington/activities-api/internal/domain"
	activityrepoport "github.com/mergington/activities-api/internal/ports/out/activityrepo"
	idempotencyport "github.com/mergington/activities-api/internal/ports/out/idempotency"
)

type CleanupFunc = func()

type ActivityRepoFactory func(t *testing.T) (activityrepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		Method:   "POST",
		Route:    "/activities/{activityName}/signup",
		BodyHash: "",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get(missing) ok=%v err=%v, want ok=false", ok, err)
	}

	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("CreatedAt=%v, want %v", got.CreatedAt, rec.CreatedAt)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// A different body hash is a different record.
	other := fp
	other.BodyHash = "hash-abc"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("Get(other fingerprint) ok=%v err=%v, want ok=false", ok, err)
	}
}

func RunActivityRepo(t *testing.T, newRepo ActivityRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	if err := repo.Seed(ctx, domain.SeedActivities()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	// Seed order and content.
	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	seed := domain.SeedActivities()
	if len(all) != len(seed) {
		t.Fatalf("List len=%d, want %d", len(all), len(seed))
	}
	for i := range seed {
		if all[i].Name != seed[i].Name || all[i].Description != seed[i].Description ||
			all[i].Schedule != seed[i].Schedule || all[i].MaxParticipants != seed[i].MaxParticipants {
			t.Fatalf("List[%d]=%+v, want %+v", i, all[i], seed[i])
		}
		if !equalStrings(all[i].Participants, seed[i].Participants) {
			t.Fatalf("List[%d].Participants=%v, want %v", i, all[i].Participants, seed[i].Participants)
		}
	}

	if _, err := repo.Get(ctx, "FakeActivity"); !errors.Is(err, activityrepoport.ErrNotFound) {
		t.Fatalf("Get(unknown) err=%v, want ErrNotFound", err)
	}

	// Signup appends at the end, once.
	email := uuid.NewString() + "@mergington.edu"
	if err := repo.AddParticipant(ctx, "Basketball", email, false); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	if err := repo.AddParticipant(ctx, "Basketball", email, false); !errors.Is(err, activityrepoport.ErrAlreadyEnrolled) {
		t.Fatalf("AddParticipant(dup) err=%v, want ErrAlreadyEnrolled", err)
	}
	if err := repo.AddParticipant(ctx, "FakeActivity", email, false); !errors.Is(err, activityrepoport.ErrNotFound) {
		t.Fatalf("AddParticipant(unknown) err=%v, want ErrNotFound", err)
	}
	b, err := repo.Get(ctx, "Basketball")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !equalStrings(b.Participants, []string{"alex@mergington.edu", email}) {
		t.Fatalf("Participants=%v, want [alex@mergington.edu %s]", b.Participants, email)
	}

	// Removal keeps the order of the rest.
	if err := repo.RemoveParticipant(ctx, "Basketball", "alex@mergington.edu"); err != nil {
		t.Fatalf("RemoveParticipant: %v", err)
	}
	if err := repo.RemoveParticipant(ctx, "Basketball", "alex@mergington.edu"); !errors.Is(err, activityrepoport.ErrNotEnrolled) {
		t.Fatalf("RemoveParticipant(again) err=%v, want ErrNotEnrolled", err)
	}
	if err := repo.RemoveParticipant(ctx, "FakeActivity", email); !errors.Is(err, activityrepoport.ErrNotFound) {
		t.Fatalf("RemoveParticipant(unknown) err=%v, want ErrNotFound", err)
	}
	b, _ = repo.Get(ctx, "Basketball")
	if !equalStrings(b.Participants, []string{email}) {
		t.Fatalf("Participants=%v, want [%s]", b.Participants, email)
	}

	// Capacity is only checked when asked to.
	if err := repo.Seed(ctx, []domain.Activity{
		{Name: "Tiny", Description: "d", Schedule: "s", MaxParticipants: 1, Participants: []string{"a@x"}},
	}); err != nil {
		t.Fatalf("Seed(tiny): %v", err)
	}
	if err := repo.AddParticipant(ctx, "Tiny", "b@x", true); !errors.Is(err, activityrepoport.ErrFull) {
		t.Fatalf("AddParticipant(full) err=%v, want ErrFull", err)
	}
	if err := repo.AddParticipant(ctx, "Tiny", "b@x", false); err != nil {
		t.Fatalf("AddParticipant(unenforced) err=%v", err)
	}

	// Reseeding replaces everything.
	all, _ = repo.List(ctx)
	if len(all) != 1 || all[0].Name != "Tiny" {
		t.Fatalf("List after reseed=%v, want [Tiny]", all)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
