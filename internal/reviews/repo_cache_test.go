package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
)

func TestCachedRepoReadThrough(t *testing.T) {
	mem := NewMemoryRepo()
	upload := ResumeUpload{
		ID:        "rec-1",
		UserID:    "user-1",
		Feedback:  json.RawMessage(`{"ATS":{"score":82}}`),
		CreatedAt: fixedNow,
	}
	if err := mem.Create(context.Background(), upload); err != nil {
		t.Fatalf("Create: %v", err)
	}

	client, mock := redismock.NewClientMock()
	repo := NewCachedRepo(mem, client, time.Minute)
	key := cacheKey("user-1", "rec-1")
	payload, _ := json.Marshal(upload)

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, string(payload), time.Minute).SetVal("OK")

	got, err := repo.GetByIDForUser(context.Background(), "user-1", "rec-1")
	if err != nil {
		t.Fatalf("GetByIDForUser miss: %v", err)
	}
	if got.ID != "rec-1" {
		t.Fatalf("unexpected record %+v", got)
	}

	mock.ExpectGet(key).SetVal(string(payload))
	got, err = repo.GetByIDForUser(context.Background(), "user-1", "rec-1")
	if err != nil {
		t.Fatalf("GetByIDForUser hit: %v", err)
	}
	if string(got.Feedback) != `{"ATS":{"score":82}}` {
		t.Fatalf("unexpected cached feedback %s", got.Feedback)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestCachedRepoFallsBackOnCacheError(t *testing.T) {
	mem := NewMemoryRepo()
	_ = mem.Create(context.Background(), ResumeUpload{ID: "rec-1", UserID: "user-1", CreatedAt: fixedNow})

	client, mock := redismock.NewClientMock()
	repo := NewCachedRepo(mem, client, time.Minute)
	key := cacheKey("user-1", "rec-1")

	mock.ExpectGet(key).SetErr(errors.New("connection refused"))

	if _, err := repo.GetByIDForUser(context.Background(), "user-1", "rec-1"); err != nil {
		t.Fatalf("expected fallback to repo, got %v", err)
	}
}

func TestCachedRepoNotFoundIsNotCached(t *testing.T) {
	client, mock := redismock.NewClientMock()
	repo := NewCachedRepo(NewMemoryRepo(), client, 0)
	key := cacheKey("user-1", "missing")

	mock.ExpectGet(key).RedisNil()

	if _, err := repo.GetByIDForUser(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
