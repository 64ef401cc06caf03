package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edgeee/excuse-generator/api"
	"github.com/google/go-cmp/cmp"
)

// newTestDB opens a private in-memory SQLite database with the schema
// applied. Each call to the returned clock advances one minute.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Connect(context.Background(), fmt.Sprintf("file:%s?mode=memory&cache=shared", name), "")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var mu sync.Mutex
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	db.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Minute)
		return clock
	}

	if err := db.CreateSchema(context.Background()); err != nil {
		t.Fatalf("CreateSchema() error = %v", err)
	}
	return db
}

func insertExcuse(t *testing.T, db *DB, tone api.Tone, text string) api.Excuse {
	t.Helper()
	e, err := db.InsertExcuse(context.Background(), api.Excuse{Tone: tone, Text: text})
	if err != nil {
		t.Fatalf("InsertExcuse() error = %v", err)
	}
	return e
}

func setLikes(t *testing.T, db *DB, id string, likes int) {
	t.Helper()
	for i := 0; i < likes; i++ {
		if _, err := db.IncrementCounter(context.Background(), id, api.CounterLikes, 1); err != nil {
			t.Fatalf("IncrementCounter() error = %v", err)
		}
	}
}

func ids(excuses []api.Excuse) []string {
	out := make([]string, len(excuses))
	for i, e := range excuses {
		out[i] = e.ID
	}
	return out
}

func TestDB_InsertExcuse(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	got, err := db.InsertExcuse(ctx, api.Excuse{
		Tone:       api.ToneDramatic,
		Text:       "The server room flooded.",
		Tips:       "**Overview**",
		LikesCount: 99,
	})
	if err != nil {
		t.Fatalf("InsertExcuse() error = %v", err)
	}
	if got.ID == "" {
		t.Error("InsertExcuse() did not assign an id")
	}
	if got.CreatedAt.IsZero() {
		t.Error("InsertExcuse() did not assign a creation time")
	}
	if got.LikesCount != 0 {
		t.Errorf("Got likes %d, want counters to start at 0", got.LikesCount)
	}

	stored, err := db.GetExcuse(ctx, got.ID)
	if err != nil {
		t.Fatalf("GetExcuse() error = %v", err)
	}
	if diff := cmp.Diff(got, stored); diff != "" {
		t.Errorf("Stored excuse mismatch (-inserted +stored):\n%s", diff)
	}
}

func TestDB_InsertExcuseInvalidTone(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.InsertExcuse(context.Background(), api.Excuse{Tone: "sarcastic", Text: "x"}); err == nil {
		t.Fatal("InsertExcuse() expected error for invalid tone")
	}
	n, err := db.CountExcuses(context.Background())
	if err != nil {
		t.Fatalf("CountExcuses() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Got %d excuses, want 0", n)
	}
}

func TestDB_GetExcuseNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetExcuse(context.Background(), "84bd9af7-79e6-4027-b284-9d5d875efd5b")
	if !errors.Is(err, api.ErrNotFound) {
		t.Errorf("GetExcuse() error = %v, want %v", err, api.ErrNotFound)
	}
}

func TestDB_TopExcuses(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Inserted oldest first.
	a := insertExcuse(t, db, api.ToneFunny, "a")
	b := insertExcuse(t, db, api.ToneBelievable, "b")
	c := insertExcuse(t, db, api.ToneDramatic, "c")
	d := insertExcuse(t, db, api.ToneFunny, "d")
	e := insertExcuse(t, db, api.ToneFunny, "e")
	setLikes(t, db, a.ID, 3)
	setLikes(t, db, b.ID, 1)
	setLikes(t, db, c.ID, 3)
	setLikes(t, db, e.ID, 1)

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "All", limit: 10, want: []string{c.ID, a.ID, e.ID, b.ID, d.ID}},
		{name: "Limited", limit: 3, want: []string{c.ID, a.ID, e.ID}},
		{name: "One", limit: 1, want: []string{c.ID}},
		{name: "Zero", limit: 0, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.TopExcuses(ctx, tt.limit)
			if err != nil {
				t.Fatalf("TopExcuses() error = %v", err)
			}
			if len(got) > tt.limit {
				t.Errorf("Got %d rows, limit %d", len(got), tt.limit)
			}
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("Order mismatch (-want +got):\n%s", diff)
			}
			for i := 1; i < len(got); i++ {
				prev, cur := got[i-1], got[i]
				if prev.LikesCount < cur.LikesCount {
					t.Errorf("Row %d has more likes than row %d", i, i-1)
				}
				if prev.LikesCount == cur.LikesCount && prev.CreatedAt.Before(cur.CreatedAt) {
					t.Errorf("Row %d is newer than row %d with equal likes", i, i-1)
				}
			}
		})
	}

	first, err := db.TopExcuses(ctx, 10)
	if err != nil {
		t.Fatalf("TopExcuses() error = %v", err)
	}
	second, err := db.TopExcuses(ctx, 10)
	if err != nil {
		t.Fatalf("TopExcuses() error = %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Repeated reads differ (-first +second):\n%s", diff)
	}
}

func TestDB_IncrementCounter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	e := insertExcuse(t, db, api.ToneFunny, "a")

	steps := []struct {
		counter api.Counter
		delta   int
		want    int
	}{
		{api.CounterLikes, 1, 1},
		{api.CounterLikes, 1, 2},
		{api.CounterLikes, -1, 1},
		{api.CounterLikes, -1, 0},
		{api.CounterLikes, -1, 0},
		{api.CounterShares, 1, 1},
		{api.CounterCopies, 1, 1},
		{api.CounterCopies, 1, 2},
	}
	for i, s := range steps {
		got, err := db.IncrementCounter(ctx, e.ID, s.counter, s.delta)
		if err != nil {
			t.Fatalf("step %d: IncrementCounter() error = %v", i, err)
		}
		if got != s.want {
			t.Errorf("step %d: %s%+d = %d, want %d", i, s.counter, s.delta, got, s.want)
		}
	}

	stored, err := db.GetExcuse(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetExcuse() error = %v", err)
	}
	if stored.LikesCount != 0 || stored.SharesCount != 1 || stored.CopiesCount != 2 {
		t.Errorf("Got counters %d/%d/%d, want 0/1/2", stored.LikesCount, stored.SharesCount, stored.CopiesCount)
	}
	if stored.Text != "a" || stored.Tone != api.ToneFunny {
		t.Errorf("Counter updates changed immutable fields: %+v", stored)
	}
}

func TestDB_IncrementCounterErrors(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	e := insertExcuse(t, db, api.ToneFunny, "a")

	if _, err := db.IncrementCounter(ctx, "84bd9af7-79e6-4027-b284-9d5d875efd5b", api.CounterLikes, 1); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("IncrementCounter() on missing row error = %v, want %v", err, api.ErrNotFound)
	}
	if _, err := db.IncrementCounter(ctx, e.ID, api.Counter("id"), 1); err == nil {
		t.Error("IncrementCounter() with unknown counter expected error")
	}
}

func TestDB_IncrementCounterConcurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	e := insertExcuse(t, db, api.ToneBelievable, "a")

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := db.IncrementCounter(ctx, e.ID, api.CounterLikes, 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("IncrementCounter() error = %v", err)
	}

	stored, err := db.GetExcuse(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetExcuse() error = %v", err)
	}
	if stored.LikesCount != workers {
		t.Errorf("Got %d likes after %d concurrent increments", stored.LikesCount, workers)
	}
}

func TestDB_Interactions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	e := insertExcuse(t, db, api.ToneFunny, "a")

	for _, typ := range []api.InteractionType{api.InteractionLike, api.InteractionLike, api.InteractionShare} {
		in, err := db.InsertInteraction(ctx, api.Interaction{ExcuseID: e.ID, Type: typ})
		if err != nil {
			t.Fatalf("InsertInteraction() error = %v", err)
		}
		if in.ID == "" || in.CreatedAt.IsZero() {
			t.Errorf("InsertInteraction() = %+v, want id and timestamp", in)
		}
	}
	if _, err := db.InsertInteraction(ctx, api.Interaction{ExcuseID: e.ID, Type: "unlike"}); err == nil {
		t.Error("InsertInteraction() with unknown type expected error")
	}

	got, err := db.ListInteractions(ctx, e.ID)
	if err != nil {
		t.Fatalf("ListInteractions() error = %v", err)
	}
	var types []api.InteractionType
	for _, in := range got {
		types = append(types, in.Type)
		if in.ExcuseID != e.ID {
			t.Errorf("Got excuse id %q, want %q", in.ExcuseID, e.ID)
		}
	}
	want := []api.InteractionType{api.InteractionLike, api.InteractionLike, api.InteractionShare}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("Interaction log mismatch (-want +got):\n%s", diff)
	}
}

func TestDB_CountExcuses(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 3; i++ {
		insertExcuse(t, db, api.ToneFunny, fmt.Sprint(i))
	}
	n, err := db.CountExcuses(context.Background())
	if err != nil {
		t.Fatalf("CountExcuses() error = %v", err)
	}
	if n != 3 {
		t.Errorf("CountExcuses() = %d, want 3", n)
	}
}
