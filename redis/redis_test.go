package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/edgeee/excuse-generator/api"
	"github.com/google/go-cmp/cmp"
)

const testTTL = time.Minute

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := Connect(context.Background(), mr.Addr(), "", 0, testTTL)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

var testSnapshot = []api.Excuse{
	{ID: "b", Tone: api.ToneFunny, Text: "B", Tips: "tips", LikesCount: 5, CreatedAt: time.Unix(20, 0).UTC()},
	{ID: "a", Tone: api.ToneBelievable, Text: "A", LikesCount: 5, SharesCount: 2, CreatedAt: time.Unix(10, 0).UTC()},
	{ID: "c", Tone: api.ToneDramatic, Text: "C", LikesCount: 1, CopiesCount: 3, CreatedAt: time.Unix(30, 0).UTC()},
}

func TestExcuseConversion(t *testing.T) {
	want := api.Excuse{
		ID:          "1",
		Tone:        api.ToneDramatic,
		Text:        "Hello",
		Tips:        "Tips",
		LikesCount:  3,
		SharesCount: 2,
		CopiesCount: 1,
		CreatedAt:   time.Date(2024, 1, 1, 12, 30, 0, 123456000, time.UTC),
	}
	if diff := cmp.Diff(want, fromAPIExcuse(want).APIExcuse()); diff != "" {
		t.Errorf("Conversion mismatch (-want +got):\n%s", diff)
	}
}

func TestRedis_TopExcuses(t *testing.T) {
	tests := []struct {
		name   string
		store  [][]api.Excuse
		modify func(t *testing.T, r *Redis, mr *miniredis.Miniredis)
		limit  int
		want   []api.Excuse
		wantOK bool
	}{
		{
			name:  "NothingStored",
			limit: 10,
		},
		{
			name:   "EmptySnapshot",
			store:  [][]api.Excuse{{}},
			limit:  10,
			want:   []api.Excuse{},
			wantOK: true,
		},
		{
			name:   "All",
			store:  [][]api.Excuse{testSnapshot},
			limit:  10,
			want:   testSnapshot,
			wantOK: true,
		},
		{
			name:   "Limited",
			store:  [][]api.Excuse{testSnapshot},
			limit:  2,
			want:   testSnapshot[:2],
			wantOK: true,
		},
		{
			name:   "ReplacedByShorterSnapshot",
			store:  [][]api.Excuse{testSnapshot, testSnapshot[2:]},
			limit:  10,
			want:   testSnapshot[2:],
			wantOK: true,
		},
		{
			name:  "Invalidated",
			store: [][]api.Excuse{testSnapshot},
			modify: func(t *testing.T, r *Redis, mr *miniredis.Miniredis) {
				if err := r.Invalidate(context.Background()); err != nil {
					t.Fatalf("Invalidate() error = %v", err)
				}
			},
			limit: 10,
		},
		{
			name:  "Expired",
			store: [][]api.Excuse{testSnapshot},
			modify: func(t *testing.T, r *Redis, mr *miniredis.Miniredis) {
				mr.FastForward(testTTL + time.Second)
			},
			limit: 10,
		},
		{
			name:  "EntryMissing",
			store: [][]api.Excuse{testSnapshot},
			modify: func(t *testing.T, r *Redis, mr *miniredis.Miniredis) {
				mr.Del(excuseKey("a"))
			},
			limit: 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, mr := newTestRedis(t)
			ctx := context.Background()
			for _, s := range tt.store {
				if err := r.StoreTopExcuses(ctx, s); err != nil {
					t.Fatalf("StoreTopExcuses() error = %v", err)
				}
			}
			if tt.modify != nil {
				tt.modify(t, r, mr)
			}

			got, ok, err := r.TopExcuses(ctx, tt.limit)
			if err != nil {
				t.Fatalf("TopExcuses() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("TopExcuses() ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("TopExcuses() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRedis_StoreSetsTTL(t *testing.T) {
	r, mr := newTestRedis(t)
	if err := r.StoreTopExcuses(context.Background(), testSnapshot); err != nil {
		t.Fatalf("StoreTopExcuses() error = %v", err)
	}
	for _, key := range []string{readyKey, leaderboardKey, excuseKey("a")} {
		if ttl := mr.TTL(key); ttl != testTTL {
			t.Errorf("TTL(%s) = %v, want %v", key, ttl, testTTL)
		}
	}
}
