package leaderboard

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/nvandessel/voteanalysis/internal/vote"
)

// fakeZSet keeps sorted sets in memory. Ties order by member descending,
// matching ZREVRANGE.
type fakeZSet struct {
	sets map[string]map[string]float64
	err  error
}

func newFakeZSet() *fakeZSet {
	return &fakeZSet{sets: make(map[string]map[string]float64)}
}

func (f *fakeZSet) ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	set := f.sets[key]
	if set == nil {
		set = make(map[string]float64)
		f.sets[key] = set
	}
	var added int64
	for _, z := range members {
		m := z.Member.(string)
		if _, ok := set[m]; !ok {
			added++
		}
		set[m] = z.Score
	}
	return redis.NewIntResult(added, nil)
}

func (f *fakeZSet) sorted(key string) []redis.Z {
	var out []redis.Z
	for m, s := range f.sets[key] {
		out = append(out, redis.Z{Member: m, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Member.(string) > out[j].Member.(string)
	})
	return out
}

func (f *fakeZSet) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd {
	if f.err != nil {
		return redis.NewZSliceCmdResult(nil, f.err)
	}
	all := f.sorted(key)
	if start >= int64(len(all)) {
		return redis.NewZSliceCmdResult([]redis.Z{}, nil)
	}
	if stop >= int64(len(all)) {
		stop = int64(len(all)) - 1
	}
	return redis.NewZSliceCmdResult(all[start:stop+1], nil)
}

func (f *fakeZSet) ZRevRank(ctx context.Context, key, member string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	for i, z := range f.sorted(key) {
		if z.Member.(string) == member {
			return redis.NewIntResult(int64(i), nil)
		}
	}
	return redis.NewIntResult(0, redis.Nil)
}

func TestRecordAndTop(t *testing.T) {
	ctx := context.Background()
	fake := newFakeZSet()
	b := New(fake)

	reports := []vote.Report{
		{Algorithm: "average", Accuracy: 0.4},
		{Algorithm: "median", Accuracy: 0.9},
		{Algorithm: "classic", Accuracy: 0.7},
	}
	if err := b.Record(ctx, "sorting", "exp", reports); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, ok := fake.sets["nvote:leaderboard:sorting:exp"]; !ok {
		t.Fatalf("expected key %q, have %v", Key("sorting", "exp"), fake.sets)
	}

	top, err := b.Top(ctx, "sorting", "exp", 2)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	want := []Entry{
		{Algorithm: "median", Accuracy: 0.9, Rank: 1},
		{Algorithm: "classic", Accuracy: 0.7, Rank: 2},
	}
	if !reflect.DeepEqual(top, want) {
		t.Errorf("Top() = %v, want %v", top, want)
	}

	// Re-recording replaces the score.
	if err := b.Record(ctx, "sorting", "exp", []vote.Report{{Algorithm: "average", Accuracy: 1}}); err != nil {
		t.Fatal(err)
	}
	rank, err := b.Rank(ctx, "sorting", "exp", "average")
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if rank != 1 {
		t.Errorf("Rank(average) = %d, want 1", rank)
	}
}

func TestRankMissing(t *testing.T) {
	b := New(newFakeZSet())
	rank, err := b.Rank(context.Background(), "m", "e", "ghost")
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if rank != -1 {
		t.Errorf("Rank(ghost) = %d, want -1", rank)
	}
}

func TestEmptyInputs(t *testing.T) {
	fake := newFakeZSet()
	b := New(fake)
	if err := b.Record(context.Background(), "m", "e", nil); err != nil {
		t.Errorf("Record(nil) error = %v", err)
	}
	if len(fake.sets) != 0 {
		t.Errorf("Record(nil) wrote %v", fake.sets)
	}
	top, err := b.Top(context.Background(), "m", "e", 0)
	if err != nil || top != nil {
		t.Errorf("Top(limit 0) = %v, %v", top, err)
	}
}

func TestErrorsWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	fake := newFakeZSet()
	fake.err = boom
	b := New(fake)
	ctx := context.Background()

	if err := b.Record(ctx, "m", "e", []vote.Report{{Algorithm: "a"}}); !errors.Is(err, boom) {
		t.Errorf("Record() error = %v", err)
	}
	if _, err := b.Top(ctx, "m", "e", 3); !errors.Is(err, boom) {
		t.Errorf("Top() error = %v", err)
	}
	if _, err := b.Rank(ctx, "m", "e", "a"); !errors.Is(err, boom) {
		t.Errorf("Rank() error = %v", err)
	}
}
