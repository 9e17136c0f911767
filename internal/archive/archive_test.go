package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nvandessel/voteanalysis/internal/models"
)

type fakeCollection struct {
	docs    []Document
	batches int
	deletes []bson.M
	err     error
}

func (f *fakeCollection) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	m := filter.(bson.M)
	f.deletes = append(f.deletes, m)
	kept := f.docs[:0]
	var n int64
	for _, d := range f.docs {
		if d.ModuleName == m["module_name"] && d.ExperimentName == m["experiment_name"] {
			n++
			continue
		}
		kept = append(kept, d)
	}
	f.docs = kept
	return &mongo.DeleteResult{DeletedCount: n}, nil
}

func (f *fakeCollection) InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches++
	ids := make([]interface{}, len(documents))
	for i, d := range documents {
		f.docs = append(f.docs, d.(Document))
		ids[i] = len(f.docs)
	}
	return &mongo.InsertManyResult{InsertedIDs: ids}, nil
}

func (f *fakeCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	m := filter.(bson.M)
	var n int64
	for _, d := range f.docs {
		if d.ModuleName == m["module_name"] && d.ExperimentName == m["experiment_name"] {
			n++
		}
	}
	return n, nil
}

func iterations(n, perIteration int) []models.Iteration {
	out := make([]models.Iteration, n)
	for i := range out {
		out[i] = models.Iteration{Index: i, ReferenceValue: 100}
		for j := 0; j < perIteration; j++ {
			out[i].Results = append(out[i].Results, models.IterationResult{
				ID:             int64(i*perIteration + j + 1),
				VersionName:    "v",
				Answer:         100,
				CorrectAnswer:  100,
				ModuleName:     "sorting",
				Iteration:      i,
				ExperimentName: "exp",
			})
		}
	}
	return out
}

func TestExportBatches(t *testing.T) {
	fake := &fakeCollection{}
	a := NewArchiver(fake)
	a.batchSize = 4
	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a.now = func() time.Time { return stamp }

	n, err := a.Export(context.Background(), iterations(5, 2))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if n != 10 {
		t.Errorf("Export() wrote %d, want 10", n)
	}
	if fake.batches != 3 {
		t.Errorf("InsertMany called %d times, want 3", fake.batches)
	}
	if got := fake.docs[3]; got.ResultID != 4 || got.Iteration != 1 || !got.ArchivedAt.Equal(stamp) {
		t.Errorf("doc[3] = %+v", got)
	}
}

func TestExportReplaces(t *testing.T) {
	ctx := context.Background()
	fake := &fakeCollection{docs: []Document{{ModuleName: "other", ExperimentName: "exp"}}}
	a := NewArchiver(fake)

	if _, err := a.Export(ctx, iterations(3, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Export(ctx, iterations(2, 1)); err != nil {
		t.Fatal(err)
	}

	n, err := a.Count(ctx, "sorting", "exp")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
	if len(fake.docs) != 3 {
		t.Errorf("other module's documents were touched: %d docs left", len(fake.docs))
	}
}

func TestExportErrors(t *testing.T) {
	ctx := context.Background()
	a := NewArchiver(&fakeCollection{})
	if _, err := a.Export(ctx, []models.Iteration{{Index: 0}}); !errors.Is(err, models.ErrEmptyInput) {
		t.Errorf("Export(no results) error = %v, want ErrEmptyInput", err)
	}

	boom := errors.New("server selection timeout")
	a = NewArchiver(&fakeCollection{err: boom})
	if _, err := a.Export(ctx, iterations(1, 1)); !errors.Is(err, boom) {
		t.Errorf("Export() error = %v, want wrapped %v", err, boom)
	}
	if _, err := a.Count(ctx, "m", "e"); !errors.Is(err, boom) {
		t.Errorf("Count() error = %v, want wrapped %v", err, boom)
	}
}
