// Package archive exports generated experiment data to MongoDB.
package archive

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nvandessel/voteanalysis/internal/config"
	"github.com/nvandessel/voteanalysis/internal/models"
)

// CollectionName holds one document per iteration result.
const CollectionName = "experiment_data"

// DefaultBatchSize bounds the documents sent per InsertMany call.
const DefaultBatchSize = 500

// Document is the archived form of one iteration result.
type Document struct {
	ResultID           int64       `bson:"result_id"`
	VersionID          int64       `bson:"version_id"`
	VersionName        string      `bson:"version_name"`
	VersionReliability float64     `bson:"version_reliability"`
	VersionCoordinates []float64   `bson:"version_coordinates"`
	VersionAnswer      float64     `bson:"version_answer"`
	CorrectAnswer      float64     `bson:"correct_answer"`
	ModuleID           int64       `bson:"module_id"`
	ModuleName         string      `bson:"module_name"`
	ConnectivityMatrix [][]float64 `bson:"module_connectivity_matrix"`
	Iteration          int         `bson:"module_iteration_num"`
	ExperimentName     string      `bson:"experiment_name"`
	ArchivedAt         time.Time   `bson:"archived_at"`
}

// NewDocument converts r, stamping it with at.
func NewDocument(r models.IterationResult, at time.Time) Document {
	return Document{
		ResultID:           r.ID,
		VersionID:          r.VersionID,
		VersionName:        r.VersionName,
		VersionReliability: r.VersionReliability,
		VersionCoordinates: r.VersionCoordinates,
		VersionAnswer:      r.Answer,
		CorrectAnswer:      r.CorrectAnswer,
		ModuleID:           r.ModuleID,
		ModuleName:         r.ModuleName,
		ConnectivityMatrix: r.ConnectivityMatrix,
		Iteration:          r.Iteration,
		ExperimentName:     r.ExperimentName,
		ArchivedAt:         at,
	}
}

// collection is the subset of *mongo.Collection the archiver uses.
type collection interface {
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// Archiver writes experiments into a collection.
type Archiver struct {
	coll      collection
	batchSize int
	now       func() time.Time
}

// NewArchiver creates an archiver on coll, usually a *mongo.Collection.
func NewArchiver(coll collection) *Archiver {
	return &Archiver{coll: coll, batchSize: DefaultBatchSize, now: time.Now}
}

// Connect opens a MongoDB client from cfg and returns it with the archive
// collection. Callers disconnect the client.
func Connect(ctx context.Context, cfg config.ArchiveConfig) (*mongo.Client, *mongo.Collection, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, client.Database(cfg.Database).Collection(CollectionName), nil
}

func filter(module, experiment string) bson.M {
	return bson.M{"module_name": module, "experiment_name": experiment}
}

// Export replaces the archived copy of the experiment with every result in
// iterations and returns the number of documents written. The iterations must
// come from one module experiment.
func (a *Archiver) Export(ctx context.Context, iterations []models.Iteration) (int, error) {
	var docs []interface{}
	at := a.now().UTC()
	for _, it := range iterations {
		for _, r := range it.Results {
			docs = append(docs, NewDocument(r, at))
		}
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("archive: %w", models.ErrEmptyInput)
	}
	first := docs[0].(Document)

	if _, err := a.coll.DeleteMany(ctx, filter(first.ModuleName, first.ExperimentName)); err != nil {
		return 0, fmt.Errorf("failed to clear archived experiment %q: %w", first.ExperimentName, err)
	}

	written := 0
	for start := 0; start < len(docs); start += a.batchSize {
		end := min(start+a.batchSize, len(docs))
		res, err := a.coll.InsertMany(ctx, docs[start:end])
		if err != nil {
			return written, fmt.Errorf("failed to archive experiment %q: %w", first.ExperimentName, err)
		}
		written += len(res.InsertedIDs)
	}
	return written, nil
}

// Count returns the number of archived documents of one experiment.
func (a *Archiver) Count(ctx context.Context, module, experiment string) (int64, error) {
	n, err := a.coll.CountDocuments(ctx, filter(module, experiment))
	if err != nil {
		return 0, fmt.Errorf("failed to count archived experiment %q: %w", experiment, err)
	}
	return n, nil
}
