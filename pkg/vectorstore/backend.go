package vectorstore

import (
	"context"
	"time"
)

type Distance string

const (
	DistanceDot       Distance = "dot"
	DistanceCosine    Distance = "cosine"
	DistanceEuclidean Distance = "euclid"
)

// CollectionSpec is fixed at creation time and never altered afterwards.
type CollectionSpec struct {
	Name              string
	Dimension         int
	Distance          Distance
	OnDisk            bool
	SegmentNumber     int
	IndexingThreshold int
}

// Payload is stored alongside every vector.
type Payload struct {
	Context string `json:"context"`
	Source  string `json:"source"`
}

type Record struct {
	ID      string
	Vector  []float32
	Payload Payload
}

type QueryParams struct {
	Vector       []float32
	Limit        int
	Oversampling float64
	Rescore      bool
	Timeout      time.Duration
}

// Hit is a raw nearest-neighbor result carrying only the projected payload.
type Hit struct {
	ID      string
	Score   float32
	Payload Payload
}

// Backend is the storage engine behind an Index.
type Backend interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, spec CollectionSpec) error
	SetIndexingThreshold(ctx context.Context, name string, threshold int) error
	Upsert(ctx context.Context, collection string, records []Record) error
	Query(ctx context.Context, collection string, params QueryParams) ([]Hit, error)
	Close() error
}
