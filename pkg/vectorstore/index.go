package vectorstore

import (
	"context"
	"fmt"
	"time"

	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/embedding"

	"github.com/google/uuid"
)

const logModule = "VectorIndex"

type Config struct {
	Dimension         int
	Distance          Distance
	OnDisk            bool
	SegmentNumber     int
	UploadBatchSize   int
	IndexingThreshold int
	Oversampling      float64
	Rescore           bool
	QueryTimeout      time.Duration
	CollectionPrefix  string
}

func DefaultConfig() Config {
	return Config{
		Dimension:         768,
		Distance:          DistanceDot,
		OnDisk:            true,
		SegmentNumber:     5,
		UploadBatchSize:   512,
		IndexingThreshold: 20000,
		Oversampling:      2.0,
		Rescore:           true,
		QueryTimeout:      5 * time.Second,
		CollectionPrefix:  DefaultCollectionPrefix,
	}
}

// Index owns collection lifecycle on top of a Backend.
type Index struct {
	backend Backend
	cfg     Config
	logger  logger.ILogger
}

func NewIndex(backend Backend, cfg Config, log logger.ILogger) *Index {
	def := DefaultConfig()
	if cfg.Dimension <= 0 {
		cfg.Dimension = def.Dimension
	}
	if cfg.Distance == "" {
		cfg.Distance = def.Distance
	}
	if cfg.UploadBatchSize <= 0 {
		cfg.UploadBatchSize = def.UploadBatchSize
	}
	if cfg.IndexingThreshold <= 0 {
		cfg.IndexingThreshold = def.IndexingThreshold
	}
	if cfg.Oversampling <= 0 {
		cfg.Oversampling = def.Oversampling
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = def.QueryTimeout
	}
	return &Index{backend: backend, cfg: cfg, logger: log}
}

func (i *Index) Config() Config {
	return i.cfg
}

// CollectionFor returns the collection name for scope.
func (i *Index) CollectionFor(scope Scope) string {
	return CollectionName(i.cfg.CollectionPrefix, scope)
}

// Open binds to name without any backend call.
func (i *Index) Open(name string) *Collection {
	return &Collection{index: i, name: name}
}

// CreateOrSetCollection creates name with the fixed schema and indexing
// deferred, or binds to it when it already exists.
func (i *Index) CreateOrSetCollection(ctx context.Context, name string) (*Collection, error) {
	exists, err := i.backend.CollectionExists(ctx, name)
	if err != nil {
		i.logger.Error(logModule, "Collection lookup failed", map[string]interface{}{
			"collection": name,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("check collection %s: %w", name, err)
	}

	if !exists {
		spec := CollectionSpec{
			Name:              name,
			Dimension:         i.cfg.Dimension,
			Distance:          i.cfg.Distance,
			OnDisk:            i.cfg.OnDisk,
			SegmentNumber:     i.cfg.SegmentNumber,
			IndexingThreshold: 0,
		}
		if err := i.backend.CreateCollection(ctx, spec); err != nil {
			i.logger.Error(logModule, "Collection create failed", map[string]interface{}{
				"collection": name,
				"error":      err.Error(),
			})
			return nil, fmt.Errorf("create collection %s: %w", name, err)
		}
		i.logger.Info(logModule, "Collection created", map[string]interface{}{
			"collection": name,
			"dimension":  i.cfg.Dimension,
			"distance":   string(i.cfg.Distance),
		})
	}

	return i.Open(name), nil
}

// Collection is a handle bound to one named collection.
type Collection struct {
	index *Index
	name  string
}

func (c *Collection) Name() string {
	return c.name
}

// IngestData uploads batch in fixed-size chunks, then raises the indexing
// threshold. A failure partway through leaves earlier chunks in place; the
// returned count says how many records were stored.
func (c *Collection) IngestData(ctx context.Context, batch *embedding.Batch, source string) (int, error) {
	if batch.Len() == 0 {
		return 0, nil
	}
	if len(batch.Contexts) != len(batch.Embeddings) {
		return 0, apperror.New(apperror.ErrValidation, "IngestData",
			fmt.Sprintf("%d contexts but %d embeddings", len(batch.Contexts), len(batch.Embeddings)))
	}

	dim := c.index.cfg.Dimension
	records := make([]Record, len(batch.Contexts))
	for i := range batch.Contexts {
		if len(batch.Embeddings[i]) != dim {
			return 0, apperror.New(apperror.ErrValidation, "IngestData",
				fmt.Sprintf("embedding %d has dimension %d, collection expects %d", i, len(batch.Embeddings[i]), dim))
		}
		records[i] = Record{
			ID:      uuid.NewString(),
			Vector:  batch.Embeddings[i],
			Payload: Payload{Context: batch.Contexts[i], Source: source},
		}
	}

	stored := 0
	for n, chunk := range embedding.BatchIterate(records, c.index.cfg.UploadBatchSize) {
		if err := c.index.backend.Upsert(ctx, c.name, chunk); err != nil {
			c.index.logger.Error(logModule, "Upload batch failed, collection partially ingested", map[string]interface{}{
				"collection": c.name,
				"source":     source,
				"batch":      n,
				"stored":     stored,
				"error":      err.Error(),
			})
			return stored, fmt.Errorf("upload batch %d to %s: %w", n, c.name, err)
		}
		stored += len(chunk)
	}

	if err := c.index.backend.SetIndexingThreshold(ctx, c.name, c.index.cfg.IndexingThreshold); err != nil {
		return stored, fmt.Errorf("resume indexing on %s: %w", c.name, err)
	}

	c.index.logger.Info(logModule, "Ingested records", map[string]interface{}{
		"collection": c.name,
		"source":     source,
		"count":      stored,
	})
	return stored, nil
}

// Query is the raw nearest-neighbor primitive, bounded by the configured timeout.
func (c *Collection) Query(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	cfg := c.index.cfg
	ctx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()

	return c.index.backend.Query(ctx, c.name, QueryParams{
		Vector:       vector,
		Limit:        limit,
		Oversampling: cfg.Oversampling,
		Rescore:      cfg.Rescore,
		Timeout:      cfg.QueryTimeout,
	})
}
