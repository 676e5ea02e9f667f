package pgvector

import (
	"context"
	"errors"
	"fmt"

	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/vectorstore"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Backend stores collections as rows in Postgres with the pgvector extension.
// The indexing threshold is recorded but Postgres builds no deferred index.
type Backend struct {
	db *gorm.DB
}

var _ vectorstore.Backend = (*Backend)(nil)

func New(db *gorm.DB) *Backend {
	return &Backend{db: db}
}

// Migrate creates the extension and tables.
func (b *Backend) Migrate(ctx context.Context) error {
	if err := b.db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return mapError("Migrate", err)
	}
	return mapError("Migrate", b.db.WithContext(ctx).AutoMigrate(&VectorCollection{}, &VectorRecord{}))
}

func (b *Backend) CollectionExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := b.db.WithContext(ctx).Model(&VectorCollection{}).Where("name = ?", name).Count(&count).Error
	if err != nil {
		return false, mapError("CollectionExists", err)
	}
	return count > 0, nil
}

func (b *Backend) CreateCollection(ctx context.Context, spec vectorstore.CollectionSpec) error {
	m := &VectorCollection{
		Name:              spec.Name,
		Dimension:         spec.Dimension,
		Distance:          string(spec.Distance),
		IndexingThreshold: spec.IndexingThreshold,
	}
	// An existing row wins so the schema is never altered
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error
	return mapError("CreateCollection", err)
}

func (b *Backend) SetIndexingThreshold(ctx context.Context, name string, threshold int) error {
	err := b.db.WithContext(ctx).Model(&VectorCollection{}).
		Where("name = ?", name).
		Update("indexing_threshold", threshold).Error
	return mapError("SetIndexingThreshold", err)
}

func (b *Backend) Upsert(ctx context.Context, collection string, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]*VectorRecord, len(records))
	for i, r := range records {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			id = uuid.New()
		}
		models[i] = &VectorRecord{
			Id:             id,
			CollectionName: collection,
			Context:        r.Payload.Context,
			Source:         r.Payload.Source,
			Embedding:      pgvector.NewVector(r.Vector),
		}
	}
	err := b.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&models).Error
	return mapError("Upsert", err)
}

func (b *Backend) Query(ctx context.Context, collection string, params vectorstore.QueryParams) ([]vectorstore.Hit, error) {
	var coll VectorCollection
	err := b.db.WithContext(ctx).Where("name = ?", collection).First(&coll).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.ErrNotFound, "pgvector.Query", fmt.Sprintf("collection %s does not exist", collection))
		}
		return nil, mapError("Query", err)
	}

	type result struct {
		Id      uuid.UUID
		Context string
		Source  string
		Score   float64
	}
	var results []result

	queryVector := pgvector.NewVector(params.Vector)
	scoreExpr, order := scoreSQL(vectorstore.Distance(coll.Distance))

	err = b.db.WithContext(ctx).
		Table("vector_records").
		Select("id, context, source, "+scoreExpr+" AS score", queryVector).
		Where("collection_name = ?", collection).
		Order("score " + order).
		Limit(params.Limit).
		Scan(&results).Error
	if err != nil {
		return nil, mapError("Query", err)
	}

	hits := make([]vectorstore.Hit, len(results))
	for i, r := range results {
		hits[i] = vectorstore.Hit{
			ID:      r.Id.String(),
			Score:   float32(r.Score),
			Payload: vectorstore.Payload{Context: r.Context, Source: r.Source},
		}
	}
	return hits, nil
}

func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// scoreSQL maps a distance to a score expression and sort order that match
// Qdrant's conventions (higher is better except for euclid).
func scoreSQL(d vectorstore.Distance) (string, string) {
	switch d {
	case vectorstore.DistanceCosine:
		return "1 - (embedding <=> ?)", "DESC"
	case vectorstore.DistanceEuclidean:
		return "embedding <-> ?", "ASC"
	default:
		// <#> is the negative inner product
		return "(embedding <#> ?) * -1", "DESC"
	}
}

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsTransport(err) {
		return apperror.Wrap(apperror.ErrBackendUnavailable, "pgvector."+op, err)
	}
	return fmt.Errorf("pgvector.%s: %w", op, err)
}
