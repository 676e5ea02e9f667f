package pgvector

import (
	"context"
	"os"
	"testing"

	"multimodal-rag-be/pkg/vectorstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestScoreSQL(t *testing.T) {
	expr, order := scoreSQL(vectorstore.DistanceDot)
	assert.Equal(t, "(embedding <#> ?) * -1", expr)
	assert.Equal(t, "DESC", order)

	expr, order = scoreSQL(vectorstore.DistanceCosine)
	assert.Equal(t, "1 - (embedding <=> ?)", expr)
	assert.Equal(t, "DESC", order)

	_, order = scoreSQL(vectorstore.DistanceEuclidean)
	assert.Equal(t, "ASC", order)
}

// Runs only when a pgvector-enabled Postgres is reachable.
func TestBackendRoundTrip(t *testing.T) {
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("DB_CONNECTION_STRING not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	b := New(db)
	ctx := context.Background()
	require.NoError(t, b.Migrate(ctx))

	name := "test_" + uuid.NewString()
	defer db.Where("collection_name = ?", name).Delete(&VectorRecord{})
	defer db.Where("name = ?", name).Delete(&VectorCollection{})

	require.NoError(t, b.CreateCollection(ctx, vectorstore.CollectionSpec{Name: name, Dimension: 3, Distance: vectorstore.DistanceDot}))
	exists, err := b.CollectionExists(ctx, name)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, b.Upsert(ctx, name, []vectorstore.Record{
		{ID: uuid.NewString(), Vector: []float32{1, 0, 0}, Payload: vectorstore.Payload{Context: "x", Source: "a"}},
		{ID: uuid.NewString(), Vector: []float32{0, 1, 0}, Payload: vectorstore.Payload{Context: "y", Source: "b"}},
	}))

	hits, err := b.Query(ctx, name, vectorstore.QueryParams{Vector: []float32{1, 0, 0}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "x", hits[0].Payload.Context)
}
