package qdrant

import (
	"context"
	"errors"
	"testing"
	"time"

	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/vectorstore"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeCollections struct {
	qdrantclient.CollectionsClient
	created *qdrantclient.CreateCollection
	updated *qdrantclient.UpdateCollection
	exists  bool
	err     error
}

func (f *fakeCollections) CollectionExists(_ context.Context, _ *qdrantclient.CollectionExistsRequest, _ ...grpc.CallOption) (*qdrantclient.CollectionExistsResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &qdrantclient.CollectionExistsResponse{Result: &qdrantclient.CollectionExists{Exists: f.exists}}, nil
}

func (f *fakeCollections) Create(_ context.Context, in *qdrantclient.CreateCollection, _ ...grpc.CallOption) (*qdrantclient.CollectionOperationResponse, error) {
	f.created = in
	return &qdrantclient.CollectionOperationResponse{Result: true}, nil
}

func (f *fakeCollections) Update(_ context.Context, in *qdrantclient.UpdateCollection, _ ...grpc.CallOption) (*qdrantclient.CollectionOperationResponse, error) {
	f.updated = in
	return &qdrantclient.CollectionOperationResponse{Result: true}, nil
}

type fakePoints struct {
	qdrantclient.PointsClient
	upserted *qdrantclient.UpsertPoints
	searched *qdrantclient.SearchPoints
	result   []*qdrantclient.ScoredPoint
}

func (f *fakePoints) Upsert(_ context.Context, in *qdrantclient.UpsertPoints, _ ...grpc.CallOption) (*qdrantclient.PointsOperationResponse, error) {
	f.upserted = in
	return &qdrantclient.PointsOperationResponse{}, nil
}

func (f *fakePoints) Search(_ context.Context, in *qdrantclient.SearchPoints, _ ...grpc.CallOption) (*qdrantclient.SearchResponse, error) {
	f.searched = in
	return &qdrantclient.SearchResponse{Result: f.result}, nil
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Target
		wantErr bool
	}{
		{"default port", "http://localhost", Target{Host: "localhost", Port: 6334}, false},
		{"explicit port", "http://qdrant:6334", Target{Host: "qdrant", Port: 6334}, false},
		{"tls", "https://xyz.cloud.qdrant.io:6334", Target{Host: "xyz.cloud.qdrant.io", Port: 6334, UseTLS: true}, false},
		{"bare host", "localhost:6334", Target{}, true},
		{"garbage", "not a url", Target{}, true},
		{"no host", "http://", Target{}, true},
		{"bad port", "http://localhost:99999", Target{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURL(tt.raw)
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperror.ErrConfiguration), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRejectsMalformedURLBeforeIO(t *testing.T) {
	_, err := New("::::", "")
	assert.ErrorIs(t, err, apperror.ErrConfiguration)
}

func TestCreateCollectionSchema(t *testing.T) {
	colls := &fakeCollections{}
	b := &Backend{collections: colls}

	err := b.CreateCollection(context.Background(), vectorstore.CollectionSpec{
		Name: "c", Dimension: 768, Distance: vectorstore.DistanceDot, OnDisk: true, SegmentNumber: 5,
	})
	require.NoError(t, err)

	params := colls.created.GetVectorsConfig().GetParams()
	assert.Equal(t, uint64(768), params.GetSize())
	assert.Equal(t, qdrantclient.Distance_Dot, params.GetDistance())
	assert.True(t, params.GetOnDisk())
	assert.Equal(t, uint64(0), colls.created.GetOptimizersConfig().GetIndexingThreshold())
	assert.Equal(t, uint64(5), colls.created.GetOptimizersConfig().GetDefaultSegmentNumber())

	require.NoError(t, b.SetIndexingThreshold(context.Background(), "c", 20000))
	assert.Equal(t, uint64(20000), colls.updated.GetOptimizersConfig().GetIndexingThreshold())
}

func TestUpsertAndQuery(t *testing.T) {
	points := &fakePoints{result: []*qdrantclient.ScoredPoint{{
		Id:    &qdrantclient.PointId{PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: "abc"}},
		Score: 0.42,
		Payload: map[string]*qdrantclient.Value{
			"context": {Kind: &qdrantclient.Value_StringValue{StringValue: "text"}},
			"source":  {Kind: &qdrantclient.Value_StringValue{StringValue: "a.pdf"}},
		},
	}}}
	b := &Backend{points: points}

	err := b.Upsert(context.Background(), "c", []vectorstore.Record{{ID: "abc", Vector: []float32{1, 2}, Payload: vectorstore.Payload{Context: "text", Source: "a.pdf"}}})
	require.NoError(t, err)
	require.Len(t, points.upserted.GetPoints(), 1)
	assert.Equal(t, "text", points.upserted.GetPoints()[0].GetPayload()["context"].GetStringValue())

	hits, err := b.Query(context.Background(), "c", vectorstore.QueryParams{
		Vector: []float32{1, 2}, Limit: 10, Oversampling: 2.0, Rescore: true, Timeout: 1500 * time.Millisecond,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, vectorstore.Hit{ID: "abc", Score: 0.42, Payload: vectorstore.Payload{Context: "text", Source: "a.pdf"}}, hits[0])

	q := points.searched.GetParams().GetQuantization()
	assert.False(t, q.GetIgnore())
	assert.True(t, q.GetRescore())
	assert.Equal(t, 2.0, q.GetOversampling())
	assert.Equal(t, uint64(2), points.searched.GetTimeout())
	assert.Equal(t, []string{"context", "source"}, points.searched.GetWithPayload().GetInclude().GetFields())
}

func TestMapErrorUnavailable(t *testing.T) {
	b := &Backend{collections: &fakeCollections{err: status.Error(codes.Unavailable, "connection refused")}}
	_, err := b.CollectionExists(context.Background(), "c")
	assert.ErrorIs(t, err, apperror.ErrBackendUnavailable)
}
