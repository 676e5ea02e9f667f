package qdrant

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"multimodal-rag-be/pkg/apperror"
	"multimodal-rag-be/pkg/vectorstore"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
)

// Backend implements vectorstore.Backend over the Qdrant gRPC API.
type Backend struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
}

var _ vectorstore.Backend = (*Backend)(nil)

// New validates rawURL and prepares a lazy gRPC connection. No network I/O
// happens until the first call.
func New(rawURL, apiKey string) (*Backend, error) {
	target, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	creds := insecure.NewCredentials()
	if target.UseTLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if apiKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(apiKey)))
	}

	conn, err := grpc.NewClient(target.Address(), opts...)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrConfiguration, "qdrant.New", err)
	}

	return &Backend{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
	}, nil
}

func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func (b *Backend) CollectionExists(ctx context.Context, name string) (bool, error) {
	resp, err := b.collections.CollectionExists(ctx, &qdrantclient.CollectionExistsRequest{CollectionName: name})
	if err != nil {
		return false, mapError("CollectionExists", err)
	}
	return resp.GetResult().GetExists(), nil
}

func (b *Backend) CreateCollection(ctx context.Context, spec vectorstore.CollectionSpec) error {
	optimizers := &qdrantclient.OptimizersConfigDiff{
		IndexingThreshold: proto.Uint64(uint64(spec.IndexingThreshold)),
	}
	if spec.SegmentNumber > 0 {
		optimizers.DefaultSegmentNumber = proto.Uint64(uint64(spec.SegmentNumber))
	}

	_, err := b.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(spec.Dimension),
					Distance: toDistance(spec.Distance),
					OnDisk:   proto.Bool(spec.OnDisk),
				},
			},
		},
		OptimizersConfig: optimizers,
	})
	return mapError("CreateCollection", err)
}

func (b *Backend) SetIndexingThreshold(ctx context.Context, name string, threshold int) error {
	_, err := b.collections.Update(ctx, &qdrantclient.UpdateCollection{
		CollectionName: name,
		OptimizersConfig: &qdrantclient.OptimizersConfigDiff{
			IndexingThreshold: proto.Uint64(uint64(threshold)),
		},
	})
	return mapError("SetIndexingThreshold", err)
}

func (b *Backend) Upsert(ctx context.Context, collection string, records []vectorstore.Record) error {
	points := make([]*qdrantclient.PointStruct, len(records))
	for i, r := range records {
		points[i] = &qdrantclient.PointStruct{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: r.ID},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: r.Vector},
				},
			},
			Payload: map[string]*qdrantclient.Value{
				"context": {Kind: &qdrantclient.Value_StringValue{StringValue: r.Payload.Context}},
				"source":  {Kind: &qdrantclient.Value_StringValue{StringValue: r.Payload.Source}},
			},
		}
	}

	_, err := b.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: collection,
		Wait:           proto.Bool(true),
		Points:         points,
	})
	return mapError("Upsert", err)
}

func (b *Backend) Query(ctx context.Context, collection string, params vectorstore.QueryParams) ([]vectorstore.Hit, error) {
	req := &qdrantclient.SearchPoints{
		CollectionName: collection,
		Vector:         params.Vector,
		Limit:          uint64(params.Limit),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Include{
				Include: &qdrantclient.PayloadIncludeSelector{
					Fields: []string{"context", "source"},
				},
			},
		},
		Params: &qdrantclient.SearchParams{
			Quantization: &qdrantclient.QuantizationSearchParams{
				Ignore:       proto.Bool(false),
				Rescore:      proto.Bool(params.Rescore),
				Oversampling: proto.Float64(params.Oversampling),
			},
		},
	}
	if params.Timeout > 0 {
		req.Timeout = proto.Uint64(timeoutSeconds(params.Timeout))
	}

	resp, err := b.points.Search(ctx, req)
	if err != nil {
		return nil, mapError("Query", err)
	}

	hits := make([]vectorstore.Hit, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		hits = append(hits, vectorstore.Hit{
			ID:    pointID(p.GetId()),
			Score: p.GetScore(),
			Payload: vectorstore.Payload{
				Context: p.GetPayload()["context"].GetStringValue(),
				Source:  p.GetPayload()["source"].GetStringValue(),
			},
		})
	}
	return hits, nil
}

func (b *Backend) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}

func toDistance(d vectorstore.Distance) qdrantclient.Distance {
	switch d {
	case vectorstore.DistanceCosine:
		return qdrantclient.Distance_Cosine
	case vectorstore.DistanceEuclidean:
		return qdrantclient.Distance_Euclid
	default:
		return qdrantclient.Distance_Dot
	}
}

func pointID(id *qdrantclient.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%d", id.GetNum())
}

// Qdrant takes whole seconds; round up so a sub-second bound is not zero.
func timeoutSeconds(d time.Duration) uint64 {
	secs := uint64((d + time.Second - 1) / time.Second)
	if secs == 0 {
		secs = 1
	}
	return secs
}

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		if apperror.IsTransport(err) {
			return apperror.Wrap(apperror.ErrBackendUnavailable, "qdrant."+op, err)
		}
		return fmt.Errorf("qdrant.%s: %w", op, err)
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return apperror.Wrap(apperror.ErrBackendUnavailable, "qdrant."+op, err)
	case codes.NotFound:
		return apperror.Wrap(apperror.ErrNotFound, "qdrant."+op, err)
	default:
		return fmt.Errorf("qdrant.%s: %w", op, err)
	}
}
