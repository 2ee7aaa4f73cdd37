package interceptor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"library-loans-backend/internal/logger"
)

func TestLogging_PropagatesRequestID(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "req-7"))

	var seen string
	_, err := Logging()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			seen = logger.RequestIDFromContext(ctx)
			return nil, nil
		})

	assert.NoError(t, err)
	assert.Equal(t, "req-7", seen)
}

func TestLogging_GeneratesRequestID(t *testing.T) {
	var seen string
	_, _ = Logging()(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x"},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			seen = logger.RequestIDFromContext(ctx)
			return nil, nil
		})

	assert.Len(t, seen, 36)
}
