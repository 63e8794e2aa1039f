package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// RequestData carries the authenticated principal for the current request.
type RequestData struct {
	CoachID uuid.UUID
	Email   string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, contextKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	rd, ok := ctx.Value(contextKey{}).(*RequestData)
	if !ok {
		return nil
	}
	return rd
}
