package vectorindex

import (
	"context"

	"neurabuddy/internal/domain"
)

// Record is a stored chunk with its embedding.
type Record struct {
	ID      string            `json:"id"`
	Content string            `json:"content"`
	Fields  map[string]string `json:"fields"`
	Vector  []float32         `json:"vector"`
}

// Backend persists records. Implementations must be safe for concurrent use.
// Every successful Put or DeleteWhere advances the generation.
type Backend interface {
	Put(ctx context.Context, records []Record) error
	// Scan returns every record whose fields match filter.
	Scan(ctx context.Context, filter domain.Filter) ([]Record, error)
	// DeleteWhere removes records whose field key equals value and returns
	// how many were removed.
	DeleteWhere(ctx context.Context, key, value string) (int, error)
	Count(ctx context.Context) (int, error)
	// Generation identifies the current contents. Equal generations mean
	// no write happened in between.
	Generation(ctx context.Context) (int64, error)
}
