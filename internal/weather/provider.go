package weather

import (
	"context"
)

// Provider abstracts a current-conditions weather source.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Reading, error)
}
