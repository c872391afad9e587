package lookup

import (
	"context"

	"github.com/vladimiradmaev/carbclarity/internal/domain"
	"github.com/vladimiradmaev/carbclarity/internal/logger"
)

// Fallback asks Primary first and falls back to Secondary when the primary
// search fails with a retryable error or finds nothing. Key errors are never
// masked. Negative ids belong to Secondary.
type Fallback struct {
	Primary   domain.FoodLookup
	Secondary domain.FoodLookup
}

func (f *Fallback) Search(ctx context.Context, query string) ([]domain.FoodCandidate, error) {
	candidates, err := f.Primary.Search(ctx, query)
	if f.Secondary == nil || ctx.Err() != nil {
		return candidates, err
	}
	if err != nil && !CanRetry(err) {
		return nil, err
	}
	if err == nil && len(candidates) > 0 {
		return candidates, nil
	}

	logger.Info("Falling back to AI food lookup", "query", query, "primary_error", err)
	fallback, ferr := f.Secondary.Search(ctx, query)
	if ferr != nil {
		if err != nil {
			return nil, err
		}
		return nil, ferr
	}
	return fallback, nil
}

func (f *Fallback) Detail(ctx context.Context, id int) (float64, bool, error) {
	if id < 0 && f.Secondary != nil {
		return f.Secondary.Detail(ctx, id)
	}
	return f.Primary.Detail(ctx, id)
}
