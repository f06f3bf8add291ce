package handler

import (
	"context"

	"github.com/use-agent/prodscrape/freshness"
	"github.com/use-agent/prodscrape/models"
)

// ProductService is the core the handlers drive. *freshness.Resolver
// implements it.
type ProductService interface {
	Resolve(ctx context.Context, url string, force bool) (*freshness.Resolution, error)
	Refetch(ctx context.Context, id int64) (*freshness.Resolution, error)
	Get(ctx context.Context, id int64) (*models.ProductRecord, error)
	List(ctx context.Context, query string) ([]models.ProductRecord, error)
}

// submitStatus maps a resolution source to the API status string.
func submitStatus(source string) string {
	if source == freshness.SourceCached {
		return models.StatusCached
	}
	return models.StatusOK
}
