package middlewares

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/mealplan_backend/config"
	"github.com/mmdatafocus/mealplan_backend/models"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders wrap your data loaders to inject via middleware
type Loaders struct {
	FoodNutritionLoader *dataloader.Loader[string, *models.FoodNutrition]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(conn *gorm.DB) *Loaders {
	foodNutritionReader := &foodNutritionReader{db: conn}
	return newLoaders(foodNutritionReader.getFoodNutrition)
}

func newLoaders(foodNutrition dataloader.BatchFunc[string, *models.FoodNutrition]) *Loaders {
	return &Loaders{
		FoodNutritionLoader: dataloader.NewBatchedLoader(
			foodNutrition,
			dataloader.WithWait[string, *models.FoodNutrition](time.Millisecond),
			dataloader.WithBatchCapacity[string, *models.FoodNutrition](500),
		),
	}
}

// LoaderMiddleware gives every request its own loaders, so cached rows never outlive a request.
func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		c.Request = c.Request.WithContext(WithLoaders(c.Request.Context(), loader))
		c.Next()
	}
}

// WithLoaders attaches loaders to ctx outside of an HTTP request (CLI, Pub/Sub worker).
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// For returns the loaders attached to ctx, or nil.
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(loadersKey).(*Loaders)
	return loaders
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}
