package workflow

import (
	"context"
	"errors"

	"github.com/mmdatafocus/mealplan_backend/middlewares"
	"github.com/mmdatafocus/mealplan_backend/models"
)

// loaderSource reads nutrition through the request's dataloader when one is attached,
// so foods shared between households in one backfill are fetched once.
type loaderSource struct {
	*models.ReportSource
}

func (s loaderSource) FoodNutrition(ctx context.Context, foodIds []string) (map[string]models.FoodNutrition, error) {
	rows, err := middlewares.GetFoodNutritions(ctx, foodIds)
	if errors.Is(err, middlewares.ErrNoLoaders) {
		return s.ReportSource.FoodNutrition(ctx, foodIds)
	}
	return rows, err
}
