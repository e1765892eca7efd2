package middlewares

import (
	"context"
	"errors"

	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"

	"github.com/mmdatafocus/mealplan_backend/models"
)

type foodNutritionReader struct {
	db *gorm.DB
}

func (r *foodNutritionReader) getFoodNutrition(ctx context.Context, ids []string) []*dataloader.Result[*models.FoodNutrition] {
	var results []models.FoodNutrition

	err := r.db.WithContext(ctx).Where("food_id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.FoodNutrition](len(ids), err)
	}
	return generateNutritionResults(results, ids)
}

// generateNutritionResults keeps the loader's key order; foods without a row load as nil.
func generateNutritionResults(results []models.FoodNutrition, ids []string) []*dataloader.Result[*models.FoodNutrition] {
	resultMap := make(map[string]*models.FoodNutrition, len(results))
	for i := range results {
		resultMap[results[i].FoodId] = &results[i]
	}

	loaderResults := make([]*dataloader.Result[*models.FoodNutrition], 0, len(ids))
	for _, id := range ids {
		loaderResults = append(loaderResults, &dataloader.Result[*models.FoodNutrition]{Data: resultMap[id]})
	}
	return loaderResults
}

var ErrNoLoaders = errors.New("no dataloaders attached to context")

// GetFoodNutritions returns nutrition rows by food id. Foods without data are left out of the map.
func GetFoodNutritions(ctx context.Context, ids []string) (map[string]models.FoodNutrition, error) {
	loaders := For(ctx)
	if loaders == nil {
		return nil, ErrNoLoaders
	}
	return loaders.LoadFoodNutrition(ctx, ids)
}

func (l *Loaders) LoadFoodNutrition(ctx context.Context, ids []string) (map[string]models.FoodNutrition, error) {
	out := make(map[string]models.FoodNutrition, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, errs := l.FoodNutritionLoader.LoadMany(ctx, ids)()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	for _, row := range rows {
		if row != nil {
			out[row.FoodId] = *row
		}
	}
	return out, nil
}
