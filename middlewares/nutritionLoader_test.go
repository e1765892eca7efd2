package middlewares

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/mealplan_backend/models"
)

type countingNutritionBatch struct {
	mu      sync.Mutex
	calls   int
	keys    [][]string
	rows    map[string]models.FoodNutrition
	failErr error
}

func (b *countingNutritionBatch) load(ctx context.Context, ids []string) []*dataloader.Result[*models.FoodNutrition] {
	b.mu.Lock()
	b.calls++
	b.keys = append(b.keys, append([]string(nil), ids...))
	b.mu.Unlock()

	if b.failErr != nil {
		return handleError[*models.FoodNutrition](len(ids), b.failErr)
	}
	var found []models.FoodNutrition
	for _, id := range ids {
		if row, ok := b.rows[id]; ok {
			found = append(found, row)
		}
	}
	return generateNutritionResults(found, ids)
}

func TestLoadFoodNutrition_BatchesAndCaches(t *testing.T) {
	batch := &countingNutritionBatch{rows: map[string]models.FoodNutrition{
		"f1": {FoodId: "f1", Calories: 100},
		"f2": {FoodId: "f2", Calories: 200},
	}}
	loaders := newLoaders(batch.load)
	ctx := WithLoaders(context.Background(), loaders)

	got, err := GetFoodNutritions(ctx, []string{"f1", "f2", "missing"})
	if err != nil {
		t.Fatalf("GetFoodNutritions: %v", err)
	}
	if len(got) != 2 || got["f1"].Calories != 100 || got["f2"].Calories != 200 {
		t.Fatalf("unexpected rows: %+v", got)
	}
	if _, ok := got["missing"]; ok {
		t.Fatalf("foods without data must be left out")
	}

	// second read of the same ids is served from the loader cache
	if _, err := GetFoodNutritions(ctx, []string{"f1", "f2"}); err != nil {
		t.Fatalf("GetFoodNutritions: %v", err)
	}
	if batch.calls != 1 {
		t.Fatalf("expected one batch call, got %d (%v)", batch.calls, batch.keys)
	}
}

func TestLoadFoodNutrition_PropagatesErrors(t *testing.T) {
	boom := errors.New("too many connections")
	loaders := newLoaders((&countingNutritionBatch{failErr: boom}).load)

	if _, err := loaders.LoadFoodNutrition(context.Background(), []string{"f1"}); !errors.Is(err, boom) {
		t.Fatalf("expected batch error, got %v", err)
	}
}

func TestFor_WithoutLoaders(t *testing.T) {
	if For(context.Background()) != nil {
		t.Fatalf("expected nil loaders on a bare context")
	}
}

func TestGetFoodNutritions_WithoutLoaders(t *testing.T) {
	got, err := GetFoodNutritions(context.Background(), []string{"f1"})
	if !errors.Is(err, ErrNoLoaders) {
		t.Fatalf("expected ErrNoLoaders, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected no rows, got %+v", got)
	}
}

func TestGenerateNutritionResults_KeepsKeyOrder(t *testing.T) {
	results := generateNutritionResults([]models.FoodNutrition{{FoodId: "b"}, {FoodId: "a"}}, []string{"a", "x", "b"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Data == nil || results[0].Data.FoodId != "a" || results[1].Data != nil || results[2].Data.FoodId != "b" {
		t.Fatalf("unexpected result order")
	}
}
