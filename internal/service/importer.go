package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"kitchen-service/pkg/logger"
)

// ImportError reports why one row of a bulk import was rejected
type ImportError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// ImportResult summarises a bulk import. Created keeps input order.
type ImportResult struct {
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Errors    []ImportError    `json:"errors"`
	Created   []IngredientView `json:"created"`
}

// Importer creates many ingredients at once. Rows are independent: a
// failed row does not undo the others.
type Importer struct {
	ledger  *Ledger
	workers int
}

// NewImporter creates an importer running at most workers creations at a time
func NewImporter(ledger *Ledger, workers int) *Importer {
	if workers < 1 {
		workers = 1
	}
	return &Importer{ledger: ledger, workers: workers}
}

type importOutcome struct {
	view *IngredientView
	err  error
}

// ImportIngredients runs CreateIngredient for every spec
func (im *Importer) ImportIngredients(ctx context.Context, tenantID uint, specs []IngredientSpec) (*ImportResult, error) {
	if len(specs) == 0 {
		return nil, invalid("ingredients", "at least one ingredient is required")
	}
	log := logger.FromContext(ctx)
	log.Info("Importing ingredients", zap.Uint("tenant_id", tenantID), zap.Int("rows", len(specs)))

	outcomes := make([]importOutcome, len(specs))
	jobs := make(chan int, len(specs))

	workers := im.workers
	if workers > len(specs) {
		workers = len(specs)
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				view, err := im.ledger.CreateIngredient(ctx, tenantID, specs[i])
				outcomes[i] = importOutcome{view: view, err: err}
			}
		}()
	}

	for i := range specs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	result := &ImportResult{
		Total:   len(specs),
		Errors:  []ImportError{},
		Created: []IngredientView{},
	}
	for i, o := range outcomes {
		if o.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportError{Index: i, Error: o.err.Error()})
			continue
		}
		result.Succeeded++
		result.Created = append(result.Created, *o.view)
	}

	log.Info("Import finished",
		zap.Uint("tenant_id", tenantID),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result, nil
}
