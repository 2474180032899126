package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchen-service/internal/model"
	"kitchen-service/internal/service"
	"kitchen-service/internal/testutil"
)

func TestIngredientEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/ingredients",
		`{"name":"flour","unit":"g","quantity":12000,"package_size":5000,"package_label":"bag","package_price_amount":"25.00"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created service.IngredientView
	decode(t, rec, &created)
	assert.Equal(t, int64(2500), created.PackagePrice)
	assert.Equal(t, int64(10), created.MinStockLevel)
	assert.Equal(t, "12.00kg", created.DisplayQuantity)
	assert.Equal(t, "2 bags sealed + 2.00kg opened", created.PackageStatus.Description)
	require.NotNil(t, created.CostPerUnit)
	assert.Equal(t, "0.5", created.CostPerUnit.String())

	base := fmt.Sprintf("/api/ingredients/%d", created.ID)

	t.Run("validation", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/ingredients", `{"name":"x","unit":"g","package_size":0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "package_size")

		rec = s.do(t, http.MethodPost, "/api/ingredients", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("restock one package", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, base+"/restock", `{"packages":1}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var view service.IngredientView
		decode(t, rec, &view)
		assert.Equal(t, int64(17000), view.Quantity)
	})

	t.Run("update ignores quantity", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, base, `{"name":"wheat flour","quantity":1}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var view service.IngredientView
		decode(t, rec, &view)
		assert.Equal(t, "wheat flour", view.Name)
		assert.Equal(t, int64(17000), view.Quantity)

		rec = s.do(t, http.MethodPut, base, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("movements", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, base+"/movements?limit=5", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var movements []model.StockMovement
		decode(t, rec, &movements)
		require.Len(t, movements, 1)
		assert.Equal(t, int64(5000), movements[0].Delta)

		rec = s.do(t, http.MethodGet, base+"/movements?limit=-1", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get, list and low stock", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, base, "")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, http.MethodGet, "/api/ingredients/abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(t, http.MethodPost, "/api/ingredients", `{"name":"basil","unit":"g","quantity":10}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = s.do(t, http.MethodGet, "/api/ingredients", "")
		var all []service.IngredientView
		decode(t, rec, &all)
		require.Len(t, all, 2)
		assert.Equal(t, "basil", all[0].Name)

		rec = s.do(t, http.MethodGet, "/api/ingredients/low-stock", "")
		var low []service.IngredientView
		decode(t, rec, &low)
		require.Len(t, low, 1)
		assert.True(t, low[0].LowStock)
	})

	t.Run("delete", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, base, "")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, http.MethodGet, base, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = s.do(t, http.MethodDelete, base, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestImportEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/ingredients/import", `{"ingredients":[
		{"name":"flour","unit":"g","quantity":1000},
		{"name":"","unit":"g"},
		{"name":"salt","unit":"g","quantity":50}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result service.ImportResult
	decode(t, rec, &result)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Index)

	rec = s.do(t, http.MethodPost, "/api/ingredients/import", `{"ingredients":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantIsolation(t *testing.T) {
	s := newTestServer(t)
	other := testutil.SeedPizza(t, s.db, testTenantID+1)

	rec := s.do(t, http.MethodGet, fmt.Sprintf("/api/ingredients/%d", other.Flour.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/products", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}
