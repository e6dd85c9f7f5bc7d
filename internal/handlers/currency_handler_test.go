package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/coursehub/backend/internal/auth"
	"github.com/coursehub/backend/internal/models"
	"github.com/coursehub/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCurrencyHandler_Currencies(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		err        error
		wantStatus int
		check      func(t *testing.T, svc *mockCurrencyService)
	}{
		{
			name:       "list",
			method:     http.MethodGet,
			target:     "/admin/currencies",
			wantStatus: http.StatusOK,
		},
		{
			name:       "create",
			method:     http.MethodPost,
			target:     "/admin/currencies",
			body:       `{"code":"EUR","name":"Euro","symbol":"€"}`,
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, svc *mockCurrencyService) {
				require.NotNil(t, svc.createReq)
				assert.Equal(t, "EUR", svc.createReq.Code)
			},
		},
		{
			name:       "create invalid code",
			method:     http.MethodPost,
			target:     "/admin/currencies",
			body:       `{"code":"EU","name":"Euro","symbol":"€"}`,
			err:        &services.ValidationError{Field: "code", Message: "'EU' is not an ISO 4217 currency code"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "update",
			method:     http.MethodPatch,
			target:     "/admin/currencies/EUR",
			body:       `{"symbol":"EUR"}`,
			wantStatus: http.StatusNoContent,
			check: func(t *testing.T, svc *mockCurrencyService) {
				assert.Equal(t, "EUR", svc.code)
			},
		},
		{
			name:       "delete in use",
			method:     http.MethodDelete,
			target:     "/admin/currencies/USD",
			err:        errors.New("currency 'USD' is already used by courses"),
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCurrencyService{
				currencies: []models.Currency{{Code: "USD", Name: "US Dollar", Symbol: "$"}},
				currency:   &models.Currency{Code: "EUR", Name: "Euro", Symbol: "€"},
				err:        tt.err,
			}
			h := NewCurrencyHandler(svc, logger)

			w := serve(t, h, tt.method, tt.target, tt.body, 1, auth.RoleAdmin)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.check != nil {
				tt.check(t, svc)
			}
		})
	}
}

func TestCurrencyHandler_ExchangeRates(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("list by base", func(t *testing.T) {
		svc := &mockCurrencyService{rates: []models.ExchangeRate{{BaseCode: "USD", QuoteCode: "EUR", Rate: 0.92}}}
		h := NewCurrencyHandler(svc, logger)

		w := serve(t, h, http.MethodGet, "/admin/exchange-rates?base=USD", "", 1, auth.RoleAdmin)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "USD", svc.base)
		var rates []models.ExchangeRate
		require.NoError(t, json.NewDecoder(w.Body).Decode(&rates))
		assert.Len(t, rates, 1)
	})

	t.Run("upsert", func(t *testing.T) {
		svc := &mockCurrencyService{rate: &models.ExchangeRate{BaseCode: "USD", QuoteCode: "EUR", Rate: 0.92}}
		h := NewCurrencyHandler(svc, logger)

		w := serve(t, h, http.MethodPut, "/admin/exchange-rates", `{"baseCode":"USD","quoteCode":"EUR","rate":0.92}`, 1, auth.RoleAdmin)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, svc.rateReq)
		assert.Equal(t, 0.92, svc.rateReq.Rate)
	})

	t.Run("upsert non-positive rate", func(t *testing.T) {
		svc := &mockCurrencyService{err: &services.ValidationError{Field: "rate", Message: "rate must be a positive number"}}
		h := NewCurrencyHandler(svc, logger)

		w := serve(t, h, http.MethodPut, "/admin/exchange-rates", `{"baseCode":"USD","quoteCode":"EUR","rate":0}`, 1, auth.RoleAdmin)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		svc := &mockCurrencyService{}
		h := NewCurrencyHandler(svc, logger)

		w := serve(t, h, http.MethodDelete, "/admin/exchange-rates/USD/EUR", "", 1, auth.RoleAdmin)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "USD", svc.base)
		assert.Equal(t, "EUR", svc.quote)
	})
}
