package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CurrencyService is the interface that wraps methods for currency administration
type CurrencyService interface {
	// GetCurrencies retrieves every supported currency
	GetCurrencies(ctx context.Context) ([]models.Currency, error)
	// CreateCurrency adds a supported currency
	//
	// "ctx" is the context for the request.
	// "req" is the request to create a currency.
	//
	// Returns the created currency and an error if any.
	CreateCurrency(ctx context.Context, req *models.CreateCurrencyRequest) (*models.Currency, error)
	// UpdateCurrency changes the name or symbol of a currency
	UpdateCurrency(ctx context.Context, code string, req *models.UpdateCurrencyRequest) error
	// DeleteCurrency removes a currency that no course is priced in
	DeleteCurrency(ctx context.Context, code string) error
	// GetRates retrieves exchange rates, optionally only from one base currency
	//
	// "ctx" is the context for the request.
	// "baseCode" is the ISO code of the base currency (empty for every rate).
	//
	// Returns a list of exchange rates and an error if any.
	GetRates(ctx context.Context, baseCode string) ([]models.ExchangeRate, error)
	// UpsertRate sets the exchange rate between two supported currencies
	UpsertRate(ctx context.Context, req *models.UpsertExchangeRateRequest) (*models.ExchangeRate, error)
	// DeleteRate removes the exchange rate of a currency pair
	DeleteRate(ctx context.Context, baseCode, quoteCode string) error
}

// CurrencyHandler handles HTTP requests for currencies and exchange rates
type CurrencyHandler struct {
	BaseHandler
	service CurrencyService
}

// NewCurrencyHandler creates a new currency handler
func NewCurrencyHandler(svc CurrencyService, logger *zap.Logger) *CurrencyHandler {
	return &CurrencyHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all currency handler routes
func (h *CurrencyHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/currencies", func(r chi.Router) {
		r.Get("/", h.GetCurrencies)
		r.Post("/", h.CreateCurrency)
		r.Patch("/{code}", h.UpdateCurrency)
		r.Delete("/{code}", h.DeleteCurrency)
	})
	r.Route("/admin/exchange-rates", func(r chi.Router) {
		r.Get("/", h.GetRates)
		r.Put("/", h.UpsertRate)
		r.Delete("/{base}/{quote}", h.DeleteRate)
	})
}

// GetCurrencies handles GET /admin/currencies
// @Summary Get currencies
// @Tags admin
// @Produce json
// @Success 200 {array} models.Currency
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/currencies [get]
func (h *CurrencyHandler) GetCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.service.GetCurrencies(r.Context())
	if err != nil {
		h.RespondServiceError(w, err, "failed to get currencies")
		return
	}

	h.RespondJSON(w, http.StatusOK, currencies)
}

// CreateCurrency handles POST /admin/currencies
// @Summary Create a currency
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.CreateCurrencyRequest true "Currency"
// @Success 201 {object} models.Currency
// @Failure 400 {object} map[string]string "Invalid field"
// @Failure 409 {object} map[string]string "Currency already exists"
// @Router /admin/currencies [post]
func (h *CurrencyHandler) CreateCurrency(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	currency, err := h.service.CreateCurrency(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, err, "failed to create currency")
		return
	}

	h.RespondJSON(w, http.StatusCreated, currency)
}

// UpdateCurrency handles PATCH /admin/currencies/{code}
// @Summary Update a currency
// @Tags admin
// @Accept json
// @Param code path string true "ISO 4217 code"
// @Param request body models.UpdateCurrencyRequest true "Currency update"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid field"
// @Failure 404 {object} map[string]string "Currency not found"
// @Router /admin/currencies/{code} [patch]
func (h *CurrencyHandler) UpdateCurrency(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.UpdateCurrency(r.Context(), chi.URLParam(r, "code"), &req); err != nil {
		h.RespondServiceError(w, err, "failed to update currency")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCurrency handles DELETE /admin/currencies/{code}
// @Summary Delete a currency
// @Tags admin
// @Param code path string true "ISO 4217 code"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Currency not found"
// @Failure 409 {object} map[string]string "Currency is used by courses"
// @Router /admin/currencies/{code} [delete]
func (h *CurrencyHandler) DeleteCurrency(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCurrency(r.Context(), chi.URLParam(r, "code")); err != nil {
		h.RespondServiceError(w, err, "failed to delete currency")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetRates handles GET /admin/exchange-rates
// @Summary Get exchange rates
// @Tags admin
// @Produce json
// @Param base query string false "Base currency ISO code"
// @Success 200 {array} models.ExchangeRate
// @Failure 400 {object} map[string]string "Invalid base currency"
// @Router /admin/exchange-rates [get]
func (h *CurrencyHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.service.GetRates(r.Context(), r.URL.Query().Get("base"))
	if err != nil {
		h.RespondServiceError(w, err, "failed to get exchange rates")
		return
	}

	h.RespondJSON(w, http.StatusOK, rates)
}

// UpsertRate handles PUT /admin/exchange-rates
// @Summary Set an exchange rate
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.UpsertExchangeRateRequest true "Exchange rate"
// @Success 200 {object} models.ExchangeRate
// @Failure 400 {object} map[string]string "Invalid field"
// @Failure 404 {object} map[string]string "Currency not found"
// @Router /admin/exchange-rates [put]
func (h *CurrencyHandler) UpsertRate(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertExchangeRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rate, err := h.service.UpsertRate(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, err, "failed to set exchange rate")
		return
	}

	h.RespondJSON(w, http.StatusOK, rate)
}

// DeleteRate handles DELETE /admin/exchange-rates/{base}/{quote}
// @Summary Delete an exchange rate
// @Tags admin
// @Param base path string true "Base currency ISO code"
// @Param quote path string true "Quote currency ISO code"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Exchange rate not found"
// @Router /admin/exchange-rates/{base}/{quote} [delete]
func (h *CurrencyHandler) DeleteRate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRate(r.Context(), chi.URLParam(r, "base"), chi.URLParam(r, "quote")); err != nil {
		h.RespondServiceError(w, err, "failed to delete exchange rate")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
