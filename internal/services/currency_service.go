package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/coursehub/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

// ValidationError reports an invalid field of a request
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CurrencyRepository defines methods for currency and exchange rate data access
type CurrencyRepository interface {
	// GetAll retrieves every currency
	GetAll(ctx context.Context) ([]models.Currency, error)
	// GetByCode retrieves a currency by its ISO code
	GetByCode(ctx context.Context, code string) (*models.Currency, error)
	// ExistsByCode checks if a currency with the given ISO code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// Create stores a new currency
	Create(ctx context.Context, c *models.Currency) error
	// Update partially updates a currency
	Update(ctx context.Context, code string, req *models.UpdateCurrencyRequest) error
	// Delete deletes a currency that no course uses
	Delete(ctx context.Context, code string) error
	// GetRates retrieves exchange rates, optionally only from the given base currency (empty for all)
	GetRates(ctx context.Context, baseCode string) ([]models.ExchangeRate, error)
	// UpsertRate creates or replaces the exchange rate of a currency pair
	UpsertRate(ctx context.Context, rate *models.ExchangeRate) error
	// DeleteRate deletes the exchange rate of a currency pair
	DeleteRate(ctx context.Context, baseCode, quoteCode string) error
}

type currencyService struct {
	repo   CurrencyRepository
	logger *zap.Logger
}

// NewCurrencyService creates a new currency service
func NewCurrencyService(repo CurrencyRepository, logger *zap.Logger) *currencyService {
	return &currencyService{
		repo:   repo,
		logger: logger,
	}
}

// parseCurrencyCode normalizes an ISO 4217 code and rejects unknown ones
func parseCurrencyCode(field, code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", &ValidationError{Field: field, Message: "currency code is required"}
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", &ValidationError{Field: field, Message: fmt.Sprintf("'%s' is not an ISO 4217 currency code", code)}
	}
	return unit.String(), nil
}

// GetCurrencies retrieves every supported currency
func (s *currencyService) GetCurrencies(ctx context.Context) ([]models.Currency, error) {
	return s.repo.GetAll(ctx)
}

// CreateCurrency adds a supported currency
func (s *currencyService) CreateCurrency(ctx context.Context, req *models.CreateCurrencyRequest) (*models.Currency, error) {
	code, err := parseCurrencyCode("code", req.Code)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}
	symbol := strings.TrimSpace(req.Symbol)
	if symbol == "" {
		return nil, &ValidationError{Field: "symbol", Message: "symbol is required"}
	}

	exists, err := s.repo.ExistsByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("currency '%s' already exists", code)
	}

	c := &models.Currency{Code: code, Name: name, Symbol: symbol}
	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("failed to create currency", zap.Error(err), zap.String("code", code))
		return nil, err
	}
	return c, nil
}

// UpdateCurrency changes the name or symbol of a currency
func (s *currencyService) UpdateCurrency(ctx context.Context, code string, req *models.UpdateCurrencyRequest) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	req.Name = strings.TrimSpace(req.Name)
	req.Symbol = strings.TrimSpace(req.Symbol)
	if req.Name == "" && req.Symbol == "" {
		return &ValidationError{Field: "name", Message: "name or symbol is required"}
	}
	return s.repo.Update(ctx, code, req)
}

// DeleteCurrency removes a currency that no course is priced in
func (s *currencyService) DeleteCurrency(ctx context.Context, code string) error {
	return s.repo.Delete(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// GetRates retrieves exchange rates, optionally only from one base currency
func (s *currencyService) GetRates(ctx context.Context, baseCode string) ([]models.ExchangeRate, error) {
	if baseCode == "" {
		return s.repo.GetRates(ctx, "")
	}
	code, err := parseCurrencyCode("baseCode", baseCode)
	if err != nil {
		return nil, err
	}
	return s.repo.GetRates(ctx, code)
}

// UpsertRate sets the exchange rate between two supported currencies
func (s *currencyService) UpsertRate(ctx context.Context, req *models.UpsertExchangeRateRequest) (*models.ExchangeRate, error) {
	base, err := parseCurrencyCode("baseCode", req.BaseCode)
	if err != nil {
		return nil, err
	}
	quote, err := parseCurrencyCode("quoteCode", req.QuoteCode)
	if err != nil {
		return nil, err
	}
	if base == quote {
		return nil, &ValidationError{Field: "quoteCode", Message: "quote currency must differ from base currency"}
	}
	if math.IsNaN(req.Rate) || math.IsInf(req.Rate, 0) || req.Rate <= 0 {
		return nil, &ValidationError{Field: "rate", Message: "rate must be a positive number"}
	}

	// Both currencies must be supported
	errorChan := make(chan error, 2)
	for _, code := range []string{base, quote} {
		go func() {
			exists, err := s.repo.ExistsByCode(ctx, code)
			if err != nil {
				errorChan <- err
				return
			}
			if !exists {
				errorChan <- fmt.Errorf("currency '%s' not found", code)
				return
			}
			errorChan <- nil
		}()
	}
	var firstErr error
	for range 2 {
		if err := <-errorChan; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	rate := &models.ExchangeRate{BaseCode: base, QuoteCode: quote, Rate: req.Rate}
	if err := s.repo.UpsertRate(ctx, rate); err != nil {
		s.logger.Error("failed to upsert exchange rate", zap.Error(err), zap.String("base", base), zap.String("quote", quote))
		return nil, err
	}
	return rate, nil
}

// DeleteRate removes the exchange rate of a currency pair
func (s *currencyService) DeleteRate(ctx context.Context, baseCode, quoteCode string) error {
	return s.repo.DeleteRate(ctx, strings.ToUpper(strings.TrimSpace(baseCode)), strings.ToUpper(strings.TrimSpace(quoteCode)))
}
