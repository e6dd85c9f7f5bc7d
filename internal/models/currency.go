package models

import "time"

// Currency represents a currency supported for course pricing
type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// ExchangeRate represents the conversion rate from a base currency to a quote currency
type ExchangeRate struct {
	BaseCode  string    `json:"baseCode"`
	QuoteCode string    `json:"quoteCode"`
	Rate      float64   `json:"rate"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateCurrencyRequest represents a request to create a currency
type CreateCurrencyRequest struct {
	Code   string `json:"code" example:"EUR"`
	Name   string `json:"name" example:"Euro"`
	Symbol string `json:"symbol" example:"€"`
}

// UpdateCurrencyRequest represents a request to update a currency (partial update)
type UpdateCurrencyRequest struct {
	Name   string `json:"name,omitempty"`
	Symbol string `json:"symbol,omitempty"`
}

// UpsertExchangeRateRequest represents a request to set an exchange rate
type UpsertExchangeRateRequest struct {
	BaseCode  string  `json:"baseCode" example:"USD"`
	QuoteCode string  `json:"quoteCode" example:"EUR"`
	Rate      float64 `json:"rate" example:"0.92"`
}
