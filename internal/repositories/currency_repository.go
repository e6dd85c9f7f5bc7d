package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/coursehub/backend/internal/models"
	"github.com/go-sql-driver/mysql"
)

// mysqlErrRowIsReferenced is the MySQL error number of a foreign key violation on delete
const mysqlErrRowIsReferenced = 1451

type currencyRepository struct {
	db *sql.DB
}

// NewCurrencyRepository creates a new currency repository
func NewCurrencyRepository(db *sql.DB) *currencyRepository {
	return &currencyRepository{db: db}
}

// GetAll retrieves every currency ordered by code
func (r *currencyRepository) GetAll(ctx context.Context) ([]models.Currency, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT code, name, symbol FROM currencies ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer rows.Close()

	currencies := []models.Currency{}
	for rows.Next() {
		var c models.Currency
		if err := rows.Scan(&c.Code, &c.Name, &c.Symbol); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		currencies = append(currencies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return currencies, nil
}

// GetByCode retrieves a currency by its ISO code
func (r *currencyRepository) GetByCode(ctx context.Context, code string) (*models.Currency, error) {
	c := &models.Currency{}
	err := r.db.QueryRowContext(ctx, "SELECT code, name, symbol FROM currencies WHERE code = ? LIMIT 1", code).
		Scan(&c.Code, &c.Name, &c.Symbol)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("currency not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get currency by code: %w", err)
	}
	return c, nil
}

// ExistsByCode reports whether a currency with the given code exists
func (r *currencyRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM currencies WHERE code = ?)", code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check currency existence: %w", err)
	}
	return exists, nil
}

// Create inserts a new currency
func (r *currencyRepository) Create(ctx context.Context, c *models.Currency) error {
	if _, err := r.db.ExecContext(ctx, "INSERT INTO currencies (code, name, symbol) VALUES (?, ?, ?)", c.Code, c.Name, c.Symbol); err != nil {
		return fmt.Errorf("failed to create currency: %w", err)
	}
	return nil
}

// Update applies a partial update to a currency
func (r *currencyRepository) Update(ctx context.Context, code string, req *models.UpdateCurrencyRequest) error {
	var setParts []string
	var args []any

	if req.Name != "" {
		setParts = append(setParts, "name = ?")
		args = append(args, req.Name)
	}
	if req.Symbol != "" {
		setParts = append(setParts, "symbol = ?")
		args = append(args, req.Symbol)
	}
	if len(setParts) == 0 {
		return nil
	}

	args = append(args, code)
	query := fmt.Sprintf("UPDATE currencies SET %s WHERE code = ?", strings.Join(setParts, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update currency: %w", err)
	}
	return requireAffected(result, "currency not found")
}

// Delete deletes a currency and its exchange rates; currencies used by courses cannot be deleted
func (r *currencyRepository) Delete(ctx context.Context, code string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM currencies WHERE code = ?", code)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrRowIsReferenced {
			return fmt.Errorf("currency is already used by courses")
		}
		return fmt.Errorf("failed to delete currency: %w", err)
	}
	return requireAffected(result, "currency not found")
}

// GetRates retrieves exchange rates, optionally only those from the given base currency
func (r *currencyRepository) GetRates(ctx context.Context, baseCode string) ([]models.ExchangeRate, error) {
	query := "SELECT base_code, quote_code, rate, updated_at FROM exchange_rates"
	var args []any
	if baseCode != "" {
		query += " WHERE base_code = ?"
		args = append(args, baseCode)
	}
	query += " ORDER BY base_code, quote_code"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchange rates: %w", err)
	}
	defer rows.Close()

	rates := []models.ExchangeRate{}
	for rows.Next() {
		var rate models.ExchangeRate
		if err := rows.Scan(&rate.BaseCode, &rate.QuoteCode, &rate.Rate, &rate.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exchange rate: %w", err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return rates, nil
}

// UpsertRate creates or replaces the exchange rate of a currency pair
func (r *currencyRepository) UpsertRate(ctx context.Context, rate *models.ExchangeRate) error {
	query := `
		INSERT INTO exchange_rates (base_code, quote_code, rate)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE rate = VALUES(rate)
	`
	if _, err := r.db.ExecContext(ctx, query, rate.BaseCode, rate.QuoteCode, rate.Rate); err != nil {
		return fmt.Errorf("failed to upsert exchange rate: %w", err)
	}
	return nil
}

// DeleteRate deletes the exchange rate of a currency pair
func (r *currencyRepository) DeleteRate(ctx context.Context, baseCode, quoteCode string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM exchange_rates WHERE base_code = ? AND quote_code = ?", baseCode, quoteCode)
	if err != nil {
		return fmt.Errorf("failed to delete exchange rate: %w", err)
	}
	return requireAffected(result, "exchange rate not found")
}
