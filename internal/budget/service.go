// Package budget implements the monthly wedding budget planner. Month totals
// are rollups recomputed from the live income and expense rows after every change.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
	"wedding-invitation/internal/validation"
)

var ErrNegativeAmount = errors.New("amount must not be negative")

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// MonthName returns the Indonesian name of month 1..12
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

type CreateMonthRequest struct {
	Month     int    `json:"month" validate:"required,min=1,max=12"`
	Year      int    `json:"year" validate:"required,min=2000,max=2100"`
	MonthName string `json:"month_name" validate:"max=50"`
}

type IncomeRequest struct {
	Source       string              `json:"source" validate:"required,max=200"`
	Amount       decimal.Decimal     `json:"amount"`
	Status       models.IncomeStatus `json:"status" validate:"required,oneof=received pending planned"`
	DateReceived *time.Time          `json:"date_received"`
	Notes        *string             `json:"notes" validate:"omitempty,max=2000"`
}

type ExpenseRequest struct {
	ItemName      string               `json:"item_name" validate:"required,max=200"`
	Category      string               `json:"category" validate:"max=100"`
	EstimatedCost decimal.Decimal      `json:"estimated_cost"`
	ActualCost    decimal.NullDecimal  `json:"actual_cost"`
	Status        models.ExpenseStatus `json:"status" validate:"required,oneof=paid pending planned"`
	Vendor        *string              `json:"vendor" validate:"omitempty,max=200"`
	Notes         *string              `json:"notes" validate:"omitempty,max=2000"`
}

// MonthWithCounts is a month row with the number of lines under it
type MonthWithCounts struct {
	models.MonthlyBudget
	IncomeCount  int `json:"income_count"`
	ExpenseCount int `json:"expense_count"`
}

// Summary is the grand total over every month
type Summary struct {
	Months       int             `json:"months"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
}

type Service struct {
	db       *gorm.DB
	validate *validator.Validate
	log      zerolog.Logger
}

func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{
		db:       db,
		validate: validation.New(),
		log:      log.With().Str("component", "budget").Logger(),
	}
}

// CreateMonthlyBudget opens a month. A second month with the same month and
// year fails with storage.ErrDuplicate.
func (s *Service) CreateMonthlyBudget(ctx context.Context, req CreateMonthRequest) (*models.MonthlyBudget, error) {
	req.MonthName = strings.TrimSpace(req.MonthName)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.MonthName == "" {
		req.MonthName = MonthName(req.Month)
	}

	month := models.MonthlyBudget{
		Month:        req.Month,
		Year:         req.Year,
		MonthName:    req.MonthName,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		Balance:      decimal.Zero,
	}
	if err := s.db.WithContext(ctx).Create(&month).Error; err != nil {
		return nil, fmt.Errorf("failed to create monthly budget: %w", storage.Classify(err))
	}
	s.log.Info().Int("month", month.Month).Int("year", month.Year).Msg("monthly budget created")
	return &month, nil
}

// AddIncomeItem adds an income line and refreshes the month totals
func (s *Service) AddIncomeItem(ctx context.Context, monthID uuid.UUID, req IncomeRequest) (*models.IncomeItem, error) {
	req.Source = strings.TrimSpace(req.Source)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Amount.IsNegative() {
		return nil, ErrNegativeAmount
	}

	item := models.IncomeItem{
		MonthlyBudgetID: monthID,
		Source:          req.Source,
		Amount:          req.Amount,
		Status:          req.Status,
		DateReceived:    req.DateReceived,
		Notes:           req.Notes,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureMonth(tx, monthID); err != nil {
			return err
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to add income item: %w", storage.Classify(err))
		}
		return recalculate(tx, monthID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// AddExpenseItem adds an expense line and refreshes the month totals
func (s *Service) AddExpenseItem(ctx context.Context, monthID uuid.UUID, req ExpenseRequest) (*models.ExpenseItem, error) {
	req.ItemName = strings.TrimSpace(req.ItemName)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.EstimatedCost.IsNegative() || (req.ActualCost.Valid && req.ActualCost.Decimal.IsNegative()) {
		return nil, ErrNegativeAmount
	}

	item := models.ExpenseItem{
		MonthlyBudgetID: monthID,
		ItemName:        req.ItemName,
		Category:        strings.TrimSpace(req.Category),
		EstimatedCost:   req.EstimatedCost,
		ActualCost:      req.ActualCost,
		Status:          req.Status,
		Vendor:          req.Vendor,
		Notes:           req.Notes,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureMonth(tx, monthID); err != nil {
			return err
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to add expense item: %w", storage.Classify(err))
		}
		return recalculate(tx, monthID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteIncomeItem removes an income line of the month and refreshes its totals
func (s *Service) DeleteIncomeItem(ctx context.Context, monthID, itemID uuid.UUID) error {
	return s.deleteItem(ctx, monthID, itemID, &models.IncomeItem{})
}

// DeleteExpenseItem removes an expense line of the month and refreshes its totals
func (s *Service) DeleteExpenseItem(ctx context.Context, monthID, itemID uuid.UUID) error {
	return s.deleteItem(ctx, monthID, itemID, &models.ExpenseItem{})
}

func (s *Service) deleteItem(ctx context.Context, monthID, itemID uuid.UUID, model any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND monthly_budget_id = ?", itemID, monthID).Delete(model)
		if res.Error != nil {
			return fmt.Errorf("failed to delete budget item: %w", storage.Classify(res.Error))
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("failed to delete budget item: %w", storage.ErrNotFound)
		}
		return recalculate(tx, monthID)
	})
}

// DeleteMonthlyBudget removes a month with all of its lines
func (s *Service) DeleteMonthlyBudget(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("monthly_budget_id = ?", id).Delete(&models.IncomeItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete income items: %w", storage.Classify(err))
		}
		if err := tx.Where("monthly_budget_id = ?", id).Delete(&models.ExpenseItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete expense items: %w", storage.Classify(err))
		}
		res := tx.Where("id = ?", id).Delete(&models.MonthlyBudget{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete monthly budget: %w", storage.Classify(res.Error))
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("failed to delete monthly budget: %w", storage.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("id", id.String()).Msg("monthly budget deleted")
	return nil
}

// GetAllMonthlyBudgets returns every month in calendar order with its lines
func (s *Service) GetAllMonthlyBudgets(ctx context.Context) ([]models.MonthlyBudget, error) {
	var months []models.MonthlyBudget
	err := s.db.WithContext(ctx).
		Preload("IncomeItems", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("ExpenseItems", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Order("year ASC").Order("month ASC").
		Find(&months).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly budgets: %w", storage.Classify(err))
	}
	return months, nil
}

// GetMonthlyBudgetWithCounts returns one month with its lines and their counts
func (s *Service) GetMonthlyBudgetWithCounts(ctx context.Context, id uuid.UUID) (*MonthWithCounts, error) {
	var month models.MonthlyBudget
	err := s.db.WithContext(ctx).
		Preload("IncomeItems", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("ExpenseItems", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&month, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly budget: %w", storage.Classify(err))
	}
	return &MonthWithCounts{
		MonthlyBudget: month,
		IncomeCount:   len(month.IncomeItems),
		ExpenseCount:  len(month.ExpenseItems),
	}, nil
}

// Summary adds up the rollups of every month
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var months []models.MonthlyBudget
	if err := s.db.WithContext(ctx).Find(&months).Error; err != nil {
		return Summary{}, fmt.Errorf("failed to summarize budgets: %w", storage.Classify(err))
	}
	sum := Summary{Months: len(months), TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}
	for _, m := range months {
		sum.TotalIncome = sum.TotalIncome.Add(m.TotalIncome)
		sum.TotalExpense = sum.TotalExpense.Add(m.TotalExpense)
	}
	sum.Balance = sum.TotalIncome.Sub(sum.TotalExpense)
	return sum, nil
}

func ensureMonth(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.MonthlyBudget{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up monthly budget: %w", storage.Classify(err))
	}
	if count == 0 {
		return fmt.Errorf("failed to look up monthly budget: %w", storage.ErrNotFound)
	}
	return nil
}

// recalculate rewrites the month totals from the rows currently under it
func recalculate(tx *gorm.DB, id uuid.UUID) error {
	var incomes []models.IncomeItem
	if err := tx.Where("monthly_budget_id = ?", id).Find(&incomes).Error; err != nil {
		return fmt.Errorf("failed to load income items: %w", storage.Classify(err))
	}
	var expenses []models.ExpenseItem
	if err := tx.Where("monthly_budget_id = ?", id).Find(&expenses).Error; err != nil {
		return fmt.Errorf("failed to load expense items: %w", storage.Classify(err))
	}

	income := decimal.Zero
	for _, it := range incomes {
		income = income.Add(it.Amount)
	}
	expense := decimal.Zero
	for i := range expenses {
		expense = expense.Add(expenses[i].Cost())
	}

	err := tx.Model(&models.MonthlyBudget{}).Where("id = ?", id).Updates(map[string]any{
		"total_income":  income,
		"total_expense": expense,
		"balance":       income.Sub(expense),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update budget totals: %w", storage.Classify(err))
	}
	return nil
}
