package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type IncomeStatus string

const (
	IncomeReceived IncomeStatus = "received"
	IncomePending  IncomeStatus = "pending"
	IncomePlanned  IncomeStatus = "planned"
)

type ExpenseStatus string

const (
	ExpensePaid    ExpenseStatus = "paid"
	ExpensePending ExpenseStatus = "pending"
	ExpensePlanned ExpenseStatus = "planned"
)

// MonthlyBudget groups the income and expense lines of one month.
// The totals are rollups of the child rows and are rewritten on every child mutation.
type MonthlyBudget struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Month        int             `gorm:"column:month;not null;uniqueIndex:idx_budget_month_year" json:"month"`
	Year         int             `gorm:"column:year;not null;uniqueIndex:idx_budget_month_year" json:"year"`
	MonthName    string          `gorm:"column:month_name" json:"month_name"`
	TotalIncome  decimal.Decimal `gorm:"column:total_income;type:numeric(14,2);not null;default:0" json:"total_income"`
	TotalExpense decimal.Decimal `gorm:"column:total_expense;type:numeric(14,2);not null;default:0" json:"total_expense"`
	Balance      decimal.Decimal `gorm:"column:balance;type:numeric(14,2);not null;default:0" json:"balance"`
	IncomeItems  []IncomeItem    `gorm:"foreignKey:MonthlyBudgetID" json:"income_items,omitempty"`
	ExpenseItems []ExpenseItem   `gorm:"foreignKey:MonthlyBudgetID" json:"expense_items,omitempty"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (MonthlyBudget) TableName() string {
	return "monthly_budgets"
}

func (b *MonthlyBudget) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type IncomeItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MonthlyBudgetID uuid.UUID       `gorm:"column:monthly_budget_id;type:uuid;not null;index" json:"monthly_budget_id"`
	Source          string          `gorm:"column:source;not null" json:"source"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null" json:"amount"`
	Status          IncomeStatus    `gorm:"column:status;not null" json:"status"`
	DateReceived    *time.Time      `gorm:"column:date_received" json:"date_received,omitempty"`
	Notes           *string         `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (IncomeItem) TableName() string {
	return "income_items"
}

func (i *IncomeItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type ExpenseItem struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MonthlyBudgetID uuid.UUID           `gorm:"column:monthly_budget_id;type:uuid;not null;index" json:"monthly_budget_id"`
	ItemName        string              `gorm:"column:item_name;not null" json:"item_name"`
	Category        string              `gorm:"column:category" json:"category"`
	EstimatedCost   decimal.Decimal     `gorm:"column:estimated_cost;type:numeric(14,2);not null" json:"estimated_cost"`
	ActualCost      decimal.NullDecimal `gorm:"column:actual_cost;type:numeric(14,2)" json:"actual_cost"`
	Status          ExpenseStatus       `gorm:"column:status;not null" json:"status"`
	Vendor          *string             `gorm:"column:vendor" json:"vendor,omitempty"`
	Notes           *string             `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ExpenseItem) TableName() string {
	return "expense_items"
}

func (e *ExpenseItem) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Cost is the amount an expense contributes to the month: the actual cost
// once known, the estimate before that.
func (e *ExpenseItem) Cost() decimal.Decimal {
	if e.ActualCost.Valid {
		return e.ActualCost.Decimal
	}
	return e.EstimatedCost
}
