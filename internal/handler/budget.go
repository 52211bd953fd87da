package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/budget"
)

type BudgetHandler struct {
	budgets *budget.Service
	log     zerolog.Logger
}

func NewBudgetHandler(budgets *budget.Service, log zerolog.Logger) *BudgetHandler {
	return &BudgetHandler{budgets: budgets, log: log.With().Str("component", "http").Logger()}
}

func (h *BudgetHandler) List(c *fiber.Ctx) error {
	months, err := h.budgets.GetAllMonthlyBudgets(c.UserContext())
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonOK(c, "", months)
}

func (h *BudgetHandler) Summary(c *fiber.Ctx) error {
	sum, err := h.budgets.Summary(c.UserContext())
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonOK(c, "", sum)
}

func (h *BudgetHandler) Create(c *fiber.Ctx) error {
	var req budget.CreateMonthRequest
	if err := c.BodyParser(&req); err != nil {
		return Fail(c, h.log, badRequest("invalid request body"))
	}
	month, err := h.budgets.CreateMonthlyBudget(c.UserContext(), req)
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonCreated(c, "monthly budget created", month)
}

func (h *BudgetHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Fail(c, h.log, err)
	}
	month, err := h.budgets.GetMonthlyBudgetWithCounts(c.UserContext(), id)
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonOK(c, "", month)
}

func (h *BudgetHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Fail(c, h.log, err)
	}
	if err := h.budgets.DeleteMonthlyBudget(c.UserContext(), id); err != nil {
		return Fail(c, h.log, err)
	}
	return JsonDeleted(c, "monthly budget deleted", fiber.Map{"id": id})
}

func (h *BudgetHandler) AddIncome(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Fail(c, h.log, err)
	}
	var req budget.IncomeRequest
	if err := c.BodyParser(&req); err != nil {
		return Fail(c, h.log, badRequest("invalid request body"))
	}
	item, err := h.budgets.AddIncomeItem(c.UserContext(), id, req)
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonCreated(c, "income item added", item)
}

func (h *BudgetHandler) DeleteIncome(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Fail(c, h.log, err)
	}
	itemID, err := parseID(c, "itemId")
	if err != nil {
		return Fail(c, h.log, err)
	}
	if err := h.budgets.DeleteIncomeItem(c.UserContext(), id, itemID); err != nil {
		return Fail(c, h.log, err)
	}
	return JsonDeleted(c, "income item deleted", fiber.Map{"id": itemID})
}

func (h *BudgetHandler) AddExpense(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Fail(c, h.log, err)
	}
	var req budget.ExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return Fail(c, h.log, badRequest("invalid request body"))
	}
	item, err := h.budgets.AddExpenseItem(c.UserContext(), id, req)
	if err != nil {
		return Fail(c, h.log, err)
	}
	return JsonCreated(c, "expense item added", item)
}

func (h *BudgetHandler) DeleteExpense(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Fail(c, h.log, err)
	}
	itemID, err := parseID(c, "itemId")
	if err != nil {
		return Fail(c, h.log, err)
	}
	if err := h.budgets.DeleteExpenseItem(c.UserContext(), id, itemID); err != nil {
		return Fail(c, h.log, err)
	}
	return JsonDeleted(c, "expense item deleted", fiber.Map{"id": itemID})
}
