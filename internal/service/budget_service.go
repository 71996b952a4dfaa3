package service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// BudgetService manages spending limits and reports how much of each limit
// the caller's personal share has used.
type BudgetService struct {
	store  storage.Store
	logger *slog.Logger
}

func NewBudgetService(store storage.Store, logger *slog.Logger) *BudgetService {
	return &BudgetService{store: store, logger: logger}
}

func NewBudgetServiceHandler(svc *BudgetService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, api.BudgetCreateProcedure, svc.CreateBudget, opts)
	route(mux, api.BudgetListProcedure, svc.ListBudgets, opts)
	route(mux, api.BudgetUpdateProcedure, svc.UpdateBudget, opts)
	route(mux, api.BudgetDeleteProcedure, svc.DeleteBudget, opts)
	route(mux, api.BudgetGetUsageProcedure, svc.GetBudgetUsage, opts)
	return "/" + api.BudgetServiceName + "/", mux
}

func (s *BudgetService) CreateBudget(ctx context.Context, req *connect.Request[api.SaveBudgetRequest]) (*connect.Response[api.BudgetResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateBudget request received", "category_id", req.Msg.CategoryID, "amount", req.Msg.Amount.String())

	budget, err := budgetFromRequest(req.Msg)
	if err != nil {
		return nil, err
	}
	budget.ID = ""
	budget.UserID = userID
	if err := s.store.CreateBudget(ctx, budget); err != nil {
		s.logger.Error("CreateBudget failed", "error", err)
		return nil, toConnectError(err)
	}
	s.logger.Info("Budget created", "budget_id", budget.ID)
	return connect.NewResponse(&api.BudgetResponse{Budget: toAPIBudget(budget)}), nil
}

func (s *BudgetService) ListBudgets(ctx context.Context, _ *connect.Request[api.Empty]) (*connect.Response[api.ListBudgetsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	out := make([]api.Budget, len(budgets))
	for i := range budgets {
		out[i] = toAPIBudget(&budgets[i])
	}
	return connect.NewResponse(&api.ListBudgetsResponse{Budgets: out}), nil
}

// UpdateBudget replaces every editable field of an owned budget.
func (s *BudgetService) UpdateBudget(ctx context.Context, req *connect.Request[api.SaveBudgetRequest]) (*connect.Response[api.BudgetResponse], error) {
	existing, err := s.owned(ctx, req.Msg.ID)
	if err != nil {
		return nil, err
	}
	budget, err := budgetFromRequest(req.Msg)
	if err != nil {
		return nil, err
	}
	budget.ID = existing.ID
	budget.UserID = existing.UserID
	budget.CreatedAt = existing.CreatedAt
	if err := s.store.UpdateBudget(ctx, budget); err != nil {
		s.logger.Error("UpdateBudget failed", "budget_id", budget.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.logger.Info("Budget updated", "budget_id", budget.ID)
	return connect.NewResponse(&api.BudgetResponse{Budget: toAPIBudget(budget)}), nil
}

func (s *BudgetService) DeleteBudget(ctx context.Context, req *connect.Request[api.IDRequest]) (*connect.Response[api.Empty], error) {
	budget, err := s.owned(ctx, req.Msg.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteBudget(ctx, budget.ID); err != nil {
		s.logger.Warn("DeleteBudget failed", "budget_id", budget.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.logger.Info("Budget deleted", "budget_id", budget.ID)
	return connect.NewResponse(&api.Empty{}), nil
}

// GetBudgetUsage reports, for each of the caller's budgets, the personal
// share spent in the period containing the requested day. Shares are
// computed the same way GetSpendingSummary computes them, so a budget sees
// what the caller owes rather than what they fronted. Settlements are not
// spending.
func (s *BudgetService) GetBudgetUsage(ctx context.Context, req *connect.Request[api.BudgetUsageRequest]) (*connect.Response[api.BudgetUsageResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Msg.Date)
	if err != nil {
		return nil, err
	}
	day, _ := time.Parse(models.DateLayout, date)
	s.logger.Info("GetBudgetUsage request received", "date", date)

	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	resp := &api.BudgetUsageResponse{Usage: make([]api.BudgetUsage, 0, len(budgets))}
	if len(budgets) == 0 {
		return connect.NewResponse(resp), nil
	}

	type window struct{ from, to string }
	windows := make([]window, len(budgets))
	var earliest, latest string
	for i := range budgets {
		from, to, err := budgets[i].Window(day)
		if err != nil {
			s.logger.Warn("Skipping budget with unknown period", "budget_id", budgets[i].ID, "period", budgets[i].Period)
			continue
		}
		windows[i] = window{from: from, to: to}
		if earliest == "" || from < earliest {
			earliest = from
		}
		if to > latest {
			latest = to
		}
	}

	var expenses []models.Expense
	if earliest != "" {
		expenses, err = s.store.ListVisibleExpenses(ctx, userID, storage.ExpenseFilter{
			From:               earliest,
			To:                 latest,
			ExcludeSettlements: true,
		})
		if err != nil {
			return nil, toConnectError(err)
		}
	}
	dir, err := buildDirectory(ctx, s.store, expenses)
	if err != nil {
		return nil, toConnectError(err)
	}

	calc := calculator.New(dir, s.logger)
	shares := make([]decimal.Decimal, len(expenses))
	for i, e := range expenses {
		shares[i] = calc.PersonalShare(toLedgerExpense(e), userID)
	}

	for i := range budgets {
		b := &budgets[i]
		w := windows[i]
		if w.from == "" {
			continue
		}
		usage := api.BudgetUsage{Budget: toAPIBudget(b), From: w.from, To: w.to, Spent: decimal.Zero}
		for j, e := range expenses {
			if e.Date < w.from || e.Date > w.to || !shares[j].IsPositive() {
				continue
			}
			if b.CategoryID != "" && e.CategoryID != b.CategoryID {
				continue
			}
			usage.Spent = usage.Spent.Add(shares[j])
			usage.Count++
		}
		usage.Remaining = b.Amount.Sub(usage.Spent)
		resp.Usage = append(resp.Usage, usage)
	}

	s.logger.Info("GetBudgetUsage successful", "budgets", len(resp.Usage), "expenses", len(expenses))
	return connect.NewResponse(resp), nil
}

func (s *BudgetService) owned(ctx context.Context, id string) (*models.Budget, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalidArgument("budget id required")
	}
	budget, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	if budget.UserID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errPermissionDenied)
	}
	return budget, nil
}

// budgetFromRequest validates the editable fields of a budget.
func budgetFromRequest(msg *api.SaveBudgetRequest) (*models.Budget, error) {
	if !msg.Amount.IsPositive() {
		return nil, invalidArgument("amount must be positive")
	}
	period := models.BudgetPeriod(msg.Period)
	if period == "" {
		period = models.BudgetMonthly
	}
	if !period.Valid() {
		return nil, invalidArgument("period must be %q or %q", models.BudgetMonthly, models.BudgetWeekly)
	}
	for _, d := range []string{msg.StartDate, msg.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			return nil, invalidArgument("date %q must be formatted %s", d, models.DateLayout)
		}
	}
	if msg.StartDate != "" && msg.EndDate != "" && msg.StartDate > msg.EndDate {
		return nil, invalidArgument("start_date must not be after end_date")
	}
	return &models.Budget{
		ID:         msg.ID,
		CategoryID: msg.CategoryID,
		Period:     period,
		Amount:     msg.Amount,
		StartDate:  msg.StartDate,
		EndDate:    msg.EndDate,
	}, nil
}

func toAPIBudget(b *models.Budget) api.Budget {
	return api.Budget{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Period:     string(b.Period),
		Amount:     b.Amount,
		StartDate:  b.StartDate,
		EndDate:    b.EndDate,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}
