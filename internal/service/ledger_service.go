package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

const (
	defaultCurrency = "INR"
	uncategorized   = "uncategorized"
)

// LedgerService records expenses and answers per-viewer questions about them.
type LedgerService struct {
	store    storage.Store
	notifier *notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewLedgerService wires the service. m may be nil.
func NewLedgerService(store storage.Store, notifier *notify.Notifier, m *metrics.Metrics, logger *slog.Logger) *LedgerService {
	return &LedgerService{store: store, notifier: notifier, metrics: m, logger: logger}
}

func NewLedgerServiceHandler(svc *LedgerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, api.LedgerSaveExpenseProcedure, svc.SaveExpense, opts)
	route(mux, api.LedgerGetExpenseProcedure, svc.GetExpense, opts)
	route(mux, api.LedgerListExpensesProcedure, svc.ListExpenses, opts)
	route(mux, api.LedgerDeleteExpenseProcedure, svc.DeleteExpense, opts)
	route(mux, api.LedgerGetSpendingSummaryProcedure, svc.GetSpendingSummary, opts)
	return "/" + api.LedgerServiceName + "/", mux
}

// SaveExpense creates or replaces an expense. The split rows are rebuilt
// from the form and written with the expense in one transaction.
func (s *LedgerService) SaveExpense(ctx context.Context, req *connect.Request[api.SaveExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	s.logger.Info("SaveExpense request received",
		"expense_id", msg.ID,
		"trip_id", msg.TripID,
		"amount", msg.Amount.String(),
		"friends_count", len(msg.Form.FriendIDs),
	)

	title := strings.TrimSpace(msg.Title)
	if title == "" {
		return nil, invalidArgument("title required")
	}
	if !msg.Amount.IsPositive() {
		return nil, invalidArgument("amount must be positive")
	}
	date, err := parseDate(msg.Date)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		ID:          msg.ID,
		UserID:      userID,
		Title:       title,
		Note:        msg.Note,
		Amount:      msg.Amount,
		Currency:    msg.Currency,
		Date:        date,
		CategoryID:  msg.CategoryID,
		TripID:      msg.TripID,
		PayerID:     msg.Form.PayerID,
		PaymentMode: msg.PaymentMode,
	}
	if expense.Currency == "" {
		expense.Currency = defaultCurrency
	}
	if msg.ID != "" {
		existing, err := s.ownedExpense(ctx, userID, msg.ID)
		if err != nil {
			return nil, err
		}
		if existing.IsSettlement {
			return nil, invalidArgument("settlements cannot be edited; delete and record again")
		}
		expense.CreatedAt = existing.CreatedAt
	}

	allowed, err := s.participantsFor(ctx, userID, msg.TripID)
	if err != nil {
		return nil, err
	}
	for _, id := range append([]string{msg.Form.PayerID}, msg.Form.FriendIDs...) {
		if id != "" && !allowed.has(id) {
			return nil, invalidArgument("friend %s cannot take part in this expense", id)
		}
	}

	rows := calculator.BuildSplitRows(calculator.SplitForm{
		Split:        msg.Form.Split,
		IncludeOwner: msg.Form.IncludeOwner,
		Friends:      msg.Form.FriendIDs,
		Payer:        participantOf(msg.Form.PayerID),
		Total:        msg.Amount,
	})
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, toConnectError(err)
		}
	}
	expense.Splits = toModelSplits(rows)

	if err := s.store.SaveExpense(ctx, expense); err != nil {
		s.logger.Error("SaveExpense failed", "error", err)
		return nil, toConnectError(err)
	}
	if s.metrics != nil {
		s.metrics.ExpensesSaved.Inc()
	}
	s.logger.Info("Expense saved", "expense_id", expense.ID, "rows", len(rows))

	dir, err := buildDirectory(ctx, s.store, []models.Expense{*expense}, allowed.friends...)
	if err != nil {
		s.logger.Error("Failed to load friends after save", "expense_id", expense.ID, "error", err)
		dir = calculator.NewDirectory(allowed.friends...)
	}
	s.notifySplit(ctx, expense, rows, dir)
	publishLedgerChange(ctx, s.notifier, dir, expense)

	calc := calculator.New(dir, s.logger)
	ledgerExpense := toLedgerExpense(*expense)
	return connect.NewResponse(&api.ExpenseResponse{
		Expense: toAPIExpense(*expense, calc.PersonalShare(ledgerExpense, userID)),
		Form:    toAPIForm(calculator.ReconstructForm(ledgerExpense)),
	}), nil
}

// GetExpense returns an expense the caller can see, with the split form that
// reproduces it.
func (s *LedgerService) GetExpense(ctx context.Context, req *connect.Request[api.IDRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	expense, err := s.store.GetExpense(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	dir, err := buildDirectory(ctx, s.store, []models.Expense{*expense})
	if err != nil {
		return nil, toConnectError(err)
	}
	if !s.canView(ctx, userID, expense, dir) {
		return nil, connect.NewError(connect.CodePermissionDenied, errPermissionDenied)
	}

	calc := calculator.New(dir, s.logger)
	ledgerExpense := toLedgerExpense(*expense)
	return connect.NewResponse(&api.ExpenseResponse{
		Expense: toAPIExpense(*expense, calc.PersonalShare(ledgerExpense, userID)),
		Form:    toAPIForm(calculator.ReconstructForm(ledgerExpense)),
	}), nil
}

// ListExpenses returns the caller's visible expenses, or every expense of a
// trip the caller belongs to, each with the caller's personal share.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	filter := storage.ExpenseFilter{
		TripID:       req.Msg.TripID,
		PersonalOnly: req.Msg.PersonalOnly,
		CategoryID:   req.Msg.CategoryID,
		From:         req.Msg.From,
		To:           req.Msg.To,
	}

	expenses, err := s.scopeExpenses(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	dir, err := buildDirectory(ctx, s.store, expenses)
	if err != nil {
		return nil, toConnectError(err)
	}

	calc := calculator.New(dir, s.logger)
	out := make([]api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e, calc.PersonalShare(toLedgerExpense(e), userID))
	}
	s.logger.Info("ListExpenses successful", "count", len(out))
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// DeleteExpense removes an expense the caller owns.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[api.IDRequest]) (*connect.Response[api.Empty], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	expense, err := s.ownedExpense(ctx, userID, req.Msg.ID)
	if err != nil {
		return nil, err
	}
	dir, err := buildDirectory(ctx, s.store, []models.Expense{*expense})
	if err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		s.logger.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.logger.Info("Expense deleted", "expense_id", expense.ID)

	publishLedgerChange(ctx, s.notifier, dir, expense)
	return connect.NewResponse(&api.Empty{}), nil
}

// GetSpendingSummary totals the caller's personal share per category.
// Settlements are repayments, not spending, and are left out.
func (s *LedgerService) GetSpendingSummary(ctx context.Context, req *connect.Request[api.SpendingSummaryRequest]) (*connect.Response[api.SpendingSummaryResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListVisibleExpenses(ctx, userID, storage.ExpenseFilter{
		From:               req.Msg.From,
		To:                 req.Msg.To,
		ExcludeSettlements: true,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	dir, err := buildDirectory(ctx, s.store, expenses)
	if err != nil {
		return nil, toConnectError(err)
	}

	calc := calculator.New(dir, s.logger)
	byCategory := make(map[string]*api.CategorySpend)
	total := decimal.Zero
	for _, e := range expenses {
		share := calc.PersonalShare(toLedgerExpense(e), userID)
		if !share.IsPositive() {
			continue
		}
		category := e.CategoryID
		if category == "" {
			category = uncategorized
		}
		spend, ok := byCategory[category]
		if !ok {
			spend = &api.CategorySpend{CategoryID: category}
			byCategory[category] = spend
		}
		spend.Total = spend.Total.Add(share)
		spend.Count++
		total = total.Add(share)
	}

	categories := make([]api.CategorySpend, 0, len(byCategory))
	for _, spend := range byCategory {
		categories = append(categories, *spend)
	}
	sort.Slice(categories, func(i, j int) bool {
		if !categories[i].Total.Equal(categories[j].Total) {
			return categories[i].Total.GreaterThan(categories[j].Total)
		}
		return categories[i].CategoryID < categories[j].CategoryID
	})

	return connect.NewResponse(&api.SpendingSummaryResponse{Categories: categories, Total: total}), nil
}

// scopeExpenses loads the expenses of a filter. A trip filter returns every
// expense of the trip, after checking the caller belongs to it.
func (s *LedgerService) scopeExpenses(ctx context.Context, userID string, filter storage.ExpenseFilter) ([]models.Expense, error) {
	if filter.TripID == "" {
		expenses, err := s.store.ListVisibleExpenses(ctx, userID, filter)
		return expenses, toConnectError(err)
	}

	if _, err := tripForUser(ctx, s.store, filter.TripID, userID); err != nil {
		return nil, err
	}
	all, err := s.store.ListTripExpenses(ctx, filter.TripID)
	if err != nil {
		return nil, toConnectError(err)
	}
	expenses := all[:0]
	for _, e := range all {
		switch {
		case filter.CategoryID != "" && e.CategoryID != filter.CategoryID:
		case filter.From != "" && e.Date < filter.From:
		case filter.To != "" && e.Date > filter.To:
		case filter.ExcludeSettlements && e.IsSettlement:
		default:
			expenses = append(expenses, e)
		}
	}
	return expenses, nil
}

func (s *LedgerService) ownedExpense(ctx context.Context, userID, id string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	if expense.UserID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errPermissionDenied)
	}
	return expense, nil
}

func (s *LedgerService) canView(ctx context.Context, userID string, e *models.Expense, dir *calculator.Directory) bool {
	if e.UserID == userID {
		return true
	}
	for _, id := range referencedFriends([]models.Expense{*e}) {
		if linked, ok := dir.Resolve(id); ok && linked == userID {
			return true
		}
	}
	if e.TripID != "" {
		_, err := tripForUser(ctx, s.store, e.TripID, userID)
		return err == nil
	}
	return false
}

// notifySplit tells each linked debtor what they owe. Failures are logged;
// the expense is already committed.
func (s *LedgerService) notifySplit(ctx context.Context, e *models.Expense, rows []calculator.SplitRow, dir *calculator.Directory) {
	if s.notifier == nil {
		return
	}
	for _, row := range rows {
		debtorID, ok := row.Debtor.FriendID()
		if !ok {
			continue
		}
		recipient, ok := dir.Resolve(debtorID)
		if !ok || recipient == e.UserID {
			continue
		}

		share := row.Share.StringFixed(2)
		message := fmt.Sprintf("You owe %s for %s", share, e.Title)
		if creditorID, ok := row.Creditor.FriendID(); ok {
			name := dir.Name(creditorID)
			if name == "" {
				name = "someone"
			}
			message = fmt.Sprintf("You owe %s %s for %s", name, share, e.Title)
		}

		err := s.notifier.Notify(ctx, &models.Notification{
			UserID:   recipient,
			SenderID: e.UserID,
			TripID:   e.TripID,
			Title:    "New Expense Split",
			Message:  message,
			Type:     models.NotificationExpense,
			Metadata: notify.Metadata(map[string]string{"expense_id": e.ID, "amount": row.Share.String()}),
		})
		if err != nil {
			s.logger.Error("Failed to notify split", "expense_id", e.ID, "user_id", recipient, "error", err)
		}
	}
}

// participants is the set of friend records an expense may name.
type participants struct {
	friends []calculator.FriendRef
	ids     map[string]bool
}

func (p participants) has(id string) bool { return p.ids[id] }

// participantsFor returns the friend records an expense in the scope may name.
func (s *LedgerService) participantsFor(ctx context.Context, userID, tripID string) (participants, error) {
	friends, _, err := scopeFriends(ctx, s.store, userID, tripID)
	if err != nil {
		return participants{}, err
	}

	p := participants{ids: make(map[string]bool, len(friends))}
	for _, f := range friends {
		p.friends = append(p.friends, friendRef(f))
		p.ids[f.ID] = true
	}
	return p, nil
}

// publishLedgerChange pushes a ledger.changed event to the owner and every
// linked account the expense names.
func publishLedgerChange(ctx context.Context, notifier *notify.Notifier, dir *calculator.Directory, e *models.Expense) {
	if notifier == nil {
		return
	}
	data, err := json.Marshal(map[string]string{"expense_id": e.ID, "trip_id": e.TripID})
	if err != nil {
		return
	}
	event := api.Event{Type: api.EventLedgerChanged, Data: data}

	notified := map[string]bool{e.UserID: true}
	notifier.Push(ctx, e.UserID, event)
	for _, id := range referencedFriends([]models.Expense{*e}) {
		linked, ok := dir.Resolve(id)
		if !ok || notified[linked] {
			continue
		}
		notified[linked] = true
		notifier.Push(ctx, linked, event)
	}
}
