package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

const selfName = "You"

var (
	errUnlinkedFriend = errors.New("friend has not linked an account")
	errNotInScope     = errors.New("participant is not part of this ledger")
)

// BalanceService computes who owes whom within a ledger scope and records
// settlements against it.
type BalanceService struct {
	store    storage.Store
	notifier *notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewBalanceService(store storage.Store, notifier *notify.Notifier, m *metrics.Metrics, logger *slog.Logger) *BalanceService {
	return &BalanceService{store: store, notifier: notifier, metrics: m, logger: logger}
}

func NewBalanceServiceHandler(svc *BalanceService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, api.BalanceGetBalancesProcedure, svc.GetBalances, opts)
	route(mux, api.BalanceGetFriendBalancesProcedure, svc.GetFriendBalances, opts)
	route(mux, api.BalanceRecordSettlementProcedure, svc.RecordSettlement, opts)
	route(mux, api.BalanceSendReminderProcedure, svc.SendReminder, opts)
	return "/" + api.BalanceServiceName + "/", mux
}

// ledgerScope is one balance scope as seen by one account: the personal
// ledger, or a trip.
type ledgerScope struct {
	userID   string
	trip     *models.Trip
	friends  []models.Friend
	roster   []calculator.Participant
	expenses []models.Expense
	dir      *calculator.Directory
	sheet    *calculator.BalanceSheet
}

func (sc *ledgerScope) tripID() string {
	if sc.trip == nil {
		return ""
	}
	return sc.trip.ID
}

func (sc *ledgerScope) friend(id string) (models.Friend, bool) {
	for _, f := range sc.friends {
		if f.ID == id {
			return f, true
		}
	}
	return models.Friend{}, false
}

// loadScope fetches the scope's roster and expenses and aggregates them.
func (s *BalanceService) loadScope(ctx context.Context, userID, tripID string) (*ledgerScope, error) {
	friends, trip, err := scopeFriends(ctx, s.store, userID, tripID)
	if err != nil {
		return nil, err
	}

	var expenses []models.Expense
	if trip == nil {
		expenses, err = s.store.ListVisibleExpenses(ctx, userID, storage.ExpenseFilter{PersonalOnly: true})
	} else {
		expenses, err = s.store.ListTripExpenses(ctx, trip.ID)
	}
	if err != nil {
		return nil, toConnectError(err)
	}

	refs := make([]calculator.FriendRef, len(friends))
	roster := []calculator.Participant{calculator.Self()}
	for i, f := range friends {
		refs[i] = friendRef(f)
		roster = append(roster, calculator.Friend(f.ID))
	}
	dir, err := buildDirectory(ctx, s.store, expenses, refs...)
	if err != nil {
		return nil, toConnectError(err)
	}

	sheet := calculator.New(dir, s.logger).AggregateBalances(userID, toLedgerExpenses(expenses), roster)
	return &ledgerScope{
		userID:   userID,
		trip:     trip,
		friends:  friends,
		roster:   roster,
		expenses: expenses,
		dir:      dir,
		sheet:    sheet,
	}, nil
}

// GetBalances returns paid, share and net per participant of the scope and
// the transfers that settle it.
func (s *BalanceService) GetBalances(ctx context.Context, req *connect.Request[api.BalancesRequest]) (*connect.Response[api.BalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("GetBalances request received", "trip_id", req.Msg.TripID)

	sc, err := s.loadScope(ctx, userID, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	names := s.namer(ctx, sc)

	entries := sc.sheet.Entries()
	balances := make([]api.Balance, len(entries))
	for i, b := range entries {
		balances[i] = api.Balance{
			Participant: b.Participant.Key(),
			Name:        names(b.Participant),
			Paid:        b.Paid,
			Share:       b.Share,
			Net:         b.Net(),
		}
	}

	settlements := calculator.MinimizeSettlements(sc.sheet.Settleable())
	transfers := make([]api.Transfer, len(settlements))
	for i, t := range settlements {
		transfers[i] = api.Transfer{
			From:     t.From.Key(),
			FromName: names(t.From),
			To:       t.To.Key(),
			ToName:   names(t.To),
			Amount:   t.Amount,
		}
	}

	s.logger.Info("GetBalances successful",
		"trip_id", req.Msg.TripID,
		"expenses", len(sc.expenses),
		"participants", len(balances),
		"transfers", len(transfers),
	)
	return connect.NewResponse(&api.BalancesResponse{Balances: balances, Transfers: transfers}), nil
}

// GetFriendBalances returns the caller's direct position with each friend
// across the personal ledger, folded across linked duplicates.
func (s *BalanceService) GetFriendBalances(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.FriendBalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("GetFriendBalances request received")

	sc, err := s.loadScope(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	names := s.namer(ctx, sc)

	pairs := calculator.New(sc.dir, s.logger).FriendBalances(userID, toLedgerExpenses(sc.expenses), sc.roster)
	resp := &api.FriendBalancesResponse{Friends: make([]api.FriendBalance, len(pairs))}
	for i, b := range pairs {
		id, ok := b.Friend.FriendID()
		if !ok {
			id = b.Friend.Key()
		}
		net := b.Net()
		resp.Friends[i] = api.FriendBalance{
			FriendID: id,
			Name:     names(b.Friend),
			Paid:     b.Paid,
			UserOwes: b.UserOwes,
			TheyOwe:  b.TheyOwe,
			Net:      net,
		}
		switch {
		case net.GreaterThan(calculator.Epsilon):
			resp.ToGet = resp.ToGet.Add(net)
		case net.LessThan(calculator.Epsilon.Neg()):
			resp.ToPay = resp.ToPay.Add(net.Neg())
		}
	}

	s.logger.Info("GetFriendBalances successful", "friends", len(resp.Friends))
	return connect.NewResponse(resp), nil
}

// RecordSettlement stores a repayment from From to To as a settlement
// expense: From pays, and To owes From the whole amount. The receiver is
// notified afterwards; a failed notification does not undo the settlement.
func (s *BalanceService) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	s.logger.Info("RecordSettlement request received", "trip_id", msg.TripID, "from", msg.From, "to", msg.To, "amount", msg.Amount.String())

	if !msg.Amount.GreaterThan(calculator.Epsilon) {
		return nil, invalidArgument("amount must be at least %s", calculator.Epsilon)
	}
	date, err := parseDate(msg.Date)
	if err != nil {
		return nil, err
	}

	friends, trip, err := scopeFriends(ctx, s.store, userID, msg.TripID)
	if err != nil {
		return nil, err
	}
	sc := &ledgerScope{userID: userID, trip: trip, friends: friends}

	from, err := s.resolveParty(ctx, sc, msg.From)
	if err != nil {
		return nil, err
	}
	to, err := s.resolveParty(ctx, sc, msg.To)
	if err != nil {
		return nil, err
	}
	row, err := calculator.NewSplitRow(to, from, msg.Amount)
	if err != nil {
		return nil, invalidArgument("cannot settle %s with %s: %v", msg.From, msg.To, err)
	}

	currency := msg.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	expense := &models.Expense{
		UserID:       userID,
		Title:        "Settlement",
		Amount:       msg.Amount,
		Currency:     currency,
		Date:         date,
		TripID:       sc.tripID(),
		PayerID:      friendIDOf(from),
		IsSettlement: true,
		PaymentMode:  "online",
		Splits:       toModelSplits([]calculator.SplitRow{row}),
	}
	if err := s.store.SaveExpense(ctx, expense); err != nil {
		s.logger.Error("RecordSettlement failed", "error", err)
		return nil, toConnectError(err)
	}
	if s.metrics != nil {
		s.metrics.SettlementsRecorded.Inc()
	}
	s.logger.Info("Settlement recorded", "expense_id", expense.ID, "amount", msg.Amount.String())

	dir, err := buildDirectory(ctx, s.store, []models.Expense{*expense})
	if err != nil {
		s.logger.Error("Failed to load friends after settlement", "expense_id", expense.ID, "error", err)
		dir = calculator.NewDirectory()
	}
	s.notifySettlement(ctx, expense, to, dir)
	publishLedgerChange(ctx, s.notifier, dir, expense)

	ledgerExpense := toLedgerExpense(*expense)
	return connect.NewResponse(&api.ExpenseResponse{
		Expense: toAPIExpense(*expense, calculator.New(dir, s.logger).PersonalShare(ledgerExpense, userID)),
		Form:    toAPIForm(calculator.ReconstructForm(ledgerExpense)),
	}), nil
}

// SendReminder asks a linked friend to pay what they owe in the scope.
func (s *BalanceService) SendReminder(ctx context.Context, req *connect.Request[api.SendReminderRequest]) (*connect.Response[api.SendReminderResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if s.notifier == nil {
		return nil, connect.NewError(connect.CodeUnavailable, errors.New("notifications are disabled"))
	}
	sc, err := s.loadScope(ctx, userID, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	friend, ok := sc.friend(req.Msg.FriendID)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, errNotInScope)
	}
	if !friend.Linked() {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errUnlinkedFriend)
	}
	if friend.LinkedUserID == userID {
		return nil, invalidArgument("cannot remind yourself")
	}

	sender := s.displayName(ctx, userID, "Your friend")
	owed := decimal.Zero
	if b, ok := sc.sheet.Get(calculator.Friend(friend.ID)); ok && b.Net().LessThan(calculator.Epsilon.Neg()) {
		owed = b.Net().Neg()
	}
	message := fmt.Sprintf("%s requested a payment.", sender)
	if owed.IsPositive() {
		message = fmt.Sprintf("%s requested payment of %s.", sender, owed.StringFixed(2))
	}
	title := "Payment Reminder"
	if sc.trip != nil {
		title = "Payment Reminder: " + sc.trip.Name
	}

	n := &models.Notification{
		UserID:   friend.LinkedUserID,
		SenderID: userID,
		TripID:   sc.tripID(),
		Title:    title,
		Message:  message,
		Type:     models.NotificationReminder,
		Metadata: notify.Metadata(map[string]string{"amount": owed.StringFixed(2)}),
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Error("SendReminder failed", "friend_id", friend.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.logger.Info("Reminder sent", "friend_id", friend.ID, "notification_id", n.ID)
	return connect.NewResponse(&api.SendReminderResponse{NotificationID: n.ID}), nil
}

// resolveParty maps a participant key from a balance sheet to a reference
// an expense row can hold: Self, or a friend record.
func (s *BalanceService) resolveParty(ctx context.Context, sc *ledgerScope, key string) (calculator.Participant, error) {
	p, ok := calculator.ParseParticipant(key)
	if !ok {
		return calculator.Participant{}, invalidArgument("unknown participant %q", key)
	}

	switch p.Kind() {
	case calculator.KindSelf:
		return p, nil
	case calculator.KindFriend:
		id, _ := p.FriendID()
		friend, ok := sc.friend(id)
		if !ok {
			return calculator.Participant{}, connect.NewError(connect.CodeInvalidArgument, errNotInScope)
		}
		if friend.LinkedUserID == sc.userID {
			return calculator.Self(), nil
		}
		return p, nil
	}

	accountID, _ := p.AccountID()
	if accountID == sc.userID {
		return calculator.Self(), nil
	}
	for _, f := range sc.friends {
		if f.LinkedUserID == accountID {
			return calculator.Friend(f.ID), nil
		}
	}
	// Trip ledgers may hold people the trip roster does not list, such as
	// the trip owner; fall back to the caller's own friend records.
	own, err := s.store.ListFriends(ctx, sc.userID)
	if err != nil {
		return calculator.Participant{}, toConnectError(err)
	}
	for _, f := range own {
		if f.LinkedUserID == accountID {
			return calculator.Friend(f.ID), nil
		}
	}
	return calculator.Participant{}, connect.NewError(connect.CodeFailedPrecondition,
		fmt.Errorf("add account %s as a friend before settling with them", accountID))
}

func (s *BalanceService) notifySettlement(ctx context.Context, e *models.Expense, receiver calculator.Participant, dir *calculator.Directory) {
	if s.notifier == nil {
		return
	}
	receiverID, ok := receiver.FriendID()
	if !ok {
		return
	}
	recipient, ok := dir.Resolve(receiverID)
	if !ok || recipient == e.UserID {
		return
	}

	sender := s.displayName(ctx, e.UserID, "Friend")
	err := s.notifier.Notify(ctx, &models.Notification{
		UserID:   recipient,
		SenderID: e.UserID,
		TripID:   e.TripID,
		Title:    "Settlement Received",
		Message:  fmt.Sprintf("%s recorded a payment of %s to you.", sender, e.Amount.StringFixed(2)),
		Type:     models.NotificationSettlement,
		Metadata: notify.Metadata(map[string]string{"expense_id": e.ID, "amount": e.Amount.String()}),
	})
	if err != nil {
		s.logger.Error("Failed to notify settlement", "expense_id", e.ID, "user_id", recipient, "error", err)
	}
}

// namer labels participants: "You", the friend record's name, or the
// account's display name.
func (s *BalanceService) namer(ctx context.Context, sc *ledgerScope) func(calculator.Participant) string {
	accounts := make(map[string]string)
	return func(p calculator.Participant) string {
		switch p.Kind() {
		case calculator.KindSelf:
			return selfName
		case calculator.KindFriend:
			id, _ := p.FriendID()
			return sc.dir.Name(id)
		}
		id, _ := p.AccountID()
		if id == sc.userID {
			return selfName
		}
		if name, ok := accounts[id]; ok {
			return name
		}
		name := s.displayName(ctx, id, "Unknown")
		accounts[id] = name
		return name
	}
}

func (s *BalanceService) displayName(ctx context.Context, userID, fallback string) string {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil || user.DisplayName == "" {
		return fallback
	}
	return user.DisplayName
}
