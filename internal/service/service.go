// Package service implements the Connect handlers of the ledger: accounts,
// friends, trips, expenses, balances and notifications.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

var (
	errPermissionDenied = errors.New("permission denied")
	errTripAccess       = errors.New("not a member of this trip")
)

// callerID returns the authenticated user, or an Unauthenticated error.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// toConnectError maps storage and domain errors to Connect codes. Errors
// that already carry a code pass through.
func toConnectError(err error) error {
	var connectErr *connect.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &connectErr):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrInUse):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, calculator.ErrMalformedRow), errors.Is(err, calculator.ErrNonPositiveShare):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{api.WithJSON()}, opts...)
}

// route registers one unary procedure on mux.
func route[Req, Res any](mux *http.ServeMux, procedure string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// parseDate validates a YYYY-MM-DD date, defaulting to today.
func parseDate(s string) (string, error) {
	if s == "" {
		return time.Now().UTC().Format(models.DateLayout), nil
	}
	if _, err := time.Parse(models.DateLayout, s); err != nil {
		return "", invalidArgument("date %q must be formatted %s", s, models.DateLayout)
	}
	return s, nil
}

// Conversions between storage models, the engine and the wire.

func participantOf(friendID string) calculator.Participant {
	if friendID == "" {
		return calculator.Self()
	}
	return calculator.Friend(friendID)
}

func friendIDOf(p calculator.Participant) string {
	id, _ := p.FriendID()
	return id
}

func toLedgerExpense(e models.Expense) calculator.Expense {
	rows := make([]calculator.SplitRow, 0, len(e.Splits))
	for _, split := range e.Splits {
		rows = append(rows, calculator.SplitRow{
			Debtor:   participantOf(split.FriendID),
			Creditor: participantOf(split.OwedToFriendID),
			Share:    split.ShareAmount,
		})
	}
	return calculator.Expense{
		ID:           e.ID,
		OwnerID:      e.UserID,
		Total:        e.Amount,
		Payer:        participantOf(e.PayerID),
		TripID:       e.TripID,
		IsSettlement: e.IsSettlement,
		Rows:         rows,
	}
}

func toLedgerExpenses(expenses []models.Expense) []calculator.Expense {
	out := make([]calculator.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toLedgerExpense(e)
	}
	return out
}

func toModelSplits(rows []calculator.SplitRow) []models.Split {
	splits := make([]models.Split, len(rows))
	for i, row := range rows {
		splits[i] = models.Split{
			FriendID:       friendIDOf(row.Debtor),
			OwedToFriendID: friendIDOf(row.Creditor),
			ShareAmount:    row.Share,
		}
	}
	return splits
}

func toAPIUser(u *models.User) api.User {
	return api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toAPIFriend(f models.Friend) api.Friend {
	return api.Friend{
		ID:           f.ID,
		Name:         f.Name,
		Email:        f.Email,
		LinkedUserID: f.LinkedUserID,
		CreatedAt:    f.CreatedAt,
	}
}

func toAPITrip(t *models.Trip) api.Trip {
	members := make([]api.Friend, len(t.Members))
	for i, m := range t.Members {
		members[i] = toAPIFriend(m)
	}
	return api.Trip{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Name:        t.Name,
		Description: t.Description,
		Members:     members,
		CreatedAt:   t.CreatedAt,
	}
}

func toAPIExpense(e models.Expense, personalShare decimal.Decimal) api.Expense {
	splits := make([]api.SplitRow, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = api.SplitRow{
			DebtorID:     s.FriendID,
			CreditorID:   s.OwedToFriendID,
			Share:        s.ShareAmount,
			ShareDisplay: cents(s.ShareAmount),
		}
	}
	return api.Expense{
		ID:                   e.ID,
		OwnerID:              e.UserID,
		Title:                e.Title,
		Note:                 e.Note,
		Amount:               e.Amount,
		Currency:             e.Currency,
		Date:                 e.Date,
		CategoryID:           e.CategoryID,
		TripID:               e.TripID,
		PayerID:              e.PayerID,
		IsSettlement:         e.IsSettlement,
		PaymentMode:          e.PaymentMode,
		Splits:               splits,
		PersonalShare:        personalShare,
		PersonalShareDisplay: cents(personalShare),
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

// cents renders an exact amount rounded to two places.
func cents(d decimal.Decimal) string { return d.StringFixed(2) }

func toAPIForm(f calculator.SplitForm) api.SplitForm {
	return api.SplitForm{
		Split:        f.Split,
		IncludeOwner: f.IncludeOwner,
		FriendIDs:    f.Friends,
		PayerID:      friendIDOf(f.Payer),
	}
}

// referencedFriends returns the distinct friend ids named by the expenses.
func referencedFriends(expenses []models.Expense) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, e := range expenses {
		add(e.PayerID)
		for _, s := range e.Splits {
			add(s.FriendID)
			add(s.OwedToFriendID)
		}
	}
	return ids
}

// buildDirectory loads every friend the expenses reference, plus known, into
// a resolver for the engine.
func buildDirectory(ctx context.Context, friends storage.FriendStore, expenses []models.Expense, known ...calculator.FriendRef) (*calculator.Directory, error) {
	dir := calculator.NewDirectory(known...)
	ids := referencedFriends(expenses)
	if len(ids) == 0 {
		return dir, nil
	}
	loaded, err := friends.GetFriends(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, f := range loaded {
		dir.Add(friendRef(f))
	}
	return dir, nil
}

func friendRef(f models.Friend) calculator.FriendRef {
	return calculator.FriendRef{ID: f.ID, Name: f.Name, LinkedAccount: f.LinkedUserID}
}

// tripForUser returns the trip if userID owns it or is linked to one of its
// members.
func tripForUser(ctx context.Context, trips storage.TripStore, tripID, userID string) (*models.Trip, error) {
	trip, err := trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if trip.OwnerID == userID {
		return trip, nil
	}
	for _, m := range trip.Members {
		if m.LinkedUserID == userID {
			return trip, nil
		}
	}
	return nil, connect.NewError(connect.CodePermissionDenied, errTripAccess)
}

// scopeFriends returns the caller's friends for the personal ledger, or the
// members of a trip the caller belongs to.
func scopeFriends(ctx context.Context, store storage.Store, userID, tripID string) ([]models.Friend, *models.Trip, error) {
	if tripID == "" {
		friends, err := store.ListFriends(ctx, userID)
		if err != nil {
			return nil, nil, toConnectError(err)
		}
		return friends, nil, nil
	}
	trip, err := tripForUser(ctx, store, tripID, userID)
	if err != nil {
		return nil, nil, err
	}
	return trip.Members, trip, nil
}
