package api

import (
	"strings"

	"connectrpc.com/connect"
)

func newClient[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts []connect.ClientOption) *connect.Client[Req, Res] {
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return connect.NewClient[Req, Res](httpClient, strings.TrimRight(baseURL, "/")+procedure, opts...)
}

// AuthClient calls AuthService.
type AuthClient struct {
	Register       *connect.Client[RegisterRequest, AuthResponse]
	Login          *connect.Client[LoginRequest, AuthResponse]
	GetCurrentUser *connect.Client[Empty, GetCurrentUserResponse]
}

func NewAuthClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthClient {
	return &AuthClient{
		Register:       newClient[RegisterRequest, AuthResponse](httpClient, baseURL, AuthRegisterProcedure, opts),
		Login:          newClient[LoginRequest, AuthResponse](httpClient, baseURL, AuthLoginProcedure, opts),
		GetCurrentUser: newClient[Empty, GetCurrentUserResponse](httpClient, baseURL, AuthGetCurrentUserProcedure, opts),
	}
}

// FriendClient calls FriendService.
type FriendClient struct {
	CreateFriend *connect.Client[CreateFriendRequest, FriendResponse]
	ListFriends  *connect.Client[Empty, ListFriendsResponse]
	UpdateFriend *connect.Client[UpdateFriendRequest, FriendResponse]
	DeleteFriend *connect.Client[IDRequest, Empty]
}

func NewFriendClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *FriendClient {
	return &FriendClient{
		CreateFriend: newClient[CreateFriendRequest, FriendResponse](httpClient, baseURL, FriendCreateProcedure, opts),
		ListFriends:  newClient[Empty, ListFriendsResponse](httpClient, baseURL, FriendListProcedure, opts),
		UpdateFriend: newClient[UpdateFriendRequest, FriendResponse](httpClient, baseURL, FriendUpdateProcedure, opts),
		DeleteFriend: newClient[IDRequest, Empty](httpClient, baseURL, FriendDeleteProcedure, opts),
	}
}

// TripClient calls TripService.
type TripClient struct {
	CreateTrip       *connect.Client[CreateTripRequest, TripResponse]
	GetTrip          *connect.Client[IDRequest, TripResponse]
	ListTrips        *connect.Client[Empty, ListTripsResponse]
	AddTripMember    *connect.Client[TripMemberRequest, TripResponse]
	RemoveTripMember *connect.Client[TripMemberRequest, TripResponse]
	DeleteTrip       *connect.Client[IDRequest, Empty]
}

func NewTripClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *TripClient {
	return &TripClient{
		CreateTrip:       newClient[CreateTripRequest, TripResponse](httpClient, baseURL, TripCreateProcedure, opts),
		GetTrip:          newClient[IDRequest, TripResponse](httpClient, baseURL, TripGetProcedure, opts),
		ListTrips:        newClient[Empty, ListTripsResponse](httpClient, baseURL, TripListProcedure, opts),
		AddTripMember:    newClient[TripMemberRequest, TripResponse](httpClient, baseURL, TripAddMemberProcedure, opts),
		RemoveTripMember: newClient[TripMemberRequest, TripResponse](httpClient, baseURL, TripRemoveMemberProcedure, opts),
		DeleteTrip:       newClient[IDRequest, Empty](httpClient, baseURL, TripDeleteProcedure, opts),
	}
}

// LedgerClient calls LedgerService.
type LedgerClient struct {
	SaveExpense        *connect.Client[SaveExpenseRequest, ExpenseResponse]
	GetExpense         *connect.Client[IDRequest, ExpenseResponse]
	ListExpenses       *connect.Client[ListExpensesRequest, ListExpensesResponse]
	DeleteExpense      *connect.Client[IDRequest, Empty]
	GetSpendingSummary *connect.Client[SpendingSummaryRequest, SpendingSummaryResponse]
}

func NewLedgerClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerClient {
	return &LedgerClient{
		SaveExpense:        newClient[SaveExpenseRequest, ExpenseResponse](httpClient, baseURL, LedgerSaveExpenseProcedure, opts),
		GetExpense:         newClient[IDRequest, ExpenseResponse](httpClient, baseURL, LedgerGetExpenseProcedure, opts),
		ListExpenses:       newClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL, LedgerListExpensesProcedure, opts),
		DeleteExpense:      newClient[IDRequest, Empty](httpClient, baseURL, LedgerDeleteExpenseProcedure, opts),
		GetSpendingSummary: newClient[SpendingSummaryRequest, SpendingSummaryResponse](httpClient, baseURL, LedgerGetSpendingSummaryProcedure, opts),
	}
}

// BalanceClient calls BalanceService.
type BalanceClient struct {
	GetBalances       *connect.Client[BalancesRequest, BalancesResponse]
	RecordSettlement  *connect.Client[RecordSettlementRequest, ExpenseResponse]
	SendReminder      *connect.Client[SendReminderRequest, SendReminderResponse]
	GetFriendBalances *connect.Client[Empty, FriendBalancesResponse]
}

func NewBalanceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BalanceClient {
	return &BalanceClient{
		GetBalances:       newClient[BalancesRequest, BalancesResponse](httpClient, baseURL, BalanceGetBalancesProcedure, opts),
		RecordSettlement:  newClient[RecordSettlementRequest, ExpenseResponse](httpClient, baseURL, BalanceRecordSettlementProcedure, opts),
		SendReminder:      newClient[SendReminderRequest, SendReminderResponse](httpClient, baseURL, BalanceSendReminderProcedure, opts),
		GetFriendBalances: newClient[Empty, FriendBalancesResponse](httpClient, baseURL, BalanceGetFriendBalancesProcedure, opts),
	}
}

// NotificationClient calls NotificationService.
type NotificationClient struct {
	ListNotifications *connect.Client[ListNotificationsRequest, ListNotificationsResponse]
	MarkRead          *connect.Client[IDRequest, Empty]
	MarkAllRead       *connect.Client[Empty, MarkAllReadResponse]
}

func NewNotificationClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *NotificationClient {
	return &NotificationClient{
		ListNotifications: newClient[ListNotificationsRequest, ListNotificationsResponse](httpClient, baseURL, NotificationListProcedure, opts),
		MarkRead:          newClient[IDRequest, Empty](httpClient, baseURL, NotificationMarkReadProcedure, opts),
		MarkAllRead:       newClient[Empty, MarkAllReadResponse](httpClient, baseURL, NotificationMarkAllReadProcedure, opts),
	}
}

// BudgetClient calls BudgetService.
type BudgetClient struct {
	CreateBudget   *connect.Client[SaveBudgetRequest, BudgetResponse]
	ListBudgets    *connect.Client[Empty, ListBudgetsResponse]
	UpdateBudget   *connect.Client[SaveBudgetRequest, BudgetResponse]
	DeleteBudget   *connect.Client[IDRequest, Empty]
	GetBudgetUsage *connect.Client[BudgetUsageRequest, BudgetUsageResponse]
}

func NewBudgetClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BudgetClient {
	return &BudgetClient{
		CreateBudget:   newClient[SaveBudgetRequest, BudgetResponse](httpClient, baseURL, BudgetCreateProcedure, opts),
		ListBudgets:    newClient[Empty, ListBudgetsResponse](httpClient, baseURL, BudgetListProcedure, opts),
		UpdateBudget:   newClient[SaveBudgetRequest, BudgetResponse](httpClient, baseURL, BudgetUpdateProcedure, opts),
		DeleteBudget:   newClient[IDRequest, Empty](httpClient, baseURL, BudgetDeleteProcedure, opts),
		GetBudgetUsage: newClient[BudgetUsageRequest, BudgetUsageResponse](httpClient, baseURL, BudgetGetUsageProcedure, opts),
	}
}
