package api

// Service names.
const (
	AuthServiceName         = "splitledger.v1.AuthService"
	FriendServiceName       = "splitledger.v1.FriendService"
	TripServiceName         = "splitledger.v1.TripService"
	LedgerServiceName       = "splitledger.v1.LedgerService"
	BalanceServiceName      = "splitledger.v1.BalanceService"
	NotificationServiceName = "splitledger.v1.NotificationService"
	BudgetServiceName       = "splitledger.v1.BudgetService"
)

// Procedure paths, "/<service>/<method>".
const (
	AuthRegisterProcedure       = "/" + AuthServiceName + "/Register"
	AuthLoginProcedure          = "/" + AuthServiceName + "/Login"
	AuthGetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"

	FriendCreateProcedure = "/" + FriendServiceName + "/CreateFriend"
	FriendListProcedure   = "/" + FriendServiceName + "/ListFriends"
	FriendUpdateProcedure = "/" + FriendServiceName + "/UpdateFriend"
	FriendDeleteProcedure = "/" + FriendServiceName + "/DeleteFriend"

	TripCreateProcedure       = "/" + TripServiceName + "/CreateTrip"
	TripGetProcedure          = "/" + TripServiceName + "/GetTrip"
	TripListProcedure         = "/" + TripServiceName + "/ListTrips"
	TripAddMemberProcedure    = "/" + TripServiceName + "/AddTripMember"
	TripRemoveMemberProcedure = "/" + TripServiceName + "/RemoveTripMember"
	TripDeleteProcedure       = "/" + TripServiceName + "/DeleteTrip"

	LedgerSaveExpenseProcedure        = "/" + LedgerServiceName + "/SaveExpense"
	LedgerGetExpenseProcedure         = "/" + LedgerServiceName + "/GetExpense"
	LedgerListExpensesProcedure       = "/" + LedgerServiceName + "/ListExpenses"
	LedgerDeleteExpenseProcedure      = "/" + LedgerServiceName + "/DeleteExpense"
	LedgerGetSpendingSummaryProcedure = "/" + LedgerServiceName + "/GetSpendingSummary"

	BalanceGetBalancesProcedure       = "/" + BalanceServiceName + "/GetBalances"
	BalanceRecordSettlementProcedure  = "/" + BalanceServiceName + "/RecordSettlement"
	BalanceSendReminderProcedure      = "/" + BalanceServiceName + "/SendReminder"
	BalanceGetFriendBalancesProcedure = "/" + BalanceServiceName + "/GetFriendBalances"

	NotificationListProcedure        = "/" + NotificationServiceName + "/ListNotifications"
	NotificationMarkReadProcedure    = "/" + NotificationServiceName + "/MarkRead"
	NotificationMarkAllReadProcedure = "/" + NotificationServiceName + "/MarkAllRead"

	BudgetCreateProcedure   = "/" + BudgetServiceName + "/CreateBudget"
	BudgetListProcedure     = "/" + BudgetServiceName + "/ListBudgets"
	BudgetUpdateProcedure   = "/" + BudgetServiceName + "/UpdateBudget"
	BudgetDeleteProcedure   = "/" + BudgetServiceName + "/DeleteBudget"
	BudgetGetUsageProcedure = "/" + BudgetServiceName + "/GetBudgetUsage"
)

// PublicProcedures need no bearer token.
var PublicProcedures = []string{
	AuthRegisterProcedure,
	AuthLoginProcedure,
}
