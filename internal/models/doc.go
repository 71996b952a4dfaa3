// Package models defines the persisted entities of the ledger.
//
// # Entities
//
//   - User: a registered account
//   - Friend: a contact record owned by one account, optionally linked to
//     another account (LinkedUserID) so that account sees shared expenses
//   - Trip: a named group of friend references with its own ledger
//   - Expense: one spending event, owned by the account that recorded it
//   - Split: a ledger line of an expense (who owes whom, how much)
//   - Notification: an in-app message for one account
//
// # Conventions
//
// Relationships are ID strings, never pointers. An empty optional reference
// ("" PayerID, TripID, FriendID, OwedToFriendID) is stored as NULL. For
// splits, an empty FriendID or OwedToFriendID denotes the expense owner.
// Monetary amounts are decimal.Decimal and timestamps are Unix seconds.
package models
