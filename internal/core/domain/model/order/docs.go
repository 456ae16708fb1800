// Package order holds the Order aggregate and its lifecycle.
//
// An order is created Pending with its first courier already chosen, then
// moves through Accepted and Delivered. Declined ends one assignment; the
// dispatch coordinator may restart the order as Pending with another courier.
// Every recorded status change is checked against a fixed transition table,
// so a ledger never holds a path outside the lifecycle.
package order
