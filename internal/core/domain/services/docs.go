// Package services holds domain services that span more than one model: the
// OrderDispatcher combines the rotation queue with an order's redirection
// history to pick the next courier.
package services
