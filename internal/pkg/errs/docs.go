// Package errs provides the typed errors shared by the dispatch engine.
//
// Every error type follows the same shape:
//   - a sentinel (ErrObjectNotFound, ErrValueIsInvalid, ...) usable with errors.Is
//   - a struct carrying the offending parameter and an optional cause
//   - New...Error and New...ErrorWithCause constructors
//   - Unwrap returning the sentinel
//
// ObjectNotFoundError is what the ledger reports for unknown orders and
// ObjectAlreadyExistsError is what a store reports for a reused order id.
package errs
