// Package rotation holds the fairness structure that decides which on-shift
// courier receives the next assignment. Queue is plain state with no I/O;
// persistence and locking live in the application layer.
//
// With stable membership, Size consecutive calls to Next visit every member
// exactly once. Any Join or Leave rewinds the cursor to the first member, so
// a courier can be skipped or revisited once in the cycle that spans the
// change.
package rotation
