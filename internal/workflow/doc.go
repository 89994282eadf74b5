// Package workflow holds the request lifecycle rules shared by the API and its clients:
// the status transition table, the request list projection, activity feed wording and
// claim slip derivation. Everything here is pure; callers pass the clock in.
package workflow
