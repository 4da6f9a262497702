// Package orchestrator runs matrix rows.
//
// A row runs its phases strictly in sequence (filter, provision, install,
// doctest, unit) and stops at the first failure. Rows run concurrently up to
// a job limit; each row owns its state directory, its log file and its result
// slot, and a failing row never cancels the others.
package orchestrator
