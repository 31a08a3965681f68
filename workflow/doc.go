// Package workflow defines workflow definitions, the persisted
// execution log, the log store interface, and the executor that runs
// stations in order with resume-from-failure support.
package workflow
