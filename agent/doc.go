// Package agent implements the round-execution state machine that drives a
// vision model through multi-round tool use. Each round the controller
// gathers page context (only while web browsing), asks the model for one
// decision, executes the chosen tool, and folds the outcome into an
// append-only history. The first successful download flips the session into
// local-file processing, after which no visual context is supplied.
package agent
