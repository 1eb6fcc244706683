// Package pipeline drives backlog rows through their lifecycle. The
// state machine computes one row's next status and field writes from
// its mode and persisted state; the runner iterates eligible rows,
// bounds work per invocation, and commits each outcome as a single
// atomic store write.
package pipeline
