// Package tui provides the terminal monitor for execution sessions.
//
// The Monitor polls an execution manager on a fixed refresh interval and
// also listens on its event channel, so the session list stays current
// between ticks and the event log shows every transition.
package tui
