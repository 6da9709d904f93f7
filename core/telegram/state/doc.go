// Package state provides a typed, in-memory per-user session store for
// conversation flows. Sessions are keyed by Telegram user id and hold whatever
// value type the flow defines; there is no persistence across restarts.
package state
