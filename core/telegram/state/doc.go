// Package state provides a lightweight in-memory session store for Telegram bots.
// It is domain-agnostic: bots decide what a session holds and how it advances.
package state
