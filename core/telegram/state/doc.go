// Package state keeps per-user conversation sessions for Telegram bots.
// A Store is keyed by Telegram user id; the in-memory store suits a single
// process, the Redis store survives restarts and can be shared by replicas.
package state
