// Package kv provides string key-value media for the client board.
//
// The client keeps its entire state under one key, the way a browser keeps
// an app's data in localStorage. Store is that contract: string keys,
// string values, nothing else. Three media implement it:
//
//   - File:   one JSON object on disk, rewritten atomically on every Set
//   - Redis:  a Redis server, for boards shared between machines
//   - Memory: a map, for tests
package kv

import "context"

type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores the value durably before returning.
	Set(ctx context.Context, key, value string) error
	Close() error
}
