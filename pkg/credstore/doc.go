// Package credstore provides durable string-keyed storage for session
// credentials. The session manager mirrors its in-memory credential pair
// into a Store on every successful mutation, so a client process can pick
// up an existing session after a restart.
//
// The package is storage-agnostic: any backend that satisfies the Store
// interface can be plugged in. Three implementations ship out of the box:
//
//   - MemoryStore — mutex-guarded map, for tests and throwaway processes.
//   - FileStore   — YAML file on disk with atomic writes and optional
//     at-rest encryption of values (AES-256-GCM, HKDF-derived key).
//   - RedisStore  — for clients that share one session across processes.
//
// Two well-known keys are used by the session layer: KeyAccessToken and
// KeyRefreshToken. Absence of KeyAccessToken is the sole source of truth
// for "no session" at process start.
//
// # Usage
//
//	store, err := credstore.NewFileStore("~/.config/roster/credentials.yaml")
//	if err != nil {
//	    // handle error
//	}
//	err = store.Set(ctx, credstore.KeyAccessToken, token)
//
// All implementations return ErrKeyNotFound from Get for missing keys;
// Delete of a missing key is a no-op.
package credstore
