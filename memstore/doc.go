// Package memstore is an in-memory authcore.Store for examples and tests.
// It holds accounts in a mutex-guarded map and implements the atomic
// update contract with plain locking. Not meant for production.
package memstore
