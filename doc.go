// Package authcore is the credential and identity-verification core of an
// account service.
//
// It issues signed session tokens, manages short-lived one-time codes for
// email verification and password recovery, and enforces a minimum interval
// between forced code resends. Persistence and outbound email are external
// collaborators supplied by the caller through the [Store] and [Mailer]
// interfaces; HTTP transport, request-body validation, and configuration
// loading stay outside the engine.
//
// Build an [Engine] with the [Builder]:
//
//	engine, err := authcore.New().
//		WithStore(store).
//		WithMailer(mailer).
//		WithSigningKey(secret).
//		Build()
//
// All flows accept a context and return typed errors (see errors.go) that
// callers match with errors.Is to choose a transport-level response.
package authcore
