// Package middleware exposes an HTTP guard built on authcore session
// tokens.
//
// [Guard] reads the Authorization header, calls Engine.Authenticate, and
// injects the resolved account into the request context, where handlers
// retrieve it with [AccountFromContext]. The package translates HTTP
// semantics into Engine calls and makes no authentication decisions of its
// own.
package middleware
