// Package jwt wraps golang-jwt with the claim set and validation policy
// used by authcore session tokens.
package jwt
