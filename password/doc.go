// Package password provides Argon2id credential hashing in PHC string
// format. The plaintext is never stored; verification recomputes the hash
// with the parameters embedded in the stored string.
package password
