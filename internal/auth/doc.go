// Package auth implements the vidhub account and session lifecycle.
//
// It provides:
//   - Argon2id password hashing, with verification of legacy bcrypt hashes
//     and transparent upgrade on login
//   - HS256 access and refresh tokens signed with independent keys
//   - A single live refresh token per account, replaced only through an
//     atomic compare-and-rotate (SQLite or Redis)
//   - Request authentication that resolves an access token to an Identity
//
// A refresh token is single-use. Presenting a superseded one is rejected
// with ErrRefreshReused and leaves the live session in place.
package auth
