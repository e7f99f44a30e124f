// Package client contains client-side building blocks for the bidding
// marketplace.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     login, signup OTP request/verification, profile details, the project
//     listing, project creation, bid submission, bid selection and project
//     completion with a deliverable.
//  2. A concrete REST implementation (see HTTPClient) that injects the bearer
//     token from a TokenSource, reports 401 responses to an unauthorized
//     handler, and maps failures to typed errors.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations) for
//     the CLI, wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Non-2xx responses are returned as *APIError, whose message is the server's
// own or GenericErrorMessage. A 401 matches common.ErrUnauthorized through
// errors.Is. Transport failures wrap common.ErrUnavailable and malformed
// success bodies wrap common.ErrParse. Authenticated calls made without a
// token fail with common.ErrAuthorization before any request is sent.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation and the configured timeout.
package client
