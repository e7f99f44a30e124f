// Package common contains shared constants and sentinel errors used across
// bidmarket components.
package common

// AuthorizationHeaderName carries the bearer token on authenticated requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token value in AuthorizationHeaderName.
const BearerPrefix = "Bearer "

// Keys of the persisted session. They match the names the web client used so
// an exported browser profile can be imported as is.
const (
	SessionTokenKey = "token"
	SessionRoleKey  = "role"
	SessionUserKey  = "user"
)
