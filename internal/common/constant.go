// Package common contains shared constants and sentinel errors used across
// ragdesk components.
package common

// Header names set on outbound API requests.
const (
	AuthorizationHeaderName = "Authorization"
	RequestIDHeaderName     = "X-Request-ID"
	BearerPrefix            = "Bearer "
)

// Durable keys written by the credential store. Clearing a session removes
// both of them.
const (
	CredentialsKey = "credentials"
	SessionKey     = "auth-session"
)

// DefaultBaseURL is used when neither the environment nor the config file
// names an API base URL.
const DefaultBaseURL = "http://127.0.0.1:8000"

// BaseURLEnvName is the environment variable holding the API base URL.
const BaseURLEnvName = "RAGDESK_API_BASE_URL"
