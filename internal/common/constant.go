// Package common contains shared constants, helpers and sentinel errors used
// across the uploader client and the development backend.
package common

const (
	// AuthorizationHeaderName carries the bearer access token.
	AuthorizationHeaderName = "Authorization"
	// BearerPrefix precedes the access token in AuthorizationHeaderName.
	BearerPrefix = "Bearer "
	// AcceptLanguageHeaderName carries the caller locale so the backend can
	// localize field-level error messages.
	AcceptLanguageHeaderName = "Accept-Language"
	// DefaultLocale is used when no locale is configured.
	DefaultLocale = "en"
)
