// Package log provides slog loggers that mask sensitive values.
//
// The SecureHandler masks values stored under sensitive keys (Cookie,
// Authorization, password, token, ...) and values that look like
// credentials: JWTs, bearer and basic credentials, AWS and Google API keys,
// PEM private key markers and URLs with embedded user:password.
// Masking applies in verbose mode too.
//
//	logger := log.NewLogger(os.Stderr, log.Options{Verbose: true})
//	logger.Warn("fetch failed",
//	    "url", "https://example.com/login",
//	    "cookie", "session=abc123", // logged as ***REDACTED***
//	)
package log
