// Package auth provides authentication and authorization for the API.
//
// Users log in with email and password and receive an HS256 JWT whose subject
// is their user ID. Regular users must also send their username; librarians
// need not. Tokens carry the user's fs_uniquifier, so a password change
// invalidates every token issued before it.
//
// # Configuration
//
//	JWT_SECRET=<random>              # generated per process when empty
//	AUTH_TOKEN_EXPIRY=1h             # access token lifetime
//	AUTH_BCRYPT_COST=12              # bcrypt cost factor
//	AUTH_MAX_LOGIN_ATTEMPTS=5        # failures before lockout
//	AUTH_RATE_LIMIT_WINDOW=15m
//	AUTH_LOCKOUT_DURATION=30m
//
// # Usage
//
//	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
//	service := auth.NewService(db, cfg.Auth, tokens, auditor)
//	mw := auth.NewMiddleware(service)
//	librarian := api.Group("", mw.RequireAuth(), mw.RequireLibrarian())
//
// Extract the caller in handlers:
//
//	userID := auth.GetUserID(c)
//	if auth.IsLibrarian(c) { ... }
package auth
