// Package auth provides local accounts and cookie sessions for the web UI.
//
// Anyone may browse the book list and book pages. Creating, editing and
// deleting books requires a signed-in account. Accounts are created on the
// /signup page unless DISABLE_SIGNUPS is "1", in which case only the
// create-user command can add them.
//
// # Configuration
//
//	DISABLE_SIGNUPS=1                # Turn off self-service signup
//	AUTH_SESSION_SECRET=<hex>        # CSRF signing key, auto-generated if empty
//	AUTH_SESSION_LIFETIME=168h       # Session duration
//	AUTH_BCRYPT_COST=12              # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true         # HTTPS-only cookies
//
// # Usage
//
//	authService := auth.NewService(users.NewRepository(db.DB), cfg.Auth)
//	sessions := auth.NewSessionManager(sqlDB, cfg.Auth)
//	router.Use(sessions.SessionLoadSave())
//	router.Use(auth.NewMiddleware(authService, sessions).Handler())
//
// Extract the user in handlers:
//
//	userID := auth.GetUserID(c) // "" for anonymous requests
package auth
