// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides id generation and the admin session token.

# Admin Sessions

The admin panel is gated by one shared secret. A successful login issues a
stateless HMAC-signed cookie token that embeds its own expiry (one day):

	token := auth.GenerateSessionToken(salt, time.Now().Add(auth.SessionTTL))

Validation recomputes the signature and checks the expiry; there is no
server-side session store, matching the cookie-only session model of the
rest of the app. Logout simply clears the cookie.

# IDs

GenerateID produces crypto/rand hex identifiers for candidates, policies,
and comments.
*/
package auth
