/*
Package sessionsdk provides a client SDK for the session service.

# Overview

The package is organized around two types:

  - Client: unauthenticated operations (sign-up, health probes) and the
    entry points that create authenticated Sessions
  - Session: an authenticated session that keeps its access token fresh in
    the background

Create a Client and sign in:

	client := sessionsdk.NewClient("https://sessions.example.com")

	store := &sessionsdk.FileTokenStore{Path: "/var/lib/app/refresh-token"}
	session, err := client.SignIn(ctx, "alice@example.com", "password", store)

Or resume a previous session from the persisted refresh token:

	session, err := client.ResumeSession(ctx, store)
	if errors.Is(err, sessionsdk.ErrNoSession) {
		// First visit, nothing stored. Prompt for credentials.
	}

# Token lifecycle

The service issues two tokens: a short-lived access token presented on every
authenticated call, and a long-lived refresh token whose identifier the
server tracks as the session of record. The Session holds the access token
in memory only and persists the refresh token through its TokenStore.

Shortly before the access token expires the Session calls the refresh
endpoint, which mints a new access token without touching server-side
session state. When the server reports that role assignments have drifted
from the token's snapshot, the Session falls back to the renew endpoint,
which re-reads roles and rotates the refresh token. The rotated token is
persisted and the old one is dead from that moment on.

At most one refresh cycle is in flight at a time. Concurrent triggers, such
as the timer firing while a caller invokes Refresh after a 401, collapse
into a single network round trip.

If both the refresh and renew calls fail, the session ends: client state is
cleared, the persisted token is removed, and the OnSignedOut callback fires
exactly once.

# Sign-out

SignOut revokes the session on the server and removes the persisted token.
Both sides matter: clearing only the client leaves the refresh token usable
from elsewhere until it expires naturally, and clearing only the server
leaves the client believing it is signed in. Close, by contrast, just stops
the background scheduler and keeps the persisted token for a later resume.

# Thread safety

Sessions are safe for concurrent use. A single Session can be shared by any
number of goroutines making authenticated requests.
*/
package sessionsdk
