// Package routes decides where a client UI may navigate based on the
// session's authentication state. It knows nothing about how navigation is
// performed; it answers "allow, or redirect where" and lets the embedding
// application move.
//
// A Guard checks individual navigation attempts: protected destinations
// redirect to the login route (carrying the originally intended
// destination, so a successful login can resume it) while the session is
// unauthenticated, and the login route itself redirects home once the
// session is authenticated. The Guard can also watch session events and
// report a forced login redirect whenever the session is torn down.
package routes
