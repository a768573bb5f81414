// Package session holds parsed credentials and rotating client-identity
// headers for outbound requests.
//
// Credentials are parsed once from their raw configuration form (cookie
// strings or API keys) into a store that is shared read-only by every
// client. The only mutation path is an explicit Refresh, so a running
// batch always observes a consistent credential set.
package session
