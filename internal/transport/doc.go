// Package transport builds the HTTP clients the collection engine uses
// to reach targets: direct, through a SOCKS5 proxy, or through an
// embedded Tor daemon. Clients carry no cookie jar; credentials are
// injected per request by their owners.
package transport
