// Package throttle enforces randomized minimum spacing between requests
// to the same remote host.
//
// The interval is randomized within a configured band so request timing
// does not present a fixed fingerprint, escalates when the remote site
// starts serving challenges, and decays back after sustained success.
package throttle
