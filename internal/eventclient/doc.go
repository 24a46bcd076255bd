// Package eventclient delivers protocol messages to a media player's event
// server over UDP.
//
// Delivery is fire-and-forget: a successful send means every datagram was
// handed to the local network stack. Failures (encoding, resolution, socket
// errors, timeouts) are logged and counted and reported to callers as false.
package eventclient
