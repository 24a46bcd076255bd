// Package protocol owns the event-client wire contract.
//
// Ownership boundary:
// - packet, icon and action kinds
// - payload layout for each packet kind
// - fragmentation of one logical message into datagrams
// - decode helpers for listeners and tests
//
// Strings carry a big-endian uint32 length prefix, so any byte sequence is a
// valid header, message or command. The fixed datagram header lives in the
// frame subpackage.
package protocol
