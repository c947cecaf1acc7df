// Package protocol defines the wire shape of the multiworld session protocol.
//
// Every transport text frame carries a JSON array of objects tagged by their
// "cmd" field. Client messages are encoded as one array per frame, even when a
// single message is sent. Server frames may batch several messages; Decode
// returns them in the order the server emitted them.
//
// Unknown server tags decode to *Unrecognized instead of failing the batch.
// Per-game datapackage objects are decoded strictly: an unexpected field fails
// the whole frame.
package protocol
