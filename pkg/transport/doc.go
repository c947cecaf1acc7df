// Package transport owns the websocket connection to a multiworld server.
//
// A Worker runs on its own goroutine. It consumes Commands from a queue and
// produces Events on another queue; the two queues are the only thing it
// shares with the application. Frames are passed through as text, decoding
// happens on the application side.
package transport
