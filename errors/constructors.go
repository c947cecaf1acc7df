package errors

import (
	"fmt"
	"strings"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *Error {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *Error {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// AddressInvalid creates an error for a server address that cannot be turned into a URL
func AddressInvalid(address string, cause error) *Error {
	return Wrap(cause, ErrCodeAddressInvalid, fmt.Sprintf("could not parse address into ws/wss URL: %q", address)).
		WithDetail("address", address)
}

// ConnectFailed creates an error for a connection attempt that failed on every candidate
func ConnectFailed(address string, cause error) *Error {
	return Wrap(cause, ErrCodeConnectFailed, "failed to connect (after fallback attempts)").
		WithDetail("address", address)
}

// ConnectionRefused creates an error carrying the server's refusal reasons verbatim
func ConnectionRefused(reasons []string) *Error {
	msg := "connection refused by server"
	if len(reasons) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(reasons, ", "))
	}
	return New(ErrCodeConnectionRefused, msg).
		WithDetail("reasons", reasons)
}

// DecodeFailed creates a frame decode error
func DecodeFailed(cause error) *Error {
	return Wrap(cause, ErrCodeDecodeFailed, "failed to decode server frame")
}

// SlotDataInvalid creates an error for slot data the generator cannot use
func SlotDataInvalid(cause error) *Error {
	return Wrap(cause, ErrCodeSlotDataInvalid, "slot data does not match the expected shape")
}

// CacheDirUnavailable creates an error for a cache directory that cannot be created
func CacheDirUnavailable(dir string, cause error) *Error {
	return Wrap(cause, ErrCodeCacheDirUnavailable, fmt.Sprintf("could not create datapackage cache dir: %s", dir)).
		WithDetail("dir", dir)
}

// CacheWriteFailed creates an error for a cache entry that could not be persisted
func CacheWriteFailed(game, path string, cause error) *Error {
	return Wrap(cause, ErrCodeCacheWriteFailed, fmt.Sprintf("could not write datapackage for %q", game)).
		WithDetail("game", game).
		WithDetail("path", path)
}
