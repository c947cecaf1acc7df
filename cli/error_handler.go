package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/grovetools/elementipelago/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message for err based on its code and returns err.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	out := h.Out
	if out == nil {
		out = os.Stderr
	}
	detail := func(key string) interface{} {
		if e, ok := errors.As(err); ok {
			return e.Details[key]
		}
		return nil
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(out, "❌ Configuration not found: %v\n", detail("path"))
		fmt.Fprintf(out, "Create elementipelago.yml or pass --config.\n")

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(out, "❌ Invalid configuration: %v\n", err)

	case errors.ErrCodeAddressInvalid:
		fmt.Fprintf(out, "❌ Server address %q is not valid\n", fmt.Sprint(detail("address")))
		fmt.Fprintf(out, "Use host:port, optionally prefixed with ws:// or wss://.\n")

	case errors.ErrCodeConnectFailed:
		fmt.Fprintf(out, "❌ Could not reach server at %v (tried wss:// then ws://)\n", detail("address"))

	case errors.ErrCodeConnectionRefused:
		reasons, _ := detail("reasons").([]string)
		fmt.Fprintf(out, "❌ Server refused login: %s\n", strings.Join(reasons, ", "))

	case errors.ErrCodeCacheDirUnavailable:
		fmt.Fprintf(out, "❌ Datapackage cache directory %v cannot be created\n", detail("dir"))
		fmt.Fprintf(out, "Set cache.dir in elementipelago.yml to a writable directory.\n")

	default:
		fmt.Fprintf(out, "❌ Error: %v\n", err)
	}

	if h.Verbose {
		if e, ok := errors.As(err); ok {
			fmt.Fprintf(out, "\nError details:\n%s\n", e.ToJSON())
		}
	}
	return err
}
