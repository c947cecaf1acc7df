package cmd

import (
	"fmt"
	"strings"

	"github.com/grovetools/elementipelago/errors"
	"github.com/grovetools/elementipelago/pkg/graph"
	"github.com/grovetools/elementipelago/pkg/protocol"
)

// intentSink is the part of the client that console input drives.
type intentSink interface {
	SendItem(graph.Element) error
	Say(string) error
	UpdateStatus(protocol.ClientStatus) error
}

var statusNames = map[string]protocol.ClientStatus{
	"ready":   protocol.ClientReady,
	"playing": protocol.ClientPlaying,
	"goal":    protocol.ClientGoal,
}

// dispatchInput turns one console line into an intent:
//
//	!craft Compound 3   report a crafted element
//	!status goal        report ready, playing or goal
//	anything else       chat message
func dispatchInput(sink intentSink, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	switch {
	case strings.HasPrefix(line, "!craft "):
		name := strings.TrimSpace(strings.TrimPrefix(line, "!craft "))
		el, ok := graph.ParseElement(name)
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown element %q", name))
		}
		return sink.SendItem(el)
	case strings.HasPrefix(line, "!status "):
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "!status ")))
		status, ok := statusNames[name]
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown status %q (ready, playing, goal)", name))
		}
		return sink.UpdateStatus(status)
	default:
		return sink.Say(line)
	}
}
