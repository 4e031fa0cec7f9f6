package stencil

import (
	"fmt"
	"os"
	"path/filepath"
)

// Notifier is told about every finished pass. Notifications are best effort:
// the driver logs a returned error and carries on.
type Notifier interface {
	PassCompleted(pass, total int) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(pass, total int) error

// PassCompleted implements Notifier
func (f NotifierFunc) PassCompleted(pass, total int) error {
	return f(pass, total)
}

// FlagFileNotifier rewrites a small marker file after every pass so an
// external viewer polling the file can follow progress.
type FlagFileNotifier struct {
	Path string
}

// NewFlagFileNotifier returns a notifier writing to path, or to
// DefaultFlagPath when path is empty.
func NewFlagFileNotifier(path string) *FlagFileNotifier {
	if path == "" {
		path = DefaultFlagPath
	}
	return &FlagFileNotifier{Path: path}
}

// PassCompleted implements Notifier
func (n *FlagFileNotifier) PassCompleted(pass, total int) error {
	if dir := filepath.Dir(n.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return NewIOError("FlagFileNotifier", "cannot create flag directory", err)
		}
	}
	msg := fmt.Sprintf("Iteration %d completed\n", pass)
	if err := os.WriteFile(n.Path, []byte(msg), 0644); err != nil {
		return NewIOError("FlagFileNotifier", "cannot write flag file", err)
	}
	return nil
}

// ParseFlagMessage extracts the pass number from a flag file body.
func ParseFlagMessage(body string) (int, error) {
	var pass int
	if _, err := fmt.Sscanf(body, "Iteration %d completed", &pass); err != nil {
		return 0, NewInvalidArgError("ParseFlagMessage", fmt.Sprintf("unrecognised flag body %q", body))
	}
	return pass, nil
}
