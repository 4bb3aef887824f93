package base

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	if CodeOf(nil) != CodeOK {
		t.Error("nil error should be CodeOK")
	}
	if CodeOf(errors.New("plain")) != CodeUnknown {
		t.Error("uncoded error should be CodeUnknown")
	}
	if CodeOf(New(CodeNotFound, "missing")) != CodeNotFound {
		t.Error("coded error should surface its code")
	}

	wrapped := fmt.Errorf("outer: %w", Errorf(CodeRunError, "boom %d", 7))
	if CodeOf(wrapped) != CodeRunError {
		t.Error("CodeOf should unwrap")
	}
}

func TestErrorMessage(t *testing.T) {
	err := New(CodeInvalidArgument, "no statement")
	if got := err.Error(); got != "invalid argument: no statement" {
		t.Errorf("Error() = %q", got)
	}
}
