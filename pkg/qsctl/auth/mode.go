package auth

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// InteractionMode says whether the login flow may offer the manual-paste
// prompt. It is resolved once at the command boundary and passed into
// AcquireToken; the flow itself never inspects the environment.
type InteractionMode int

const (
	// NonInteractive restricts the race to network delivery and the
	// deadline.
	NonInteractive InteractionMode = iota
	// Interactive additionally offers the manual-paste prompt on stdin.
	Interactive
)

func (m InteractionMode) String() string {
	if m == Interactive {
		return "interactive"
	}
	return "non-interactive"
}

// DetectInteractionMode resolves the mode from the ambient environment: a CI
// indicator or an explicit non-interactive/mock flag forces NonInteractive,
// as does a stdin that is not a terminal.
func DetectInteractionMode() InteractionMode {
	if os.Getenv("CI") != "" {
		return NonInteractive
	}
	if strings.EqualFold(os.Getenv("QSCTL_NON_INTERACTIVE"), "true") {
		return NonInteractive
	}
	fd := os.Stdin.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return NonInteractive
	}
	return Interactive
}
