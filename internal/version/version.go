package version

import (
	"fmt"

	"github.com/hashicorp/go-version"
)

// AppVersion is overridden at build time with -ldflags "-X ...AppVersion=v1.2.3".
var AppVersion = "v0.4.0"

// Current parses AppVersion.
func Current() (*version.Version, error) {
	return version.NewVersion(AppVersion)
}

// Satisfies reports whether AppVersion meets constraint, e.g. ">= 0.3, < 1.0".
// An empty constraint always passes.
func Satisfies(constraint string) (bool, error) {
	if constraint == "" {
		return true, nil
	}
	c, err := version.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	current, err := Current()
	if err != nil {
		return false, fmt.Errorf("invalid app version %q: %w", AppVersion, err)
	}
	return c.Check(current), nil
}
