package profile

import (
	"fmt"
	"time"

	"github.com/1broseidon/displaysnap/internal/display"
)

// Profile is a named set of per-display target configurations. Display order
// is significant: the reconciler emits operations in declared order so
// re-applying a profile is deterministic.
type Profile struct {
	Name      string          `yaml:"name"`
	Displays  []display.State `yaml:"displays"`
	CreatedAt time.Time       `yaml:"created_at"`
	UpdatedAt time.Time       `yaml:"updated_at"`
}

// ValidationKind classifies what a profile got wrong.
type ValidationKind string

const (
	KindEmptyName         ValidationKind = "empty-name"
	KindNoDisplays        ValidationKind = "no-displays"
	KindDuplicateIdentity ValidationKind = "duplicate-identity"
	KindMultiplePrimaries ValidationKind = "multiple-primaries"
)

// ValidationError reports bad profile data. It is raised at save time and at
// load time so corrupted persisted profiles are rejected before they reach
// the engine.
type ValidationError struct {
	Kind    ValidationKind
	Profile string
	Detail  string
}

func (e *ValidationError) Error() string {
	name := e.Profile
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("invalid profile %q (%s): %s", name, e.Kind, e.Detail)
}

// Validate checks profile invariants: non-empty name, unique display
// identities, at most one primary.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return &ValidationError{Kind: KindEmptyName, Detail: "profile name is required"}
	}
	if len(p.Displays) == 0 {
		return &ValidationError{Kind: KindNoDisplays, Profile: p.Name, Detail: "profile has no displays"}
	}

	seen := make(map[string]bool, len(p.Displays))
	primaries := 0
	for _, d := range p.Displays {
		key := d.Identity.String()
		if seen[key] {
			return &ValidationError{
				Kind:    KindDuplicateIdentity,
				Profile: p.Name,
				Detail:  fmt.Sprintf("display %s appears more than once", key),
			}
		}
		seen[key] = true
		if d.Primary {
			primaries++
		}
	}
	if primaries > 1 {
		return &ValidationError{
			Kind:    KindMultiplePrimaries,
			Profile: p.Name,
			Detail:  fmt.Sprintf("%d displays marked primary", primaries),
		}
	}
	return nil
}
