package mirror

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidLocator indicates the account or repository cannot address an upstream wiki.
var ErrInvalidLocator = eris.New("invalid wiki locator")

// Locator identifies one upstream wiki resource. An empty Page addresses the wiki root.
type Locator struct {
	Account    string
	Repository string
	Page       string
}

// Validate reports whether the locator can be turned into an upstream path.
func (l Locator) Validate() error {
	if err := validateSegment("account", l.Account); err != nil {
		return err
	}
	return validateSegment("repository", l.Repository)
}

// Path returns the wiki path relative to the upstream host, e.g. "/acct/repo/wiki/Home".
// The root page keeps its trailing slash.
func (l Locator) Path() string {
	return fmt.Sprintf("/%s/%s/wiki/%s", l.Account, l.Repository, l.Page)
}

func validateSegment(name, value string) error {
	switch {
	case value == "":
		return eris.Wrapf(ErrInvalidLocator, "%s is required", name)
	case value == "." || value == "..":
		return eris.Wrapf(ErrInvalidLocator, "%s %q is not a valid name", name, value)
	case strings.ContainsAny(value, "/?#"):
		return eris.Wrapf(ErrInvalidLocator, "%s %q contains reserved characters", name, value)
	}
	return nil
}
