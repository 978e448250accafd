package scan

import (
	"errors"
	"fmt"
)

// ErrManifestNotFound signals the expected case of a repository that is not
// an npm package. It is never surfaced as a failure.
var ErrManifestNotFound = errors.New("manifest not found")

// AuthError marks an authentication or authorization failure from the hosting
// API. Unlike other per-repository fetch errors it aborts the whole run: a
// bad token would otherwise produce an empty report for every repository.
type AuthError struct {
	Repo string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed fetching %s: %v", e.Repo, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
