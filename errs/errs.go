package errs

import (
	"errors"
)

var (
	// ErrNetwork indicates a transport failure or a non-success status while fetching a player script.
	ErrNetwork = errors.New("network error")
	// ErrSyntax indicates the player script could not be parsed.
	ErrSyntax = errors.New("syntax error")
	// ErrStructure indicates the player script has an unrecognized outer wrapper.
	ErrStructure = errors.New("unexpected player structure")
	// ErrAmbiguous indicates more than one distinct candidate was found for a function family.
	ErrAmbiguous = errors.New("ambiguous function candidates")
	// ErrEvaluation indicates the synthesized solver code threw while running.
	ErrEvaluation = errors.New("evaluation failed")
	// ErrMissingSolver indicates a required solver does not exist for the player.
	ErrMissingSolver = errors.New("missing solver")
	// ErrMissingParameter indicates a required input value is absent from the request.
	ErrMissingParameter = errors.New("missing parameter")
	// ErrStsNotFound indicates the player script carries no signature timestamp.
	ErrStsNotFound = errors.New("signature timestamp not found")
	// ErrInvalidURL indicates a player or stream URL that cannot be used.
	ErrInvalidURL = errors.New("invalid url")
)

// IsClientError reports whether err is deterministic given the caller's inputs
// and should not be retried.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingSolver) ||
		errors.Is(err, ErrMissingParameter) ||
		errors.Is(err, ErrInvalidURL)
}
