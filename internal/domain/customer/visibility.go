package customer

// Visibility governs which customer fields a request may read or write.
// Public requests never see or persist sensitive fields; internal requests
// see everything.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityInternal Visibility = "internal"
)

// Classify maps the transport-level trust signal to a visibility mode.
// Anything other than an affirmative signal resolves to public, so an
// absent or malformed header fails closed.
func Classify(trusted bool) Visibility {
	if trusted {
		return VisibilityInternal
	}
	return VisibilityPublic
}

// IsInternal returns true for the internal visibility mode
func (v Visibility) IsInternal() bool {
	return v == VisibilityInternal
}

// String returns the cache-key representation of the mode
func (v Visibility) String() string {
	return string(v)
}
