package workspace

import "fmt"

// Severity classifies filesystem operation failures during reconciliation.
//
// The boot procedure deliberately treats failures asymmetrically: losing a
// stale path or a best-effort chmod does not matter, while a volume link
// that cannot be created means the toolkit would silently write into the
// ephemeral filesystem and lose everything on teardown. The classification
// is explicit here so the policy is visible instead of living in ignored
// return values.
type Severity int

const (
	// SeverityTolerated failures are logged and reconciliation continues.
	// Covers stale-path cleanup, permission setting and database
	// initialization/copy failures.
	SeverityTolerated Severity = iota

	// SeverityFatal failures abort the boot. Covers the primary volume
	// links; the toolkit cannot function without them.
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityTolerated:
		return "tolerated"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// OpError describes a failed reconciliation operation along with its
// severity classification.
type OpError struct {
	// Op names the operation that failed (e.g. "link", "mkdir").
	Op string

	// Path is the filesystem path the operation targeted.
	Path string

	// Severity is the failure classification.
	Severity Severity

	// Err is the underlying cause.
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// fatalErr builds a SeverityFatal OpError.
func fatalErr(op, path string, err error) *OpError {
	return &OpError{Op: op, Path: path, Severity: SeverityFatal, Err: err}
}
