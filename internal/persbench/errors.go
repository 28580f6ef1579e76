package persbench

import (
	"fmt"
)

// NetworkError reports a download that did not complete.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("download of %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ExtractionError reports a corrupt archive or a missing archive member.
type ExtractionError struct {
	Archive string
	Member  string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("extraction of %s from %s failed: %v", e.Member, e.Archive, e.Err)
	}
	return fmt.Sprintf("extraction of %s failed: %v", e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// PatchError reports a patch that did not apply cleanly.
type PatchError struct {
	Target string
	Patch  string
	Err    error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch %s did not apply to %s: %v", e.Patch, e.Target, e.Err)
}

func (e *PatchError) Unwrap() error { return e.Err }

// ToolError reports an external build tool exiting non-zero.
type ToolError struct {
	Target string
	Tool   string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Tool, e.Target, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }
