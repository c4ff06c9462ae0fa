// Package errs holds the typed failures of the training and inference pipelines.
// All of them unwrap to their cause and can be matched with errors.As.
package errs

import "fmt"

// AnnotationFormatError reports a malformed annotation record: bad offsets, overlapping spans, unknown label.
type AnnotationFormatError struct {
	File   string
	Index  int
	Reason string
	Err    error
}

func (e *AnnotationFormatError) Error() string {
	msg := fmt.Sprintf("annotation format error in [%s] record %d: %s", e.File, e.Index, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AnnotationFormatError) Unwrap() error { return e.Err }

// CorpusBuildError reports an I/O or serialization failure while building or reading a corpus.
type CorpusBuildError struct {
	Op  string
	Err error
}

func (e *CorpusBuildError) Error() string {
	return fmt.Sprintf("corpus build error (%s): %v", e.Op, e.Err)
}

func (e *CorpusBuildError) Unwrap() error { return e.Err }

// TrainingInvocationError reports a failed training procedure or an unmet artifact post-condition.
type TrainingInvocationError struct {
	RunID string
	Err   error
}

func (e *TrainingInvocationError) Error() string {
	return fmt.Sprintf("training invocation error (run %s): %v", e.RunID, e.Err)
}

func (e *TrainingInvocationError) Unwrap() error { return e.Err }

// ModelLoadError reports a capability that could not be loaded.
type ModelLoadError struct {
	Engine string
	Err    error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("model load error (engine %s): %v", e.Engine, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// RowExtractionError is isolated to one input row.
type RowExtractionError struct {
	Row int
	Err error
}

func (e *RowExtractionError) Error() string {
	return fmt.Sprintf("row %d extraction error: %v", e.Row, e.Err)
}

func (e *RowExtractionError) Unwrap() error { return e.Err }
