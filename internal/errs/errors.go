package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateActiveJob = errors.New("a job for this media is already processing")
	ErrTooManyJobs        = errors.New("too many jobs running, try again later")
	ErrTagExists          = errors.New("a tag with this name already exists")
	ErrEmptyTranscript    = errors.New("transcription produced no text")
)

// StageError marks a pipeline failure with the stage it happened in.
// The orchestrator converts every stage failure into one of these so
// the task message and the durable stub carry the same text.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
