package services

import "errors"

// ErrInvalidArgument is returned for malformed or out-of-range input.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrUnsupportedLanguage is returned when a submission names a language
// outside the supported set.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ErrJudgeUnavailable is returned when the executor or the store fails
// during judging. The submission is not persisted and the caller may
// retry.
var ErrJudgeUnavailable = errors.New("judge unavailable")
