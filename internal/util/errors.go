package util

import "errors"

var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrExamNotFound         = errors.New("exam not found")
	ErrExamWindowClosed     = errors.New("exam window has closed")
	ErrExamNotStarted       = errors.New("exam has not started yet")
	ErrOngoingAttemptExists = errors.New("an attempt for this exam is already in progress")
	ErrRetakesDisallowed    = errors.New("retakes are not allowed for this exam")
	ErrMaxAttemptsReached   = errors.New("maximum number of attempts reached")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrAttemptNotActive     = errors.New("attempt is not in progress")
	ErrInvalidTransition    = errors.New("invalid attempt status transition")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrAnswerNotFound       = errors.New("answer not found")
	ErrTemplateNotFound     = errors.New("answer template not found")
	ErrGradingUnavailable   = errors.New("grading unavailable")
	ErrAttemptNotCompleted  = errors.New("attempt has not been completed")
	ErrExamHasAttempts      = errors.New("exam already has registered attempts")
)
