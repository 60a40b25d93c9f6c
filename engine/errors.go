package engine

import "errors"

// ErrAlreadyLearning is returned by StartLearning while a session is active.
// It is a usage error, not a fault: the caller's session is untouched.
var ErrAlreadyLearning = errors.New("learning session already active")
