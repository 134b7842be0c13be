package service

import (
	"errors"

	"branchline/internal/repository"
)

var (
	// ErrGraphNotFound is the repository sentinel, re-exported for handlers
	ErrGraphNotFound = repository.ErrGraphNotFound

	ErrInvalidGraphName = errors.New("invalid graph name")
	ErrInvalidGraph     = errors.New("invalid graph document")
	ErrSessionNotFound  = errors.New("session not found")
	ErrTooManySessions  = errors.New("too many active sessions")
)
