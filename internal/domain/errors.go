package domain

import "errors"

var (
	ErrNodeNotFound      = errors.New("node not found")
	ErrDuplicateNode     = errors.New("duplicate node id")
	ErrDuplicatePort     = errors.New("duplicate port id")
	ErrInvalidBranchPort = errors.New("branch links must use the true or false port")
	ErrLinkNotFound      = errors.New("link not found")
	ErrPropertyNotFound  = errors.New("property not found")
	ErrPropertyExists    = errors.New("property name already exists")
	ErrInvalidNodeKind   = errors.New("invalid node kind")
)
