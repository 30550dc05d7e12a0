package model

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrClusterUnreachable = errors.New("cluster unreachable")
	ErrOperationFailed    = errors.New("operation failed")
	ErrBuildFailed        = errors.New("build failed")
	ErrInvalidDefinition  = errors.New("invalid service definition")
)
