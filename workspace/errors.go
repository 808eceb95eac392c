package workspace

import "errors"

var (
	ErrMissingStructureFile = errors.New("structure file does not exist")
	ErrWorkspaceCollision   = errors.New("workspace already exists")
	ErrWorkspaceNotFound    = errors.New("workspace not found")
	ErrInvalidLabel         = errors.New("invalid experiment label")
)
