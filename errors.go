package reagent

import "errors"

var (
	ErrInvalidTool      = errors.New("invalid tool specification")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidTask      = errors.New("invalid task")
	ErrToolNameConflict = errors.New("tool name conflict")
	ErrUnknownTool      = errors.New("unknown tool")
)
