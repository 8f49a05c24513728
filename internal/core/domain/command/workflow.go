package command

import (
	"errors"
	"imgfx/internal/core/domain"
)

// settled reports whether err needs no further handling by a command: workflow errors
// reach the chat through the session's renderer and superseded results are dropped.
func settled(err error) bool {
	var werr *domain.WorkflowError
	return err == nil || errors.As(err, &werr) || errors.Is(err, domain.ErrSuperseded)
}
