package recyclebin

import (
	"errors"
	"fmt"
)

var (
	ErrNoInput               = errors.New("no paths given")
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrQuotaExceeded         = errors.New("recycle bin quota exceeded")
	ErrInsufficientSpace     = errors.New("insufficient disk space")
	ErrPayloadMissing        = errors.New("payload missing from recycle bin")
	ErrDestinationUnwritable = errors.New("destination is not writable")
	ErrAllFailed             = errors.New("no item could be processed")
	ErrBadPattern            = errors.New("invalid search pattern")
)

// ItemError 是批量操作中单个条目的失败
type ItemError struct {
	Path string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
