package errors

import "errors"

// ErrOptimisticLock means the row changed since it was read.
var ErrOptimisticLock = errors.New("the plan was modified by another request, reload and retry")
