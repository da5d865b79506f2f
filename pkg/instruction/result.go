package instruction

import (
	"github.com/jxeal/superdev-quiz/pkg/apierr"
)

// ApiResult is the response envelope of every operation. Exactly one of Data
// and Error is set.
type ApiResult[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`

	err error
}

func Success[T any](data T) ApiResult[T] {
	return ApiResult[T]{
		Success: true,
		Data:    &data,
	}
}

func Failure[T any](err error) ApiResult[T] {
	if err == nil || err.Error() == "" {
		err = apierr.Wrap(err, apierr.KindInternal, "unknown error")
	}

	return ApiResult[T]{
		Success: false,
		Error:   err.Error(),
		err:     err,
	}
}

// Err returns the error a failed result was built from, or nil on success.
func (r ApiResult[T]) Err() error {
	return r.err
}
