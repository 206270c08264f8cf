package batch

import (
	"fmt"

	"github.com/pkg/errors"
)

// BatchError error interface with code and stack trace
type BatchError interface {
	Code() string
	Message() string
	Error() string
	StackTrace() errors.StackTrace
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

type batchErr struct {
	code string
	err  error
}

func (err *batchErr) Code() string {
	return err.code
}

func (err *batchErr) Message() string {
	return err.err.Error()
}

func (err *batchErr) Error() string {
	return fmt.Sprintf("batch err, code:%v, message:%v", err.code, err.err.Error())
}

func (err *batchErr) StackTrace() errors.StackTrace {
	if st, ok := err.err.(stackTracer); ok {
		return st.StackTrace()
	}
	if cause, ok := errors.Cause(err.err).(stackTracer); ok {
		return cause.StackTrace()
	}
	return nil
}

func (err *batchErr) Unwrap() error {
	return err.err
}

// NewBatchError build a BatchError from a code and a printf-style message.
// If the last argument is an error it is wrapped as the cause.
func NewBatchError(code string, msg string, args ...interface{}) BatchError {
	if len(args) > 0 {
		if cause, ok := args[len(args)-1].(error); ok {
			return &batchErr{code: code, err: errors.Wrapf(cause, msg, args[:len(args)-1]...)}
		}
		return &batchErr{code: code, err: errors.Errorf(msg, args...)}
	}
	return &batchErr{code: code, err: errors.New(msg)}
}

const (
	// ErrCodeConfig invalid job configuration, reported before any chunk runs
	ErrCodeConfig = "config"
	// ErrCodeAborted cancellation observed at an admission boundary
	ErrCodeAborted = "aborted"
	// ErrCodeConcurrency scheduler could not admit a chunk
	ErrCodeConcurrency = "concurrency"
	// ErrCodeDbFail data sink failure outside the chunk path
	ErrCodeDbFail = "db_fail"
	// ErrCodeGeneral aggregation-path or other catastrophic fault
	ErrCodeGeneral = "general"
)
