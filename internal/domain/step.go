package domain

// StepResult is the outcome of one enrichment step: a value, or the reason
// the step produced nothing.
type StepResult[T any] struct {
	Value T
	Err   error
}

// Succeeded wraps a successful step value.
func Succeeded[T any](v T) StepResult[T] { return StepResult[T]{Value: v} }

// Failed wraps a step failure.
func Failed[T any](err error) StepResult[T] { return StepResult[T]{Err: err} }

func (r StepResult[T]) OK() bool { return r.Err == nil }

// Ptr returns a pointer to the value, or nil when the step failed.
func (r StepResult[T]) Ptr() *T {
	if r.Err != nil {
		return nil
	}
	v := r.Value
	return &v
}
