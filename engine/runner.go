package engine

import "context"

// Runner executes one clustering job. Implementations report intermediate
// output through progress and return the finished output bundle; a nil
// progress function must be tolerated. Run is called from worker goroutines
// and must be safe for concurrent use.
type Runner interface {
	Run(ctx context.Context, job *Job, progress func(text string)) (*Result, error)
}

// RunnerFunc adapts a plain function to the Runner interface
type RunnerFunc func(ctx context.Context, job *Job, progress func(text string)) (*Result, error)

// Run implements Runner
func (f RunnerFunc) Run(ctx context.Context, job *Job, progress func(text string)) (*Result, error) {
	return f(ctx, job, progress)
}
