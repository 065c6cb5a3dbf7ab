package optimization

import "sync"

// Recorder keeps the evaluation history of a solve. Its hook may be read from
// another goroutine while the solve runs.
type Recorder struct {
	mu    sync.Mutex
	evals []Evaluation
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Hook returns an IterationHook appending every step to the history.
func (r *Recorder) Hook() IterationHook {
	return func(iteration int, cost float64) {
		r.mu.Lock()
		r.evals = append(r.evals, Evaluation{Iteration: iteration, Cost: cost})
		r.mu.Unlock()
	}
}

// Evaluations returns a copy of the history recorded so far.
func (r *Recorder) Evaluations() []Evaluation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Evaluation(nil), r.evals...)
}

// Len returns the number of recorded steps.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.evals)
}
