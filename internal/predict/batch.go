package predict

import "github.com/sourcegraph/conc/iter"

// Result pairs the windows of one request with its error.
type Result struct {
	Windows []Window
	Err     error
}

// Batch predicts every request concurrently. Results are in input order.
func Batch(reqs []Request) []Result {
	return iter.Map(reqs, func(r *Request) Result {
		w, err := Predict(*r)
		return Result{Windows: w, Err: err}
	})
}
