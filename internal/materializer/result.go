package materializer

import "fmt"

// FileError is the per-file failure recorded in a Result. Op is the stage that
// failed: "validate", "mkdir" or "write".
type FileError struct {
	Filename string
	Op       string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Filename, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Outcome is what happened to one plan entry. Path is set on success.
type Outcome struct {
	Filename string
	Path     string
	Bytes    int
	Err      error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// Result lists one Outcome per plan entry, in plan order.
type Result struct {
	Root     string
	Outcomes []Outcome
}

// OK reports whether every entry was written.
func (r *Result) OK() bool {
	return len(r.Failed()) == 0
}

func (r *Result) Written() []Outcome {
	return r.filter(true)
}

func (r *Result) Failed() []Outcome {
	return r.filter(false)
}

func (r *Result) filter(ok bool) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.OK() == ok {
			out = append(out, o)
		}
	}
	return out
}
