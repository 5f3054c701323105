// Package materializer turns untrusted model output into files on disk.
//
// The pipeline has two halves with different failure semantics. Parsing and
// shape validation are all-or-nothing: a response that is not a well-formed
// plan is rejected before the filesystem is touched. Writing is per-file: each
// entry is attempted in plan order and failures are recorded in the Result
// without stopping the remaining writes.
//
// All writes go through an os.Root opened on the output root, so neither a
// crafted filename nor a symlink inside the root can place a file outside it.
package materializer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goaux/stacktrace/v2"
	"github.com/rs/zerolog/log"
)

const (
	dirPerm  fs.FileMode = 0o755
	filePerm fs.FileMode = 0o644
)

// Materializer writes plans under a single output root.
type Materializer struct {
	root string
}

// New returns a Materializer for outputRoot. The directory is created on the
// first Materialize call, not here.
func New(outputRoot string) (*Materializer, error) {
	if outputRoot == "" {
		return nil, fmt.Errorf("output root cannot be empty")
	}
	abs, err := stacktrace.Trace2(filepath.Abs(outputRoot))
	if err != nil {
		return nil, fmt.Errorf("resolve output root: %w", err)
	}
	return &Materializer{root: abs}, nil
}

// Root returns the absolute output root.
func (m *Materializer) Root() string {
	return m.root
}

// Materialize parses responseText into a plan and writes it. The returned
// error is non-nil only when nothing was written: an invalid payload
// (ErrInvalidPayload) or an output root that cannot be created or opened.
// Per-file failures are reported through Result.
func (m *Materializer) Materialize(responseText string) (*Result, error) {
	plan, err := ParsePlan(responseText)
	if err != nil {
		log.Error().Err(err).Msg("rejecting response")
		return nil, err
	}
	return m.Write(plan)
}

// Write ensures the output root exists and writes every entry of plan in
// order, overwriting existing files.
func (m *Materializer) Write(plan Plan) (*Result, error) {
	if err := stacktrace.Trace(os.MkdirAll(m.root, dirPerm)); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}
	root, err := stacktrace.Trace2(os.OpenRoot(m.root))
	if err != nil {
		return nil, fmt.Errorf("open output root: %w", err)
	}
	defer root.Close()

	res := &Result{Root: m.root, Outcomes: make([]Outcome, 0, len(plan))}
	for _, spec := range plan {
		out := m.writeOne(root, spec)
		if out.OK() {
			log.Debug().Str("filename", spec.Filename).Int("bytes", out.Bytes).Msg("file written")
		} else {
			log.Warn().Err(out.Err).Str("filename", spec.Filename).Msg("file not written")
		}
		res.Outcomes = append(res.Outcomes, out)
	}

	log.Info().
		Str("root", m.root).
		Int("written", len(res.Written())).
		Int("failed", len(res.Failed())).
		Msg("plan materialized")
	return res, nil
}

func (m *Materializer) writeOne(root *os.Root, spec FileSpec) Outcome {
	out := Outcome{Filename: spec.Filename}

	rel, err := localPath(spec.Filename)
	if err != nil {
		out.Err = &FileError{Filename: spec.Filename, Op: "validate", Err: err}
		return out
	}
	if err := mkdirAll(root, filepath.Dir(rel)); err != nil {
		out.Err = &FileError{Filename: spec.Filename, Op: "mkdir", Err: err}
		return out
	}
	if err := writeFile(root, rel, spec.Content); err != nil {
		out.Err = &FileError{Filename: spec.Filename, Op: "write", Err: err}
		return out
	}

	out.Path = filepath.Join(m.root, rel)
	out.Bytes = len(spec.Content)
	return out
}

// mkdirAll creates dir and its parents inside root. Existing entries are left
// for the following open to reject if they are not directories.
func mkdirAll(root *os.Root, dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if err := mkdirAll(root, filepath.Dir(dir)); err != nil {
		return err
	}
	err := root.Mkdir(dir, dirPerm)
	if err != nil && !errors.Is(err, fs.ErrExist) {
		return stacktrace.Trace(err)
	}
	return nil
}

func writeFile(root *os.Root, name, content string) error {
	f, err := stacktrace.Trace2(root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm))
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return stacktrace.Trace(err)
	}
	return stacktrace.Trace(f.Close())
}
