package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/tensorplex-labs/genapp/internal/llm"
	"github.com/tensorplex-labs/genapp/internal/materializer"
	"github.com/tensorplex-labs/genapp/internal/pipeline"
)

// printReport writes one line per plan entry followed by a summary. It returns
// an error when any entry was not written.
func printReport(w io.Writer, report *pipeline.Report) error {
	res := report.Result
	for _, o := range res.Outcomes {
		if o.OK() {
			fmt.Fprintf(w, "✔ Created: %s\n", o.Filename)
		} else {
			fmt.Fprintf(w, "✘ Failed: %s: %v\n", o.Filename, o.Err)
		}
	}

	if failed := res.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d files were not written to %s", len(failed), len(res.Outcomes), res.Root)
	}
	if len(res.Outcomes) == 0 {
		fmt.Fprintf(w, "The model returned no files; nothing was written to %s\n", res.Root)
		return nil
	}
	fmt.Fprintf(w, "\nSuccess! Project created in %s\n", res.Root)
	return nil
}

// describe prefixes err with the failure class a user can act on.
func describe(err error) error {
	var upstream *llm.UpstreamError
	var transport *llm.TransportError
	switch {
	case errors.Is(err, llm.ErrMalformedResponse):
		return fmt.Errorf("the model returned an unusable response: %w", err)
	case errors.As(err, &upstream):
		return fmt.Errorf("the model endpoint rejected the request (status %d): %w", upstream.StatusCode, err)
	case errors.As(err, &transport):
		return fmt.Errorf("could not reach the model endpoint: %w", err)
	case errors.Is(err, materializer.ErrInvalidPayload):
		return fmt.Errorf("the model reply was not a valid file list: %w", err)
	}
	return err
}
