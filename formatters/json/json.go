package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/depsentry/depsentry/results"
)

func NewFormat(out io.Writer) *Format {
	return &Format{out: out}
}

type Format struct {
	out io.Writer
}

// Format mirrors the report artifact on stdout: a pretty-printed array of
// findings, empty array included.
func (f *Format) Format(ctx context.Context, report *results.ScanReport) error {
	findings := report.Findings
	if findings == nil {
		findings = []results.Finding{}
	}

	data, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(f.out, "%s\n", data)
	return err
}
