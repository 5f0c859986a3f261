package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as hash-free text: the document-level error,
// then each output's outline or its error code. Identities are left out so
// golden files survive changes to the hash encoding.
func Snapshot(name string, r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s\n", name)
	if r.ErrorCode != "" {
		fmt.Fprintf(&b, "error %s\n", r.ErrorCode)
	}
	for _, out := range r.Outputs {
		if out.Failed() {
			fmt.Fprintf(&b, "output %s failed %s\n", out.Name, out.ErrorCode)
			continue
		}
		b.WriteString(out.Outline)
	}
	return b.String()
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(Snapshot(name, result)))
}
