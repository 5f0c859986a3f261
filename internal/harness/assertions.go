package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/slayyden/Graphite/internal/proto"
)

// AssertionError is returned when an expectation or assertion fails.
type AssertionError struct {
	Type     string // Assertion type, or "output" for output expectations
	Subject  string // Output name(s) the check was about
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Subject != "" {
		fmt.Fprintf(&buf, " (%s)", e.Subject)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// EvaluateExpectations checks the scenario's error and per-output
// expectations against a result.
func EvaluateExpectations(s *Scenario, r *Result) []string {
	var errs []string
	if s.Error != r.ErrorCode {
		errs = append(errs, (&AssertionError{
			Type:     "error",
			Expected: orNone(s.Error),
			Actual:   orNone(r.ErrorCode),
		}).Error())
	}

	for _, want := range s.Outputs {
		if err := checkOutput(want, r); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func checkOutput(want OutputExpectation, r *Result) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: "output", Subject: want.Name, Expected: expected, Actual: actual}
	}

	got, ok := r.Output(want.Name)
	if !ok {
		return fail("output to be compiled", "no result for output")
	}

	if want.Error != "" {
		if got.ErrorCode != want.Error {
			return fail("error "+want.Error, orNone(got.ErrorCode))
		}
		return nil
	}
	if got.Failed() {
		return fail("success", fmt.Sprintf("error %s: %s", got.ErrorCode, got.Error))
	}

	if want.Nodes != nil && got.Nodes != *want.Nodes {
		return fail(fmt.Sprintf("%d nodes", *want.Nodes), fmt.Sprintf("%d nodes", got.Nodes))
	}
	if want.Root != "" && got.RootOp != want.Root {
		return fail("root op "+want.Root, "root op "+got.RootOp)
	}
	if len(want.Ops) > 0 {
		ops := slices.Sorted(slices.Values(want.Ops))
		if !slices.Equal(ops, got.Ops) {
			return fail(fmt.Sprintf("ops %v", ops), fmt.Sprintf("ops %v", got.Ops))
		}
	}
	return nil
}

// EvaluateAssertions runs assertions over compiled networks keyed by
// output name and returns failure messages.
func EvaluateAssertions(nets map[string]*proto.Network, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertOpsAbsent:
			err = assertOps(nets, a, false)
		case AssertOpsPresent:
			err = assertOps(nets, a, true)
		case AssertSharedNodes:
			err = assertSharedNodes(nets, a)
		case AssertSameRoot:
			err = assertSameRoot(nets, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func lookup(nets map[string]*proto.Network, a Assertion, name string) (*proto.Network, error) {
	net, ok := nets[name]
	if !ok {
		return nil, &AssertionError{Type: a.Type, Subject: name, Expected: "compiled output", Actual: "output failed or is not declared"}
	}
	return net, nil
}

func assertOps(nets map[string]*proto.Network, a Assertion, present bool) error {
	net, err := lookup(nets, a, a.Output)
	if err != nil {
		return err
	}
	have := make(map[string]bool)
	for _, node := range net.Nodes {
		have[node.Op] = true
	}

	var wrong []string
	for _, op := range a.Ops {
		if have[op] != present {
			wrong = append(wrong, op)
		}
	}
	if len(wrong) == 0 {
		return nil
	}
	if present {
		return &AssertionError{Type: a.Type, Subject: a.Output, Expected: fmt.Sprintf("ops %v", a.Ops), Actual: fmt.Sprintf("missing %v", wrong)}
	}
	return &AssertionError{Type: a.Type, Subject: a.Output, Expected: fmt.Sprintf("none of %v", a.Ops), Actual: fmt.Sprintf("found %v", wrong)}
}

func assertSharedNodes(nets map[string]*proto.Network, a Assertion) error {
	var shared []proto.ID
	for i, name := range a.Outputs {
		net, err := lookup(nets, a, name)
		if err != nil {
			return err
		}
		if i == 0 {
			shared = net.SortedIDs()
			continue
		}
		shared = slices.DeleteFunc(shared, func(id proto.ID) bool { return net.Node(id) == nil })
	}
	if len(shared) != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Subject:  strings.Join(a.Outputs, ", "),
			Expected: fmt.Sprintf("%d shared nodes", a.Count),
			Actual:   fmt.Sprintf("%d shared nodes", len(shared)),
		}
	}
	return nil
}

func assertSameRoot(nets map[string]*proto.Network, a Assertion) error {
	var root proto.ID
	for i, name := range a.Outputs {
		net, err := lookup(nets, a, name)
		if err != nil {
			return err
		}
		if i == 0 {
			root = net.Root
			continue
		}
		if net.Root != root {
			return &AssertionError{
				Type:     a.Type,
				Subject:  strings.Join(a.Outputs, ", "),
				Expected: "root " + root.Short(),
				Actual:   fmt.Sprintf("%s has root %s", name, net.Root.Short()),
			}
		}
	}
	return nil
}

func orNone(code string) string {
	if code == "" {
		return "none"
	}
	return code
}
