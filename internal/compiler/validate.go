package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/slayyden/Graphite/internal/graph"
)

// Validation error codes (E200-E209)
const (
	ErrNoRootNetwork     = "E200" // document root names no network
	ErrEmptyOp           = "E201" // primitive node without an operation
	ErrUnknownBody       = "E202" // composite body names no network
	ErrNodeKeyMismatch   = "E203" // node stored under another id, or nil
	ErrParamOutOfRange   = "E204" // parameter slot outside the network's params
	ErrUnknownOutputNode = "E205" // output names a node missing from its network
	ErrDuplicateOutput   = "E206" // output name declared twice
	ErrBodyNoOutputs     = "E207" // composite body declares no outputs
	ErrBindingArity      = "E208" // composite inputs differ from body params
	ErrEmptyOutputName   = "E209" // output without a name
)

// ValidationError represents one structural problem in an author graph.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks every network of the document and returns all problems
// found (does not fail-fast). Compile runs the same checks per output, over
// only the nodes and bodies that output reaches.
//
// Wiring to a node that does not exist is deliberately not checked here: it
// is reported as DANGLING_REFERENCE by input resolution, and only when the
// node survives pruning. Composition cycles are left to the flattener.
func Validate(doc *graph.Document) []ValidationError {
	var errs []ValidationError

	if doc.RootNetwork() == nil {
		errs = append(errs, ValidationError{
			Field:   "root",
			Message: fmt.Sprintf("root network %d does not exist", doc.Root),
			Code:    ErrNoRootNetwork,
		})
	}

	for _, id := range doc.NetworkIDs() {
		errs = append(errs, validateNetwork(doc, id)...)
	}
	return errs
}

// validateOutput checks what declared output index of the root network
// reaches: the root-network nodes in reach, the output declaration, and
// every body network in bodies other than the root itself.
func validateOutput(doc *graph.Document, index int, reach map[graph.NodeID]bool, bodies []graph.NetworkID) []ValidationError {
	errs := validateNodes(doc, doc.Root, reach)
	errs = append(errs, validateOutputAt(doc, doc.Root, index)...)
	for _, id := range bodies {
		if id != doc.Root {
			errs = append(errs, validateNetwork(doc, id)...)
		}
	}
	return errs
}

func validateNetwork(doc *graph.Document, id graph.NetworkID) []ValidationError {
	errs := validateNodes(doc, id, nil)
	for i := range doc.Network(id).Outputs {
		errs = append(errs, validateOutputAt(doc, id, i)...)
	}
	return errs
}

// validateNodes checks the nodes of network id, or only those in only when
// it is non-nil.
func validateNodes(doc *graph.Document, id graph.NetworkID, only map[graph.NodeID]bool) []ValidationError {
	var errs []ValidationError
	net := doc.Network(id)
	name := doc.NetworkName(id)

	for _, nid := range net.SortedIDs() {
		if only != nil && !only[nid] {
			continue
		}
		node := net.Nodes[nid]
		field := fmt.Sprintf("networks.%s.nodes.%d", name, nid)

		// E203: node key must match its id
		if node == nil || node.ID != nid {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "node is nil or stored under another id",
				Code:    ErrNodeKeyMismatch,
			})
			continue
		}

		// E201: primitive nodes need an operation
		if !node.IsComposite() && strings.TrimSpace(node.Op) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".op",
				Message: "operation is required",
				Code:    ErrEmptyOp,
			})
		}

		// E204: parameter references stay within the network's params
		for slot, in := range node.Inputs {
			if in.Kind == graph.InputParam && (in.Param < 0 || in.Param >= net.Params) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.inputs[%d]", field, slot),
					Message: fmt.Sprintf("parameter %d out of range, network has %d", in.Param, net.Params),
					Code:    ErrParamOutOfRange,
				})
			}
		}

		if node.IsComposite() {
			errs = append(errs, validateComposite(doc, node, field)...)
		}
	}

	return errs
}

// validateOutputAt checks output i of network id. A name is a duplicate
// when an earlier output already uses it.
func validateOutputAt(doc *graph.Document, id graph.NetworkID, i int) []ValidationError {
	var errs []ValidationError
	net := doc.Network(id)
	out := net.Outputs[i]
	field := fmt.Sprintf("networks.%s.outputs[%d]", doc.NetworkName(id), i)

	// E209: outputs are named
	if out.Name == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".name",
			Message: "output name is required",
			Code:    ErrEmptyOutputName,
		})
	}

	// E206: duplicate output name
	if out.Name != "" && slices.ContainsFunc(net.Outputs[:i], func(o graph.Output) bool { return o.Name == out.Name }) {
		errs = append(errs, ValidationError{
			Field:   field + ".name",
			Message: fmt.Sprintf("duplicate output name: %q", out.Name),
			Code:    ErrDuplicateOutput,
		})
	}

	// E205: outputs name existing nodes
	if _, ok := net.Nodes[out.Node]; !ok {
		errs = append(errs, ValidationError{
			Field:   field + ".node",
			Message: fmt.Sprintf("output %q references missing node %d", out.Name, out.Node),
			Code:    ErrUnknownOutputNode,
		})
	}
	return errs
}

func validateComposite(doc *graph.Document, node *graph.Node, field string) []ValidationError {
	body := doc.Network(node.Body)

	// E202: body must exist
	if body == nil {
		return []ValidationError{{
			Field:   field + ".body",
			Message: fmt.Sprintf("body network %d does not exist", node.Body),
			Code:    ErrUnknownBody,
		}}
	}

	var errs []ValidationError

	// E207: body needs a designated output
	if len(body.Outputs) == 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".body",
			Message: fmt.Sprintf("body network %s declares no outputs", doc.NetworkName(node.Body)),
			Code:    ErrBodyNoOutputs,
		})
	}

	// E208: one input per body parameter
	if len(node.Inputs) != body.Params {
		errs = append(errs, ValidationError{
			Field:   field + ".inputs",
			Message: fmt.Sprintf("composite has %d inputs, body %s takes %d", len(node.Inputs), doc.NetworkName(node.Body), body.Params),
			Code:    ErrBindingArity,
		})
	}
	return errs
}
