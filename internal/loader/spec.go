package loader

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"cuelang.org/go/cue/token"
	"go.uber.org/multierr"

	"github.com/slayyden/Graphite/internal/graph"
	"github.com/slayyden/Graphite/internal/ir"
)

// documentSpec is the decoded file form shared by the YAML and CUE readers.
//
//	root: main
//	networks:
//	  main:
//	    params: 1
//	    outputs: [{name: out, node: 2}]
//	    nodes:
//	      1: {op: blur, inputs: [{param: 0}]}
//	      2: {op: group, body: sharpen, inputs: [{node: 1}]}
type documentSpec struct {
	Root     string                  `yaml:"root"`
	Networks map[string]*networkSpec `yaml:"networks"`
}

type networkSpec struct {
	Params  int                  `yaml:"params"`
	Outputs []outputSpec         `yaml:"outputs"`
	Nodes   map[string]*nodeSpec `yaml:"nodes"`

	pos token.Pos
}

type outputSpec struct {
	Name string `yaml:"name"`
	Node uint64 `yaml:"node"`
}

type nodeSpec struct {
	Op     string      `yaml:"op"`
	Body   string      `yaml:"body"`
	Inputs []inputSpec `yaml:"inputs"`

	pos token.Pos
}

// inputSpec sets at most one of Node, Param or Value. With none set the
// slot is unwired; Default and Optional then describe the fallback.
type inputSpec struct {
	Node     *uint64 `yaml:"node"`
	Param    *int    `yaml:"param"`
	Value    any     `yaml:"value"`
	Default  any     `yaml:"default"`
	Optional bool    `yaml:"optional"`

	pos token.Pos
}

// build turns a decoded spec into an author graph. Networks enter the arena
// in name order so identifiers do not depend on map iteration. All
// structural errors are collected.
func (d *documentSpec) build() (*graph.Document, error) {
	names := slices.Sorted(maps.Keys(d.Networks))
	if len(names) == 0 {
		return nil, newError(ErrCodeSchema, token.NoPos, "no networks defined")
	}

	root := d.Root
	if root == "" {
		if len(names) > 1 {
			return nil, newError(ErrCodeUnknownRoot, token.NoPos,
				"root is required when %d networks are defined", len(names))
		}
		root = names[0]
	}

	doc := graph.NewDocument()
	ids := make(map[string]graph.NetworkID, len(names))
	for _, name := range names {
		params := 0
		if ns := d.Networks[name]; ns != nil {
			params = ns.Params
		}
		ids[name] = doc.AddNetwork(graph.NewNetwork(name, params))
	}
	rootID, ok := ids[root]
	if !ok {
		return nil, newError(ErrCodeUnknownRoot, token.NoPos, "root network %q is not defined", root)
	}
	doc.Root = rootID

	var errs error
	for _, name := range names {
		ns := d.Networks[name]
		if ns == nil {
			continue
		}
		errs = multierr.Append(errs, ns.fill(doc.Network(ids[name]), ids))
	}
	if errs != nil {
		return nil, errs
	}
	return doc, nil
}

func (ns *networkSpec) fill(net *graph.Network, ids map[string]graph.NetworkID) error {
	var errs error
	if ns.Params < 0 {
		errs = multierr.Append(errs, newError(ErrCodeSchema, ns.pos,
			"networks.%s.params must not be negative", net.Name))
	}

	for _, key := range slices.Sorted(maps.Keys(ns.Nodes)) {
		field := fmt.Sprintf("networks.%s.nodes.%s", net.Name, key)
		spec := ns.Nodes[key]
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			errs = multierr.Append(errs, newError(ErrCodeSchema, spec.position(ns.pos),
				"%s: node key is not an unsigned integer", field))
			continue
		}
		if spec == nil {
			errs = multierr.Append(errs, newError(ErrCodeSchema, ns.pos, "%s: empty node", field))
			continue
		}

		node := &graph.Node{ID: graph.NodeID(id), Op: spec.Op, Inputs: make([]graph.Input, 0, len(spec.Inputs))}
		if spec.Body != "" {
			body, ok := ids[spec.Body]
			if !ok {
				errs = multierr.Append(errs, newError(ErrCodeUnknownBody, spec.pos,
					"%s.body: network %q is not defined", field, spec.Body))
				continue
			}
			node.Body = body
		}
		for i, in := range spec.Inputs {
			input, err := in.build(fmt.Sprintf("%s.inputs[%d]", field, i))
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			node.Inputs = append(node.Inputs, input)
		}
		net.Add(node)
	}

	for _, out := range ns.Outputs {
		net.AddOutput(out.Name, graph.NodeID(out.Node))
	}
	return errs
}

func (n *nodeSpec) position(fallback token.Pos) token.Pos {
	if n == nil || !n.pos.IsValid() {
		return fallback
	}
	return n.pos
}

func (in inputSpec) build(field string) (graph.Input, error) {
	set := 0
	if in.Node != nil {
		set++
	}
	if in.Param != nil {
		set++
	}
	if in.Value != nil {
		set++
	}
	if set > 1 {
		return graph.Input{}, newError(ErrCodeInput, in.pos, "%s: set at most one of node, param, value", field)
	}
	if set == 1 && (in.Default != nil || in.Optional) {
		return graph.Input{}, newError(ErrCodeInput, in.pos, "%s: default and optional apply to unwired inputs only", field)
	}

	switch {
	case in.Node != nil:
		return graph.FromNode(graph.NodeID(*in.Node)), nil
	case in.Param != nil:
		if *in.Param < 0 {
			return graph.Input{}, newError(ErrCodeInput, in.pos, "%s: param must not be negative", field)
		}
		return graph.FromParam(*in.Param), nil
	case in.Value != nil:
		v, err := ir.FromGo(in.Value)
		if err != nil {
			return graph.Input{}, newError(ErrCodeInput, in.pos, "%s.value: %v", field, err)
		}
		return graph.Literal(v), nil
	}

	input := graph.Unwired()
	input.Optional = in.Optional
	if in.Default != nil {
		v, err := ir.FromGo(in.Default)
		if err != nil {
			return graph.Input{}, newError(ErrCodeInput, in.pos, "%s.default: %v", field, err)
		}
		input.Value = v
	}
	return input, nil
}
