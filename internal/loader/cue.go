package loader

import (
	"slices"

	"cuelang.org/go/cue"

	"github.com/slayyden/Graphite/internal/ir"
)

var (
	networkFields = []string{"params", "outputs", "nodes"}
	nodeFields    = []string{"op", "body", "inputs"}
	inputFields   = []string{"node", "param", "value", "default", "optional"}
	outputFields  = []string{"name", "node"}
)

// decodeCUE reads a graph document from an evaluated CUE value. The shape
// matches the YAML form; node labels are quoted integers.
func decodeCUE(v cue.Value) (*documentSpec, error) {
	if err := v.Err(); err != nil {
		return nil, fromCUE(ErrCodeBuildFailed, err)
	}

	spec := &documentSpec{Networks: make(map[string]*networkSpec)}
	if rootVal := v.LookupPath(cue.ParsePath("root")); rootVal.Exists() {
		root, err := rootVal.String()
		if err != nil {
			return nil, fromCUE(ErrCodeSchema, err)
		}
		spec.Root = root
	}

	netsVal := v.LookupPath(cue.ParsePath("networks"))
	if !netsVal.Exists() {
		return nil, newError(ErrCodeSchema, v.Pos(), "networks is required")
	}
	iter, err := netsVal.Fields()
	if err != nil {
		return nil, fromCUE(ErrCodeSchema, err)
	}
	for iter.Next() {
		ns, err := decodeCUENetwork(iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Networks[iter.Selector().Unquoted()] = ns
	}
	return spec, nil
}

func decodeCUENetwork(v cue.Value) (*networkSpec, error) {
	if err := checkFields(v, networkFields); err != nil {
		return nil, err
	}
	ns := &networkSpec{Nodes: make(map[string]*nodeSpec), pos: v.Pos()}

	if params := v.LookupPath(cue.ParsePath("params")); params.Exists() {
		n, err := params.Int64()
		if err != nil {
			return nil, fromCUE(ErrCodeSchema, err)
		}
		ns.Params = int(n)
	}

	if outputs := v.LookupPath(cue.ParsePath("outputs")); outputs.Exists() {
		list, err := outputs.List()
		if err != nil {
			return nil, fromCUE(ErrCodeSchema, err)
		}
		for list.Next() {
			out, err := decodeCUEOutput(list.Value())
			if err != nil {
				return nil, err
			}
			ns.Outputs = append(ns.Outputs, out)
		}
	}

	if nodes := v.LookupPath(cue.ParsePath("nodes")); nodes.Exists() {
		iter, err := nodes.Fields()
		if err != nil {
			return nil, fromCUE(ErrCodeSchema, err)
		}
		for iter.Next() {
			node, err := decodeCUENode(iter.Value())
			if err != nil {
				return nil, err
			}
			ns.Nodes[iter.Selector().Unquoted()] = node
		}
	}
	return ns, nil
}

func decodeCUEOutput(v cue.Value) (outputSpec, error) {
	if err := checkFields(v, outputFields); err != nil {
		return outputSpec{}, err
	}
	name, err := v.LookupPath(cue.ParsePath("name")).String()
	if err != nil {
		return outputSpec{}, fromCUE(ErrCodeSchema, err)
	}
	node, err := v.LookupPath(cue.ParsePath("node")).Uint64()
	if err != nil {
		return outputSpec{}, fromCUE(ErrCodeSchema, err)
	}
	return outputSpec{Name: name, Node: node}, nil
}

func decodeCUENode(v cue.Value) (*nodeSpec, error) {
	if err := checkFields(v, nodeFields); err != nil {
		return nil, err
	}
	node := &nodeSpec{pos: v.Pos()}

	op, err := v.LookupPath(cue.ParsePath("op")).String()
	if err != nil {
		return nil, fromCUE(ErrCodeSchema, err)
	}
	node.Op = op

	if body := v.LookupPath(cue.ParsePath("body")); body.Exists() {
		if node.Body, err = body.String(); err != nil {
			return nil, fromCUE(ErrCodeSchema, err)
		}
	}

	if inputs := v.LookupPath(cue.ParsePath("inputs")); inputs.Exists() {
		list, err := inputs.List()
		if err != nil {
			return nil, fromCUE(ErrCodeSchema, err)
		}
		for list.Next() {
			in, err := decodeCUEInput(list.Value())
			if err != nil {
				return nil, err
			}
			node.Inputs = append(node.Inputs, in)
		}
	}
	return node, nil
}

func decodeCUEInput(v cue.Value) (inputSpec, error) {
	if err := checkFields(v, inputFields); err != nil {
		return inputSpec{}, err
	}
	in := inputSpec{pos: v.Pos()}

	if node := v.LookupPath(cue.ParsePath("node")); node.Exists() {
		n, err := node.Uint64()
		if err != nil {
			return inputSpec{}, fromCUE(ErrCodeInput, err)
		}
		in.Node = &n
	}
	if param := v.LookupPath(cue.ParsePath("param")); param.Exists() {
		n, err := param.Int64()
		if err != nil {
			return inputSpec{}, fromCUE(ErrCodeInput, err)
		}
		p := int(n)
		in.Param = &p
	}
	if value := v.LookupPath(cue.ParsePath("value")); value.Exists() {
		lit, err := cueToIR(value)
		if err != nil {
			return inputSpec{}, err
		}
		in.Value = lit
	}
	if def := v.LookupPath(cue.ParsePath("default")); def.Exists() {
		lit, err := cueToIR(def)
		if err != nil {
			return inputSpec{}, err
		}
		in.Default = lit
	}
	if opt := v.LookupPath(cue.ParsePath("optional")); opt.Exists() {
		b, err := opt.Bool()
		if err != nil {
			return inputSpec{}, fromCUE(ErrCodeInput, err)
		}
		in.Optional = b
	}
	return in, nil
}

// checkFields rejects labels outside allowed, mirroring yaml KnownFields.
func checkFields(v cue.Value, allowed []string) error {
	iter, err := v.Fields()
	if err != nil {
		return fromCUE(ErrCodeSchema, err)
	}
	for iter.Next() {
		label := iter.Selector().Unquoted()
		if !slices.Contains(allowed, label) {
			return newError(ErrCodeSchema, iter.Value().Pos(), "unknown field %q", label)
		}
	}
	return nil
}

// cueToIR converts a concrete CUE value into an IR literal. CUE keeps
// 1 and 1.0 apart, and so does the IR.
func cueToIR(v cue.Value) (ir.IRValue, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, fromCUE(ErrCodeInput, err)
		}
		return ir.IRString(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, fromCUE(ErrCodeInput, err)
		}
		return ir.IRInt(n), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, fromCUE(ErrCodeInput, err)
		}
		return ir.IRFloat(f), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, fromCUE(ErrCodeInput, err)
		}
		return ir.IRBool(b), nil
	case cue.ListKind:
		list, err := v.List()
		if err != nil {
			return nil, fromCUE(ErrCodeInput, err)
		}
		arr := ir.IRArray{}
		for list.Next() {
			elem, err := cueToIR(list.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, fromCUE(ErrCodeInput, err)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			elem, err := cueToIR(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Selector().Unquoted()] = elem
		}
		return obj, nil
	case cue.NullKind:
		return nil, newError(ErrCodeInput, v.Pos(), "null literals are not allowed")
	default:
		return nil, newError(ErrCodeInput, v.Pos(), "literal must be concrete, got %v", v.IncompleteKind())
	}
}
