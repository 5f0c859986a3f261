package loader

import (
	"bytes"
	"math/big"
	"strconv"

	"cuelang.org/go/cue/token"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/slayyden/Graphite/internal/ir"
)

// hclDocument is the block form of a graph:
//
//	root = "main"
//
//	network "main" {
//	  params = 1
//	  output "out" { node = 2 }
//
//	  node "1" {
//	    op = "blur"
//	    input { param = 0 }
//	  }
//	}
type hclDocument struct {
	Root     string       `hcl:"root,optional"`
	Networks []hclNetwork `hcl:"network,block"`
}

type hclNetwork struct {
	Name    string      `hcl:"name,label"`
	Params  int         `hcl:"params,optional"`
	Outputs []hclOutput `hcl:"output,block"`
	Nodes   []hclNode   `hcl:"node,block"`

	DeclRange hcl.Range `hcl:",def_range"`
}

type hclOutput struct {
	Name string `hcl:"name,label"`
	Node uint64 `hcl:"node"`
}

type hclNode struct {
	Key    string     `hcl:"key,label"`
	Op     string     `hcl:"op"`
	Body   string     `hcl:"body,optional"`
	Inputs []hclInput `hcl:"input,block"`

	DeclRange hcl.Range `hcl:",def_range"`
}

// Input attributes stay expressions so a missing one decodes to null and
// number literals keep their source spelling.
type hclInput struct {
	Node     hcl.Expression `hcl:"node,optional"`
	Param    hcl.Expression `hcl:"param,optional"`
	Value    hcl.Expression `hcl:"value,optional"`
	Default  hcl.Expression `hcl:"default,optional"`
	Optional bool           `hcl:"optional,optional"`
}

// decodeHCL parses an HCL graph document. Literal values are evaluated
// without variables or functions.
func decodeHCL(name string, data []byte) (*documentSpec, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, newError(ErrCodeParseFailed, token.NoPos, "failed to parse HCL: %s", diags.Error())
	}

	var doc hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, newError(ErrCodeSchema, token.NoPos, "%s", diags.Error())
	}

	spec := &documentSpec{Root: doc.Root, Networks: make(map[string]*networkSpec, len(doc.Networks))}
	for _, hn := range doc.Networks {
		if _, dup := spec.Networks[hn.Name]; dup {
			return nil, newError(ErrCodeSchema, token.NoPos, "%s: network %q is defined twice", hn.DeclRange, hn.Name)
		}
		ns, err := hn.spec(data)
		if err != nil {
			return nil, err
		}
		spec.Networks[hn.Name] = ns
	}
	return spec, nil
}

func (hn hclNetwork) spec(src []byte) (*networkSpec, error) {
	ns := &networkSpec{Params: hn.Params, Nodes: make(map[string]*nodeSpec, len(hn.Nodes))}
	for _, out := range hn.Outputs {
		ns.Outputs = append(ns.Outputs, outputSpec{Name: out.Name, Node: out.Node})
	}
	for _, hnode := range hn.Nodes {
		if _, dup := ns.Nodes[hnode.Key]; dup {
			return nil, newError(ErrCodeSchema, token.NoPos, "%s: node %s is defined twice in network %q",
				hnode.DeclRange, hnode.Key, hn.Name)
		}
		node := &nodeSpec{Op: hnode.Op, Body: hnode.Body}
		for _, hin := range hnode.Inputs {
			in, err := hin.spec(src)
			if err != nil {
				return nil, err
			}
			node.Inputs = append(node.Inputs, in)
		}
		ns.Nodes[hnode.Key] = node
	}
	return ns, nil
}

func (hin hclInput) spec(src []byte) (inputSpec, error) {
	in := inputSpec{Optional: hin.Optional}
	if !isNull(hin.Node) {
		var n uint64
		if diags := gohcl.DecodeExpression(hin.Node, nil, &n); diags.HasErrors() {
			return inputSpec{}, newError(ErrCodeInput, token.NoPos, "%s", diags.Error())
		}
		in.Node = &n
	}
	if !isNull(hin.Param) {
		var p int
		if diags := gohcl.DecodeExpression(hin.Param, nil, &p); diags.HasErrors() {
			return inputSpec{}, newError(ErrCodeInput, token.NoPos, "%s", diags.Error())
		}
		in.Param = &p
	}
	if !isNull(hin.Value) {
		v, err := hclToIR(hin.Value, src)
		if err != nil {
			return inputSpec{}, err
		}
		in.Value = v
	}
	if !isNull(hin.Default) {
		v, err := hclToIR(hin.Default, src)
		if err != nil {
			return inputSpec{}, err
		}
		in.Default = v
	}
	return in, nil
}

// isNull reports whether an optional attribute was left out.
func isNull(expr hcl.Expression) bool {
	if expr == nil {
		return true
	}
	v, diags := expr.Value(nil)
	return !diags.HasErrors() && v.IsNull()
}

// hclToIR converts a literal expression into an IR value. HCL numbers
// carry no int/float distinction, so a number is a float when its source
// text has a decimal point or an exponent.
func hclToIR(expr hcl.Expression, src []byte) (ir.IRValue, error) {
	switch e := expr.(type) {
	case *hclsyntax.TupleConsExpr:
		arr := ir.IRArray{}
		for _, elem := range e.Exprs {
			v, err := hclToIR(elem, src)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case *hclsyntax.ObjectConsExpr:
		obj := ir.IRObject{}
		for _, item := range e.Items {
			key, diags := item.KeyExpr.Value(nil)
			if diags.HasErrors() {
				return nil, newError(ErrCodeInput, token.NoPos, "%s", diags.Error())
			}
			if key.Type() != cty.String || key.IsNull() {
				return nil, newError(ErrCodeInput, token.NoPos, "%s: object keys must be strings", item.KeyExpr.Range())
			}
			v, err := hclToIR(item.ValueExpr, src)
			if err != nil {
				return nil, err
			}
			obj[key.AsString()] = v
		}
		return obj, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, newError(ErrCodeInput, token.NoPos, "%s", diags.Error())
	}
	rng := expr.Range()
	if val.IsNull() {
		return nil, newError(ErrCodeInput, token.NoPos, "%s: null literals are not allowed", rng)
	}
	if !val.IsWhollyKnown() {
		return nil, newError(ErrCodeInput, token.NoPos, "%s: literal must be known", rng)
	}

	switch val.Type() {
	case cty.String:
		return ir.IRString(val.AsString()), nil
	case cty.Bool:
		return ir.IRBool(val.True()), nil
	case cty.Number:
		return numberToIR(val.AsBigFloat(), rng.SliceBytes(src), rng)
	default:
		return nil, newError(ErrCodeInput, token.NoPos, "%s: unsupported literal of type %s", rng, val.Type().FriendlyName())
	}
}

func numberToIR(f *big.Float, text []byte, rng hcl.Range) (ir.IRValue, error) {
	if bytes.ContainsAny(text, ".eE") || !f.IsInt() {
		v, _ := f.Float64()
		return ir.IRFloat(v), nil
	}
	n, acc := f.Int64()
	if acc != big.Exact {
		return nil, newError(ErrCodeInput, token.NoPos, "%s: integer out of int64 range: %s",
			rng, strconv.Quote(string(text)))
	}
	return ir.IRInt(n), nil
}
