package store

import (
	"fmt"

	"github.com/slayyden/Graphite/internal/ir"
	"github.com/slayyden/Graphite/internal/proto"
)

// marshalInputs converts resolved inputs to canonical JSON TEXT, using the
// same encoding that is hashed into node identities.
func marshalInputs(inputs []proto.Input) (string, error) {
	arr := make(ir.IRArray, len(inputs))
	for i, in := range inputs {
		arr[i] = in.Encode()
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal inputs: %w", err)
	}
	return string(data), nil
}

// unmarshalInputs parses the TEXT written by marshalInputs.
func unmarshalInputs(data string) ([]proto.Input, error) {
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal inputs: %w", err)
	}
	arr, ok := v.(ir.IRArray)
	if !ok {
		return nil, fmt.Errorf("unmarshal inputs: expected array, got %s", ir.TypeName(v))
	}
	inputs := make([]proto.Input, len(arr))
	for i, raw := range arr {
		in, err := proto.DecodeInput(raw)
		if err != nil {
			return nil, fmt.Errorf("unmarshal inputs[%d]: %w", i, err)
		}
		inputs[i] = in
	}
	return inputs, nil
}
