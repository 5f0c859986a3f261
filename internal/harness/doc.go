// Package harness runs conformance scenarios against the compiler.
//
// A scenario names an author graph and states what compiling it must
// produce: which outputs succeed, how many nodes each compiled network
// keeps, and which error code each failure carries.
//
// # Scenario Format
//
//	name: composite_chain
//	description: "Two instances of a body inline to four nodes"
//	graph: ../graphs/composite.yaml
//	error: ""                  # expected document-level error code
//	outputs:
//	  - name: out
//	    nodes: 4
//	    root: sharpen
//	    ops: [blur, blur, sharpen, sharpen]
//	  - name: broken
//	    error: MISSING_INPUT
//	assertions:
//	  - type: ops_absent
//	    output: out
//	    ops: [identity, group]
//
// # Built-in Checks
//
// Every run also verifies, independent of the scenario:
//   - compiling twice yields identical networks
//   - every compiled network passes proto validation
//   - renumbering author node ids leaves every identity unchanged
//   - networks survive a round trip through the cache store
//
// Golden outlines are compared with goldie under testdata/golden.
package harness
