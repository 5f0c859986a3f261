package harness

// OutputResult is what compiling one declared output produced.
type OutputResult struct {
	Name string `json:"name"`
	// Root is the identity of the root node, empty on failure.
	Root  string   `json:"root,omitempty"`
	Nodes int      `json:"nodes"`
	Ops   []string `json:"ops,omitempty"`
	// RootOp is the operation of the root node.
	RootOp    string `json:"root_op,omitempty"`
	Outline   string `json:"outline,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Failed reports whether the output produced no network.
func (o OutputResult) Failed() bool {
	return o.Root == ""
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation, assertion and built-in check held.
	Pass bool `json:"pass"`

	// Outputs lists compiled outputs in declaration order.
	Outputs []OutputResult `json:"outputs"`

	// ErrorCode is the code of a failure not tied to one output, such as a
	// document without a root network.
	ErrorCode string `json:"error_code,omitempty"`

	// CompilationID is the ID under which the run was logged in the store.
	CompilationID string `json:"compilation_id,omitempty"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Outputs: []OutputResult{},
		Errors:  []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Output returns the result for the named output.
func (r *Result) Output(name string) (OutputResult, bool) {
	for _, o := range r.Outputs {
		if o.Name == name {
			return o, true
		}
	}
	return OutputResult{}, false
}
