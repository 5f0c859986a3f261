package ir

// Version constants for the proto graph format and the compiler.
const (
	// IRVersion is the proto graph schema version. Bump it together with
	// DomainProtoNode whenever the identity encoding changes.
	IRVersion = "1"

	// CompilerVersion is the graphite compiler version.
	CompilerVersion = "0.1.0"
)
