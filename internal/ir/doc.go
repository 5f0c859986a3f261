// Package ir provides the canonical value types shared by the author graph and
// the compiled proto graph, plus the canonical encoding and hashing used to
// derive stable node identities.
//
// This package imports nothing internal. Every other internal package may
// import ir; ir stays the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Literal values are restricted to the sealed IRValue set
//   - Canonical JSON is the ONLY encoding used for identity hashing
//   - Floats are allowed but always render with a fraction or exponent, so
//     IRInt(1) and IRFloat(1) never share an encoding
//   - NaN, infinities and null are rejected by the canonical encoder
package ir
