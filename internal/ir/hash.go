package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProtoNode = "graphite/proto-node/v1"
	DomainNetwork   = "graphite/network/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// NodeIdentity computes the stable identity of a compiled node from its
// operation and its already resolved inputs. Each input is one of
// {"node": <identity>}, {"value": <literal>}, {"external": <slot>} or
// {"none": true}.
//
// Author-time identifiers and positions never take part, so renaming nodes
// in the editor leaves identities untouched.
func NodeIdentity(op string, inputs IRArray) (string, error) {
	obj := IRObject{
		"op":     IRString(op),
		"inputs": inputs,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("NodeIdentity: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProtoNode, canonical), nil
}

// NetworkDigest computes a digest over a whole compiled network given its
// output name, root identity and the sorted identities of all its nodes.
// Two networks share a digest only if they contain exactly the same nodes.
func NetworkDigest(output, root string, nodes []string) (string, error) {
	ids := make(IRArray, len(nodes))
	for i, n := range nodes {
		ids[i] = IRString(n)
	}
	obj := IRObject{
		"output": IRString(output),
		"root":   IRString(root),
		"nodes":  ids,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("NetworkDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainNetwork, canonical), nil
}

// MustNodeIdentity is like NodeIdentity but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNodeIdentity(op string, inputs IRArray) string {
	id, err := NodeIdentity(op, inputs)
	if err != nil {
		panic(err)
	}
	return id
}
