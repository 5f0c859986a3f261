package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/slayyden/Graphite/internal/ir"
	"github.com/slayyden/Graphite/internal/proto"
)

// ErrInvalidNetwork wraps structural failures of a network handed to
// WriteNetwork.
var ErrInvalidNetwork = errors.New("invalid network")

// WriteNetwork caches a compiled network under its root identity.
// Uses ON CONFLICT(root) DO NOTHING for idempotency: the root identity
// transitively covers every node, so a second write of the same root is
// the same network and is silently ignored. Returns whether a row was
// inserted.
//
// Nodes are stored in topological order, producers first.
func (s *Store) WriteNetwork(ctx context.Context, net *proto.Network) (bool, error) {
	if net == nil {
		return false, fmt.Errorf("write network: %w: nil", ErrInvalidNetwork)
	}
	if err := net.Validate(); err != nil {
		return false, fmt.Errorf("write network: %w: %w", ErrInvalidNetwork, err)
	}
	order, err := net.TopologicalOrder()
	if err != nil {
		return false, fmt.Errorf("write network: %w", err)
	}
	digest, err := net.Digest()
	if err != nil {
		return false, fmt.Errorf("write network: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write network: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO networks
		(root, output, digest, node_count, seq, ir_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(root) DO NOTHING
	`,
		string(net.Root),
		net.Output,
		digest,
		len(order),
		s.clock.Next(),
		ir.IRVersion,
	)
	if err != nil {
		return false, fmt.Errorf("write network: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write network: rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	for pos, id := range order {
		node := net.Nodes[id]
		inputs, err := marshalInputs(node.Inputs)
		if err != nil {
			return false, fmt.Errorf("write network: node %s: %w", id.Short(), err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO network_nodes (root, position, id, op, inputs)
			VALUES (?, ?, ?, ?, ?)
		`, string(net.Root), pos, string(id), node.Op, inputs)
		if err != nil {
			return false, fmt.Errorf("write network: node %s: %w", id.Short(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write network: commit: %w", err)
	}
	return true, nil
}
