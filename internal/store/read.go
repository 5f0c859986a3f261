package store

import (
	"context"
	"fmt"

	"github.com/slayyden/Graphite/internal/proto"
)

// NetworkInfo is the summary row of a cached network.
type NetworkInfo struct {
	Root      proto.ID `json:"root"`
	Output    string   `json:"output"`
	Digest    string   `json:"digest"`
	NodeCount int      `json:"node_count"`
	Seq       int64    `json:"seq"`
	IRVersion string   `json:"ir_version"`
}

// ReadNetwork loads the cached network with the given root identity.
// Returns an error wrapping sql.ErrNoRows if it is not cached.
func (s *Store) ReadNetwork(ctx context.Context, root proto.ID) (*proto.Network, error) {
	info, err := s.readInfo(ctx, root)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, op, inputs
		FROM network_nodes
		WHERE root = ?
		ORDER BY position ASC
	`, string(root))
	if err != nil {
		return nil, fmt.Errorf("query network nodes: %w", err)
	}
	defer rows.Close()

	net := proto.NewNetwork(info.Output)
	net.Root = info.Root
	for rows.Next() {
		var (
			id, op, inputs string
		)
		if err := rows.Scan(&id, &op, &inputs); err != nil {
			return nil, fmt.Errorf("scan network node: %w", err)
		}
		decoded, err := unmarshalInputs(inputs)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", proto.ID(id).Short(), err)
		}
		net.Add(&proto.Node{ID: proto.ID(id), Op: op, Inputs: decoded})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate network nodes: %w", err)
	}

	if net.Len() != info.NodeCount {
		return nil, fmt.Errorf("network %s: %d nodes stored, %d expected",
			root.Short(), net.Len(), info.NodeCount)
	}
	return net, nil
}

// HasNetwork reports whether a network with the given root is cached.
func (s *Store) HasNetwork(ctx context.Context, root proto.ID) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM networks WHERE root = ?`, string(root)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has network: %w", err)
	}
	return n > 0, nil
}

// ListNetworks returns every cached network summary.
// Ordered by seq ASC, root ASC COLLATE BINARY.
// Returns an empty slice (not nil) when the cache is empty.
func (s *Store) ListNetworks(ctx context.Context) ([]NetworkInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT root, output, digest, node_count, seq, ir_version
		FROM networks
		ORDER BY seq ASC, root COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query networks: %w", err)
	}
	defer rows.Close()

	infos := []NetworkInfo{}
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate networks: %w", err)
	}
	return infos, nil
}

// ReadNetworkInfo loads the summary row of a cached network.
// Returns an error wrapping sql.ErrNoRows if it is not cached.
func (s *Store) ReadNetworkInfo(ctx context.Context, root proto.ID) (NetworkInfo, error) {
	return s.readInfo(ctx, root)
}

func (s *Store) readInfo(ctx context.Context, root proto.ID) (NetworkInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT root, output, digest, node_count, seq, ir_version
		FROM networks
		WHERE root = ?
	`, string(root))
	info, err := scanInfo(row)
	if err != nil {
		return NetworkInfo{}, fmt.Errorf("read network %s: %w", root.Short(), err)
	}
	return info, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner) (NetworkInfo, error) {
	var (
		info NetworkInfo
		root string
	)
	if err := row.Scan(&root, &info.Output, &info.Digest, &info.NodeCount, &info.Seq, &info.IRVersion); err != nil {
		return NetworkInfo{}, err
	}
	info.Root = proto.ID(root)
	return info, nil
}
