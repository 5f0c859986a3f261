package store

import (
	"context"
	"fmt"

	"github.com/slayyden/Graphite/internal/ir"
	"github.com/slayyden/Graphite/internal/proto"
)

// Compilation is one run of the compiler over a source document.
type Compilation struct {
	ID              string
	Source          string
	Seq             int64
	CompilerVersion string
	Outputs         []CompiledOutput
}

// CompiledOutput is the result of one partition. Root is empty when the
// partition failed, in which case ErrorCode and Error describe why.
type CompiledOutput struct {
	Output    string
	Root      proto.ID
	ErrorCode string
	Error     string
}

// Failed reports whether the partition produced no network.
func (o CompiledOutput) Failed() bool {
	return o.Root == ""
}

// RecordCompilation appends a compilation to the log. ID, Seq and
// CompilerVersion are filled in when empty. Returns the stored record.
func (s *Store) RecordCompilation(ctx context.Context, c Compilation) (Compilation, error) {
	if c.ID == "" {
		c.ID = s.ids.Generate()
	}
	if c.CompilerVersion == "" {
		c.CompilerVersion = ir.CompilerVersion
	}
	c.Seq = s.clock.Next()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Compilation{}, fmt.Errorf("record compilation: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO compilations (id, source, seq, compiler_version)
		VALUES (?, ?, ?, ?)
	`, c.ID, c.Source, c.Seq, c.CompilerVersion)
	if err != nil {
		return Compilation{}, fmt.Errorf("record compilation: %w", err)
	}

	for pos, out := range c.Outputs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO compilation_outputs
			(compilation_id, position, output, root, error_code, error_message)
			VALUES (?, ?, ?, ?, ?, ?)
		`, c.ID, pos, out.Output, string(out.Root), out.ErrorCode, out.Error)
		if err != nil {
			return Compilation{}, fmt.Errorf("record compilation output %q: %w", out.Output, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Compilation{}, fmt.Errorf("record compilation: commit: %w", err)
	}
	return c, nil
}

// ReadCompilation loads a compilation by ID.
// Returns an error wrapping sql.ErrNoRows if it does not exist.
func (s *Store) ReadCompilation(ctx context.Context, id string) (Compilation, error) {
	var c Compilation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, seq, compiler_version
		FROM compilations
		WHERE id = ?
	`, id).Scan(&c.ID, &c.Source, &c.Seq, &c.CompilerVersion)
	if err != nil {
		return Compilation{}, fmt.Errorf("read compilation %s: %w", id, err)
	}

	outputs, err := s.readCompiledOutputs(ctx, id)
	if err != nil {
		return Compilation{}, err
	}
	c.Outputs = outputs
	return c, nil
}

// ListCompilations returns every logged compilation without its outputs.
// Ordered by seq ASC, id ASC COLLATE BINARY.
func (s *Store) ListCompilations(ctx context.Context) ([]Compilation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, seq, compiler_version
		FROM compilations
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query compilations: %w", err)
	}
	defer rows.Close()

	out := []Compilation{}
	for rows.Next() {
		var c Compilation
		if err := rows.Scan(&c.ID, &c.Source, &c.Seq, &c.CompilerVersion); err != nil {
			return nil, fmt.Errorf("scan compilation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}
	return out, nil
}

func (s *Store) readCompiledOutputs(ctx context.Context, id string) ([]CompiledOutput, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT output, root, error_code, error_message
		FROM compilation_outputs
		WHERE compilation_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query compilation outputs: %w", err)
	}
	defer rows.Close()

	outputs := []CompiledOutput{}
	for rows.Next() {
		var (
			out  CompiledOutput
			root string
		)
		if err := rows.Scan(&out.Output, &root, &out.ErrorCode, &out.Error); err != nil {
			return nil, fmt.Errorf("scan compilation output: %w", err)
		}
		out.Root = proto.ID(root)
		outputs = append(outputs, out)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilation outputs: %w", err)
	}
	return outputs, nil
}
