package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slayyden/Graphite/internal/proto"
	"github.com/slayyden/Graphite/internal/store"
)

// CachedNetwork is a cached network with its summary row.
type CachedNetwork struct {
	store.NetworkInfo
	Network *proto.Network `json:"network"`
}

// NewCacheCommand creates the cache command and its subcommands.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the compiled network cache",
		Long: `Inspect the SQLite cache written by "graphc compile --cache".

The cache path comes from --cache, GRAPHC_CACHE or the config file.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List cached networks",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheList(cmd.Context(), rootOpts, cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "show <root>",
		Short:         "Show one cached network",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheShow(cmd.Context(), rootOpts, proto.ID(args[0]), cmd)
		},
	})

	return cmd
}

func runCacheList(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts, cmd)

	st, err := openCache(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeCache, err.Error(), nil)
		return err
	}
	defer st.Close()

	infos, err := st.ListNetworks(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeCache, err.Error(), nil)
		return WrapExitError(ExitCommandError, "listing cache", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	w := formatter.Writer
	if len(infos) == 0 {
		fmt.Fprintln(w, "Cache is empty.")
		return nil
	}
	fmt.Fprintf(w, "%d cached network(s)\n\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(w, "  %s  %-16s %d node(s)\n", info.Root.Short(), info.Output, info.NodeCount)
	}
	return nil
}

func runCacheShow(ctx context.Context, opts *RootOptions, root proto.ID, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts, cmd)

	st, err := openCache(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeCache, err.Error(), nil)
		return err
	}
	defer st.Close()

	info, err := st.ReadNetworkInfo(ctx, root)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error(ErrCodeCache, fmt.Sprintf("network %s is not cached", root), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("network %s is not cached", root.Short()))
	}
	if err != nil {
		_ = formatter.Error(ErrCodeCache, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading cache", err)
	}

	net, err := st.ReadNetwork(ctx, root)
	if err != nil {
		_ = formatter.Error(ErrCodeCache, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading cache", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(CachedNetwork{NetworkInfo: info, Network: net})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "root    %s\n", info.Root)
	fmt.Fprintf(w, "digest  %s\n", info.Digest)
	fmt.Fprintf(w, "nodes   %d\n", info.NodeCount)
	fmt.Fprintf(w, "seq     %d\n\n", info.Seq)
	fmt.Fprint(w, net.Outline())
	return nil
}
