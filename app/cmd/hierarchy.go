package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexcodex/lsptree/app/hierview"
	"github.com/lexcodex/lsptree/hierarchy"
	"github.com/lexcodex/lsptree/lspconn"
)

const closeTimeout = 5 * time.Second

// outputFlags are shared by the types and calls commands.
type outputFlags struct {
	format   string
	tui      bool
	depth    int
	callSite bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.format, "format", "text", "Output format (text|json)")
	cmd.Flags().BoolVar(&o.tui, "tui", false, "Browse the hierarchy interactively")
	cmd.Flags().IntVar(&o.depth, "depth", -1, "Levels to print below the roots (default print_depth)")
	cmd.Flags().BoolVar(&o.callSite, "call-site", true, "Jump to call sites instead of declarations (default call_site_preferred)")
}

func (o *outputFlags) resolve(cmd *cobra.Command) error {
	if o.depth < 0 {
		o.depth = globalCfg.PrintDepth
	}
	if !cmd.Flags().Changed("call-site") {
		o.callSite = globalCfg.CallSitePreferred
	}
	switch o.format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("format %q must be text|json", o.format)
	}
}

// showFunc builds a tree over an open connection.
type showFunc func(ctx context.Context, conn lspconn.Connection, at hierarchy.TextPosition, opts ...hierarchy.Option) (*hierarchy.Tree, error)

func newTypesCmd() *cobra.Command {
	var out outputFlags
	var direction string
	var resolve int

	cmd := &cobra.Command{
		Use:   "types FILE:LINE[:COL]",
		Short: "Show supertypes and subtypes of the symbol at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.resolve(cmd); err != nil {
				return err
			}
			if !cmd.Flags().Changed("direction") {
				direction = globalCfg.TypeHierarchy.Direction
			}
			dir, err := hierarchy.ParseRequestDirection(direction)
			if err != nil {
				return err
			}
			if resolve <= 0 {
				resolve = globalCfg.TypeHierarchy.Resolve
			}
			show := func(ctx context.Context, conn lspconn.Connection, at hierarchy.TextPosition, opts ...hierarchy.Option) (*hierarchy.Tree, error) {
				return hierarchy.ShowTypeHierarchy(ctx, conn, at, dir, resolve, opts...)
			}
			return runHierarchy(cmd, args[0], out, fmt.Sprintf("Type hierarchy (%s)", dir), show)
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "both", "Relations to follow (sub|super|both)")
	cmd.Flags().IntVar(&resolve, "resolve", 0, "Levels the server resolves per request (default type_hierarchy.resolve)")
	out.register(cmd)
	return cmd
}

func newCallsCmd() *cobra.Command {
	var out outputFlags
	var outgoing bool

	cmd := &cobra.Command{
		Use:   "calls FILE:LINE[:COL]",
		Short: "Show callers (or callees) of the function at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.resolve(cmd); err != nil {
				return err
			}
			if !cmd.Flags().Changed("outgoing") {
				outgoing = globalCfg.CallHierarchy.Outgoing()
			}
			title := "Call hierarchy (incoming)"
			if outgoing {
				title = "Call hierarchy (outgoing)"
			}
			show := func(ctx context.Context, conn lspconn.Connection, at hierarchy.TextPosition, opts ...hierarchy.Option) (*hierarchy.Tree, error) {
				return hierarchy.ShowCallHierarchy(ctx, conn, at, outgoing, opts...)
			}
			return runHierarchy(cmd, args[0], out, title, show)
		},
	}
	cmd.Flags().BoolVar(&outgoing, "outgoing", false, "List callees instead of callers (default call_hierarchy.direction)")
	out.register(cmd)
	return cmd
}

// runHierarchy starts the configured server for the file, opens it and hands
// the tree to a printer or the interactive view.
func runHierarchy(cmd *cobra.Command, arg string, out outputFlags, title string, show showFunc) error {
	ctx := cmd.Context()
	ws := ensureWorkspace()
	loc, err := parseLocation(arg, ws)
	if err != nil {
		return err
	}
	name, srv, err := globalCfg.ServerFor(loc.path)
	if err != nil {
		return err
	}
	log := logger.With(zap.String("server", name))
	if out.tui && globalCfg.Logging.Path == "" {
		// stderr output would draw over the alternate screen
		log = zap.NewNop()
	}
	proc, err := lspconn.StartProcess(ctx, lspconn.ProcessConfig{
		Command:    srv.Command,
		Args:       srv.Args,
		RootDir:    ws,
		LanguageID: srv.LanguageID,
	}, lspconn.WithRequestTimeout(globalCfg.RequestTimeout), lspconn.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := proc.Close(closeCtx); err != nil {
			log.Debug("server close", zap.Error(err))
		}
	}()

	uri, err := proc.Open(ctx, loc.path)
	if err != nil {
		return err
	}
	at := hierarchy.TextPosition{URI: uri, Position: loc.pos}

	if out.tui {
		return browse(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), log, at, out, title, show, proc)
	}
	tree, err := show(ctx, proc, at,
		hierarchy.WithReporter(writerReporter{w: cmd.ErrOrStderr()}),
		hierarchy.WithLogger(log),
	)
	if err != nil {
		return reportedError{err: err}
	}
	return printTree(ctx, cmd.OutOrStdout(), tree, out)
}

func printTree(ctx context.Context, w io.Writer, tree *hierarchy.Tree, out outputFlags) error {
	for _, root := range tree.Roots() {
		tree.ExpandDepth(ctx, root, out.depth)
	}
	if out.format == "json" {
		return printJSON(w, tree, out.depth, out.callSite)
	}
	printText(w, tree, out.depth, out.callSite)
	return nil
}

func browse(ctx context.Context, stdout, stderr io.Writer, log *zap.Logger, at hierarchy.TextPosition, out outputFlags, title string, show showFunc, conn lspconn.Connection) error {
	status := hierview.NewStatus()
	tree, err := show(ctx, conn, at,
		hierarchy.WithReporter(status),
		hierarchy.WithLogger(log),
	)
	if err != nil {
		for _, msg := range status.Drain() {
			writerReporter{w: stderr}.Error(msg)
		}
		return reportedError{err: err}
	}
	model := hierview.NewModel(ctx, tree, status,
		hierview.WithTitle(title),
		hierview.WithCallSitePreferred(out.callSite),
		hierview.WithOpener(commandOpener{argv: globalCfg.OpenCommand}),
	)
	final, err := hierview.Run(ctx, model)
	if err != nil {
		return err
	}
	if target, ok := final.Selected(); ok {
		fmt.Fprintln(stdout, target)
	}
	return nil
}
