package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coregx/sqldialect/internal/dialects"
	"github.com/coregx/sqldialect/internal/sqltypes"
)

// sizeFlags are the --length, --precision and --scale flags.
type sizeFlags struct {
	length    int64
	precision int
	scale     int
}

func (s *sizeFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&s.length, "length", 0, "column length (default 255)")
	cmd.Flags().IntVar(&s.precision, "precision", 0, "numeric or temporal precision")
	cmd.Flags().IntVar(&s.scale, "scale", 0, "numeric scale")
}

func (s *sizeFlags) size() sqltypes.Size {
	return sqltypes.Size{Length: s.length, Precision: s.precision, Scale: s.scale}
}

func parseType(name string) (sqltypes.Code, error) {
	code, ok := sqltypes.ParseCode(name)
	if !ok {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("unknown type %q", name))
	}
	return code, nil
}

// ColumnTypeResult is the output of column-type and one row of matrix.
type ColumnTypeResult struct {
	Dialect    string  `json:"dialect"`
	Type       string  `json:"type"`
	DDL        string  `json:"ddl,omitempty"`
	Capacities []int64 `json:"capacities,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// NewColumnTypeCommand creates the column-type command.
func NewColumnTypeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		version string
		size    sizeFlags
	)
	cmd := &cobra.Command{
		Use:   "column-type <dialect> <type>",
		Short: "Resolve the DDL type of a column",
		Example: `  sqldialect column-type sqlserver varchar --length 9000
  sqldialect column-type oracle numeric --precision 12 --scale 2 --version 11.2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			code, err := parseType(args[1])
			if err != nil {
				return f.Error(err)
			}
			d, err := resolveDialect(rootOpts, f, args[:1], version)
			if err != nil {
				return f.Error(err)
			}
			res := resolveColumn(d, code, size.size())
			if res.Error != "" {
				return f.Error(NewExitError(ExitFailure, res.Error))
			}
			return f.Success(res, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, res.DDL)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "database version (default: the family default)")
	size.register(cmd)
	return cmd
}

func resolveColumn(d *dialects.Dialect, code sqltypes.Code, size sqltypes.Size) ColumnTypeResult {
	res := ColumnTypeResult{
		Dialect:    d.String(),
		Type:       code.String(),
		Capacities: d.ColumnCapacities(code),
	}
	ddl, err := d.ColumnType(code, size)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.DDL = ddl
	return res
}

// NewMatrixCommand creates the matrix command.
func NewMatrixCommand(rootOpts *RootOptions) *cobra.Command {
	var size sizeFlags
	cmd := &cobra.Command{
		Use:   "matrix <type>",
		Short: "Resolve one type across every dialect",
		Long: `Resolve one column type for the default version of every registered
dialect. Dialects are built and queried concurrently; the rows are printed
in dialect name order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			code, err := parseType(args[0])
			if err != nil {
				return f.Error(err)
			}
			rows, err := matrix(cmd, code, size.size())
			if err != nil {
				return f.Error(err)
			}
			failed := 0
			for _, r := range rows {
				if r.Error != "" {
					failed++
				}
			}
			if err := f.Success(rows, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "DIALECT\t%s\n", code)
				for _, r := range rows {
					cell := r.DDL
					if r.Error != "" {
						cell = "error: " + r.Error
					}
					fmt.Fprintf(tw, "%s\t%s\n", r.Dialect, cell)
				}
				return tw.Flush()
			}); err != nil {
				return err
			}
			if failed > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d dialect(s) cannot map %s", failed, code))
			}
			return nil
		},
	}
	size.register(cmd)
	return cmd
}

func matrix(cmd *cobra.Command, code sqltypes.Code, size sqltypes.Size) ([]ColumnTypeResult, error) {
	families := dialects.Families()
	rows := make([]ColumnTypeResult, len(families))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(4)
	for i, name := range families {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := dialects.Lookup(name, dialects.Version{})
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			rows[i] = resolveColumn(d, code, size)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot build dialects", err)
	}
	return rows, nil
}
