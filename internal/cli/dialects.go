package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/coregx/sqldialect/internal/dialects"
)

// DialectInfo describes one registered dialect family.
type DialectInfo struct {
	Name           string   `json:"name"`
	Aliases        []string `json:"aliases,omitempty"`
	DefaultVersion string   `json:"default_version"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List registered dialects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := newFormatter(rootOpts, cmd)
			infos := listDialects()
			return f.Success(infos, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tDEFAULT\tALIASES")
				for _, info := range infos {
					fmt.Fprintf(tw, "%s\t%s\t%v\n", info.Name, info.DefaultVersion, info.Aliases)
				}
				return tw.Flush()
			})
		},
	}
}

func listDialects() []DialectInfo {
	byFamily := make(map[string]*DialectInfo)
	infos := make([]DialectInfo, 0)
	for _, name := range dialects.Families() {
		v, _ := dialects.DefaultVersion(name)
		infos = append(infos, DialectInfo{Name: name, DefaultVersion: v.String()})
	}
	for i := range infos {
		byFamily[infos[i].Name] = &infos[i]
	}
	for _, name := range dialects.Names() {
		canonical, _ := dialects.Canonical(name)
		if info := byFamily[canonical]; info != nil && name != canonical {
			info.Aliases = append(info.Aliases, name)
		}
	}
	return infos
}

// CapabilityReport is the output of the capabilities command.
type CapabilityReport struct {
	Dialect          string                         `json:"dialect"`
	DefaultBatchSize int                            `json:"default_batch_size"`
	Capabilities     dialects.Capabilities          `json:"capabilities"`
	Sequences        dialects.SequenceSupport       `json:"sequences"`
	Identity         dialects.IdentityColumnSupport `json:"identity"`
}

// NewCapabilitiesCommand creates the capabilities command.
func NewCapabilitiesCommand(rootOpts *RootOptions) *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "capabilities [dialect]",
		Short: "Print the capability record of a dialect",
		Long: `Print the capability record of a dialect at a version. Without a
dialect argument the dialect from --config is used, overrides included.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			d, err := resolveDialect(rootOpts, f, args, version)
			if err != nil {
				return f.Error(err)
			}
			report := CapabilityReport{
				Dialect:          d.String(),
				DefaultBatchSize: d.DefaultBatchSize(),
				Capabilities:     d.Capabilities(),
				Sequences:        d.Sequences(),
				Identity:         d.Identity(),
			}
			return f.Success(report, func(w io.Writer) error {
				fmt.Fprintf(w, "# %s (batch size %d, sequences %t)\n",
					report.Dialect, report.DefaultBatchSize, report.Sequences.Supported)
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(report.Capabilities); err != nil {
					return err
				}
				return enc.Close()
			})
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "database version, e.g. 15.2 (default: the family default)")
	return cmd
}

// FunctionInfo describes one registered function.
type FunctionInfo struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
}

// NewFunctionsCommand creates the functions command.
func NewFunctionsCommand(rootOpts *RootOptions) *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "functions [dialect]",
		Short: "List the functions registered for a dialect",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			d, err := resolveDialect(rootOpts, f, args, version)
			if err != nil {
				return f.Error(err)
			}
			var infos []FunctionInfo
			for _, name := range d.Functions() {
				desc, err := d.Function(name)
				if err != nil {
					return f.Error(err)
				}
				infos = append(infos, FunctionInfo{Name: name, Signature: desc.Signature()})
			}
			return f.Success(infos, func(w io.Writer) error {
				for _, info := range infos {
					fmt.Fprintln(w, info.Signature)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "database version (default: the family default)")
	return cmd
}
