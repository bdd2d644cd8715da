package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/theblitlabs/perfcounters/internal/counters"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the counter catalog and what is available on this host",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return runList(cmd.Context(), cmd.OutOrStdout(), asJSON)
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List every counter category with its counters and instances",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return runCategories(cmd.Context(), cmd.OutOrStdout(), asJSON)
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "Print JSON")
	categoriesCmd.Flags().Bool("json", false, "Print JSON")
}

type listRow struct {
	Context   string `json:"context"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Counter   string `json:"counter"`
	Instance  string `json:"instance,omitempty"`
	Unit      string `json:"unit"`
	Available bool   `json:"available"`
}

func runList(ctx context.Context, out io.Writer, asJSON bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	source, procs := newSource(cfg)
	var rows []listRow
	for _, group := range catalogs(ctx, cfg, procs) {
		for _, d := range group.Definitions {
			rows = append(rows, listRow{
				Context:   group.Context,
				Name:      d.Name,
				Category:  d.Category,
				Counter:   d.Counter,
				Instance:  d.Instance,
				Unit:      d.Unit.String(),
				Available: counters.Exists(ctx, source, d),
			})
		}
	}
	return writeList(out, rows, asJSON)
}

func writeList(out io.Writer, rows []listRow, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTEXT\tNAME\tCATEGORY\tCOUNTER\tINSTANCE\tUNIT\tAVAILABLE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			r.Context, r.Name, r.Category, r.Counter, r.Instance, r.Unit, r.Available)
	}
	return tw.Flush()
}

func runCategories(ctx context.Context, out io.Writer, asJSON bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	source, _ := newSource(cfg)
	return writeCategories(out, counters.Describe(ctx, source), asJSON)
}

func writeCategories(out io.Writer, infos []counters.CategoryInfo, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	for _, info := range infos {
		fmt.Fprintf(out, "%s\n", info.Name)
		if info.Error != "" {
			fmt.Fprintf(out, "  error: %s\n", info.Error)
		}
		if len(info.Instances) > 0 {
			fmt.Fprintf(out, "  instances: %v\n", info.Instances)
		}
		for _, c := range info.Counters {
			fmt.Fprintf(out, "  %s\n", c)
		}
	}
	return nil
}
