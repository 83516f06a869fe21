package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/arnsub/internal/arn"
	"github.com/systmms/arnsub/internal/config"
)

// planEntry describes one ARN that exec would resolve.
type planEntry struct {
	ARN     string `json:"arn"`
	Service string `json:"service"`
	Region  string `json:"region"`
	Field   string `json:"field,omitempty"`
}

func NewPlanCommand(cfg *config.Config) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which ARNs would be resolved (no values fetched)",
		Long: `Plan scans the environment for embedded ARNs and shows what exec would
resolve, without contacting AWS. Useful for verifying variable prefixes
and ARN syntax before a real run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			arns := newBinder(cfg).Extract(snapshotEnv())

			entries := make([]planEntry, 0, len(arns))
			for _, s := range arns {
				a, err := arn.Parse(s)
				if err != nil {
					return err
				}
				entries = append(entries, planEntry{
					ARN:     a.WithoutField().String(),
					Service: a.Service,
					Region:  a.Region,
					Field:   a.ResourceField,
				})
			}
			sort.Slice(entries, func(i, j int) bool {
				if entries[i].ARN != entries[j].ARN {
					return entries[i].ARN < entries[j].ARN
				}
				return entries[i].Field < entries[j].Field
			})

			if outputJSON {
				return outputPlanJSON(entries)
			}
			return outputPlanTable(entries)
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")

	return cmd
}

func outputPlanJSON(entries []planEntry) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func outputPlanTable(entries []planEntry) error {
	if len(entries) == 0 {
		fmt.Println("No ARNs found in the environment")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tREGION\tFIELD\tARN")
	for _, e := range entries {
		field := e.Field
		if field == "" {
			field = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Service, e.Region, field, e.ARN)
	}
	return w.Flush()
}
