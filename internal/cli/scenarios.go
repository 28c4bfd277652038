package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/barrage/internal/loadgen"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the built-in scenario profiles",
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDURATION\tWORKERS\tRATE\tRAMP-UP\tDESCRIPTION")
		for _, name := range loadgen.ProfileNames() {
			p, _ := loadgen.LookupProfile(name, loadgen.Overrides{})
			fmt.Fprintf(w, "%s\t%s\t%d\t%.0f/s\t%s\t%s\n",
				p.Name, p.Duration, p.Workers, p.TargetRate, p.RampUp, p.Description)
		}
		w.Flush()
	},
}
