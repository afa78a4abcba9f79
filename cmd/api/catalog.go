package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tripdesk/backend/internal/catalog"
)

func catalogCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the activity catalog and its document requirements",
		Long: `Prints every timeline category with its options, marking the ones that
need a license and insurance, followed by the trip types and the minimum
number of timeline entries each needs. Use --file to check a replacement
catalog before pointing CATALOG_FILE at it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(file)
			if err != nil {
				return err
			}
			printCatalog(cmd.OutOrStdout(), cat)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Catalog YAML file (default: built-in catalog)")
	return cmd
}

func printCatalog(w io.Writer, cat *catalog.Catalog) {
	bold := color.New(color.Bold)
	license := color.New(color.FgYellow).Sprint("license + insurance")

	for _, c := range cat.Categories {
		bold.Fprintf(w, "%s (%s)\n", c.Label, c.Key)
		for _, o := range c.Options {
			if o.License {
				fmt.Fprintf(w, "  - %s  %s\n", o.Label, license)
			} else {
				fmt.Fprintf(w, "  - %s\n", o.Label)
			}
		}
	}

	fmt.Fprintln(w)
	bold.Fprintln(w, "Trip types")
	for _, t := range cat.TripTypes {
		fmt.Fprintf(w, "  - %s (%s): at least %d timeline entries\n", t.Label, t.Key, t.MinRows)
	}
}
