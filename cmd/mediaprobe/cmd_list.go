package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/mediaprobe/internal/contract"
	"github.com/shashiranjanraj/mediaprobe/internal/scenario"
)

// mediaprobe scenarios — print the registered suite.
var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List all registered scenarios and their tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tTAGS")
		fmt.Fprintln(w, "----\t----")
		for _, sc := range scenario.Suite() {
			fmt.Fprintf(w, "%s\t%s\n", sc.Name, strings.Join(sc.Tags, ", "))
		}
		return w.Flush()
	},
}

// mediaprobe schemas — print the embedded response schemas.
var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List the embedded response schemas",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := contract.LoadSchemas()
		if err != nil {
			return err
		}
		for _, name := range reg.Names() {
			fmt.Println(name)
		}
		return nil
	},
}
