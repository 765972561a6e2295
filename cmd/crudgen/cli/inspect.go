package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/faucetdb/crudgen/internal/connector"
)

func newTablesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			conn, closeFn, err := defaultConnector(cfg, newLogger())
			if err != nil {
				return err
			}
			defer closeFn()

			names, err := conn.GetTableNames(cmd.Context())
			if err != nil {
				return fmt.Errorf("list tables: %w", err)
			}
			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(names)
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newColumnsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "columns <table>",
		Short: "Show the columns code is generated from, and the foreign keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			conn, closeFn, err := defaultConnector(cfg, newLogger())
			if err != nil {
				return err
			}
			defer closeFn()

			set, err := connector.FetchTableColumns(cmd.Context(), conn, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(set)
			}

			fmt.Fprintf(out, "Columns: %s\n", set.PropertyNames())
			if len(set.Relationships) == 0 {
				return nil
			}
			fmt.Fprintln(out, "Relationships:")
			cols := make([]string, 0, len(set.Relationships))
			for c := range set.Relationships {
				cols = append(cols, c)
			}
			sort.Strings(cols)
			for _, c := range cols {
				fmt.Fprintf(out, "  %s -> %s\n", c, set.Relationships[c])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
