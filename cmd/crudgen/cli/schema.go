package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/model"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create, drop and alter tables",
		Long: `Edit the schema of the configured database. Every subcommand accepts
--dry-run to print the statement without executing it.`,
	}

	cmd.AddCommand(newSchemaCreateCmd())
	cmd.AddCommand(newSchemaDropCmd())
	cmd.AddCommand(newSchemaAlterCmd("add-column <table> <column> <type>", "Add a column", 3,
		func(args []string, _ string) connector.SchemaChange {
			return connector.SchemaChange{Type: connector.ChangeAddColumn, Column: args[1], ColType: args[2]}
		}))
	cmd.AddCommand(newSchemaAlterCmd("drop-column <table> <column>", "Remove a column", 2,
		func(args []string, _ string) connector.SchemaChange {
			return connector.SchemaChange{Type: connector.ChangeDropColumn, Column: args[1]}
		}))
	cmd.AddCommand(newSchemaAlterCmd("rename-column <table> <column> <new-name>", "Rename a column", 3,
		func(args []string, colType string) connector.SchemaChange {
			return connector.SchemaChange{Type: connector.ChangeRenameColumn, Column: args[1], NewName: args[2], ColType: colType}
		}))

	return cmd
}

// ---------- schema create ----------

func newSchemaCreateCmd() *cobra.Command {
	var (
		columns []string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "create <table>",
		Short: "Create a table",
		Example: `  crudgen schema create project --column id:INT:pk --column "title:VARCHAR(100)"
  crudgen schema create project --column id:INT:pk --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := make([]model.ColumnDef, 0, len(columns))
			for _, spec := range columns {
				def, err := parseColumnSpec(spec)
				if err != nil {
					return err
				}
				defs = append(defs, def)
			}

			return withConnector(cmd, func(conn connector.Connector) error {
				stmt, err := conn.BuildCreateTable(args[0], defs)
				if err != nil {
					return err
				}
				return execOrPrint(cmd, stmt, dryRun, func() error {
					return conn.CreateTable(cmd.Context(), args[0], defs)
				})
			})
		},
	}

	cmd.Flags().StringArrayVar(&columns, "column", nil, "Column as name:TYPE or name:TYPE:pk (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the statement without executing it")
	cmd.MarkFlagRequired("column")

	return cmd
}

// parseColumnSpec reads "name:TYPE" or "name:TYPE:pk".
func parseColumnSpec(spec string) (model.ColumnDef, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return model.ColumnDef{}, fmt.Errorf("invalid column %q: want name:TYPE or name:TYPE:pk", spec)
	}
	def := model.ColumnDef{
		Name: strings.TrimSpace(parts[0]),
		Type: strings.TrimSpace(parts[1]),
	}
	if len(parts) == 3 {
		if !strings.EqualFold(strings.TrimSpace(parts[2]), "pk") {
			return model.ColumnDef{}, fmt.Errorf("invalid column %q: third part must be pk", spec)
		}
		def.PrimaryKey = true
	}
	return def, nil
}

// ---------- schema drop ----------

func newSchemaDropCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnector(cmd, func(conn connector.Connector) error {
				stmt, err := conn.BuildDropTable(args[0])
				if err != nil {
					return err
				}
				return execOrPrint(cmd, stmt, dryRun, func() error {
					return conn.DropTable(cmd.Context(), args[0])
				})
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the statement without executing it")
	return cmd
}

// ---------- schema add-column / drop-column / rename-column ----------

func newSchemaAlterCmd(use, short string, nargs int, build func(args []string, colType string) connector.SchemaChange) *cobra.Command {
	var (
		dryRun  bool
		colType string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			change := build(args, colType)
			return withConnector(cmd, func(conn connector.Connector) error {
				stmt, err := conn.BuildAlterTable(args[0], change)
				if err != nil {
					return err
				}
				return execOrPrint(cmd, stmt, dryRun, func() error {
					return conn.AlterTable(cmd.Context(), args[0], []connector.SchemaChange{change})
				})
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the statement without executing it")
	if strings.HasPrefix(use, "rename-column") {
		cmd.Flags().StringVar(&colType, "type", "", "Column type after the rename (MySQL needs one; default VARCHAR(255))")
	}
	return cmd
}

// ---------- shared ----------

func withConnector(cmd *cobra.Command, fn func(connector.Connector) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	conn, closeFn, err := defaultConnector(cfg, newLogger())
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(conn)
}

func execOrPrint(cmd *cobra.Command, stmt string, dryRun bool, exec func() error) error {
	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprintln(out, stmt)
		return nil
	}
	if err := exec(); err != nil {
		return err
	}
	fmt.Fprintf(out, "OK: %s\n", stmt)
	return nil
}
