package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/faucetdb/crudgen/internal/codegen"
	"github.com/faucetdb/crudgen/internal/connector"
	"github.com/faucetdb/crudgen/internal/model"
	"github.com/faucetdb/crudgen/internal/prompt"
)

func newGenerateCmd() *cobra.Command {
	var (
		framework string
		className string
		direction string
		layers    []string
		save      bool
	)

	cmd := &cobra.Command{
		Use:   "generate <table>",
		Short: "Generate CRUD code for a table",
		Long: `Generate CRUD code for a table and print it.

Without --class the whole stack is generated in one answer. With --class each
layer is generated on its own; --save writes them below output.base_dir.`,
		Example: `  crudgen generate employee
  crudgen generate employee --framework ".NET Core" --direction Bidirectional
  crudgen generate employee --class Employee --layers Controller,Service --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !prompt.ValidFramework(framework) {
				return fmt.Errorf("unknown framework %q (valid: %s)", framework, strings.Join(prompt.Frameworks, ", "))
			}
			if direction != "" && !slices.Contains(model.RelationshipDirections, direction) {
				return fmt.Errorf("invalid direction %q (valid: %s)", direction, strings.Join(model.RelationshipDirections, ", "))
			}
			if className == "" && (save || len(layers) > 0) {
				return fmt.Errorf("--layers and --save need --class")
			}
			if className != "" && !codegen.ValidClassName(className) {
				return fmt.Errorf("%w: %q", codegen.ErrInvalidClassName, className)
			}
			if len(layers) == 0 {
				layers = codegen.Layers
			}
			for _, l := range layers {
				if _, ok := codegen.Folders[l]; !ok {
					return fmt.Errorf("%w: %q (valid: %s)", codegen.ErrUnknownLayer, l, strings.Join(codegen.Layers, ", "))
				}
			}

			logger := newLogger()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			generator, err := newGenerator(cfg, logger)
			if err != nil {
				return err
			}
			conn, closeFn, err := defaultConnector(cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			set, err := connector.FetchTableColumns(ctx, conn, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if className == "" {
				code, err := generator.GenerateCRUD(ctx, prompt.CRUDInput{
					Properties:    set.PropertyNames(),
					Framework:     framework,
					Relationships: set.Relationships,
					Direction:     direction,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(out, code)
				return nil
			}

			writer := codegen.NewWriter(cfg.Output.BaseDir, framework)
			for _, layer := range layers {
				code, err := generator.GenerateLayer(ctx, layer, className, set.PropertyNames(), framework)
				if err != nil {
					return err
				}
				if save {
					path, err := writer.Save(layer, className, code)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Saved %s\n", path)
					continue
				}
				fmt.Fprintf(out, "// ----- %s -----\n%s\n\n", layer, code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&framework, "framework", prompt.SpringBoot, "Target framework: \"Spring Boot\" or \".NET Core\"")
	cmd.Flags().StringVar(&className, "class", "", "Class name; generates layer by layer")
	cmd.Flags().StringVar(&direction, "direction", "", "Relationship direction: Bidirectional or Unidirectional")
	cmd.Flags().StringSliceVar(&layers, "layers", nil, "Layers to generate with --class (default all)")
	cmd.Flags().BoolVar(&save, "save", false, "Write each layer to its file below output.base_dir")

	return cmd
}
