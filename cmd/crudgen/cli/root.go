package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/faucetdb/crudgen/internal/config"
)

var (
	cfgFile    string
	dataDir    string
	devMode    bool
	appVersion string
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crudgen",
		Short: "Generate CRUD layers from a live database schema",
		Long: `crudgen inspects the tables of a MySQL (or PostgreSQL, or SQLite) database and
asks a generative model to write the CRUD stack for them: controller, service,
repository, DTO and entity, for Spring Boot or .NET Core.

Use it from the browser UI (crudgen serve), from the command line, or from an
AI agent over MCP (crudgen mcp).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./crudgen.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for the session database (default: in memory)")
	cmd.PersistentFlags().BoolVar(&devMode, "dev", false, "verbose logging")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newTablesCmd())
	cmd.AddCommand(newColumnsCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("crudgen")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.crudgen")
	}

	config.SetDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())
	if dataDir != "" {
		viper.Set("session.data_dir", dataDir)
	}
	viper.ReadInConfig() // Ignore error - config file is optional
}
