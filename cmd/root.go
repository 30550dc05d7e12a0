package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/falmar/swarmkeeper/cmd/build"
	"github.com/falmar/swarmkeeper/cmd/catalog"
	"github.com/falmar/swarmkeeper/cmd/events"
	"github.com/falmar/swarmkeeper/cmd/nodes"
	"github.com/falmar/swarmkeeper/cmd/serve"
	"github.com/falmar/swarmkeeper/internal/config"
	"github.com/falmar/swarmkeeper/internal/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "swarmkeeper",
	Short:         "Docker Swarm control plane",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: config.yaml)")

	rootCmd.AddCommand(
		serve.Cmd(),
		nodes.Cmd(),
		build.Cmd(),
		catalog.Cmd(),
		events.Cmd(),
	)
}

func initConfig() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading .env: %v\n", err)
	}

	v := viper.GetViper()
	config.Setup(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}

	observability.InitLogger("swarmkeeper", v.GetString("log.level"), v.GetString("log.format"))
}
