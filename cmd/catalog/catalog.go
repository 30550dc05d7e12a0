package catalog

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/falmar/swarmkeeper/internal/app"
	"github.com/falmar/swarmkeeper/internal/catalog"
	"github.com/falmar/swarmkeeper/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the service catalog",
	}

	cmd.AddCommand(listCmd(), importCmd())

	return cmd
}

func open() (app.Catalog, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	return app.OpenCatalog(cfg)
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tIMAGE\tREPLICAS\tSTATUS\tCLUSTER ID")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					e.Name, e.Definition.Image, e.Definition.Replicas, e.Status, e.ClusterID)
			}

			return w.Flush()
		},
	}
}

func importCmd() *cobra.Command {
	var compose bool

	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Register service definitions from a file, a directory or a compose project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			var defs []catalog.Definition
			var err error

			switch info, statErr := os.Stat(path); {
			case statErr != nil:
				return statErr
			case compose:
				defs, err = catalog.ImportCompose(ctx, path)
			case info.IsDir():
				defs, err = catalog.LoadDefinitionsDir(path)
			default:
				var def catalog.Definition
				def, err = catalog.LoadDefinitionFile(path)
				defs = []catalog.Definition{def}
			}
			if err != nil {
				return err
			}

			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			created, err := catalog.Register(ctx, store, defs)
			if err != nil {
				return err
			}

			log.Info().
				Int("found", len(defs)).
				Strs("registered", created).
				Msg("catalog import finished")

			return nil
		},
	}

	cmd.Flags().BoolVar(&compose, "compose", false, "treat the path as a docker compose file")

	return cmd
}
