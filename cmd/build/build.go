package build

import (
	"fmt"
	"os"

	"github.com/falmar/swarmkeeper/internal/app"
	"github.com/falmar/swarmkeeper/internal/builder"
	"github.com/falmar/swarmkeeper/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Cmd() *cobra.Command {
	var platform string
	var deploy bool

	cmd := &cobra.Command{
		Use:   "build <service>",
		Short: "Build and push the image of a catalog service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			store, err := app.OpenCatalog(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			docker, err := app.DialDocker(cfg)
			if err != nil {
				return err
			}
			defer docker.Close()

			svc := app.NewManager(cfg, store, docker, app.NewPublisher(ctx, cfg))

			job, err := svc.Build(ctx, args[0], platform)
			if job.Log != "" {
				fmt.Fprintln(os.Stdout, job.Log)
			}
			if err != nil {
				return err
			}

			if !deploy {
				return nil
			}

			entry, err := svc.GetService(ctx, args[0])
			if err != nil {
				return err
			}
			if entry.ClusterID != "" {
				_, err = svc.Redeploy(ctx, args[0])
			} else {
				_, err = svc.Deploy(ctx, args[0])
			}

			return err
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", builder.DefaultPlatform, "target platform")
	cmd.Flags().BoolVar(&deploy, "deploy", false, "deploy or update the service after a successful build")

	return cmd
}
