package nodes

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/falmar/swarmkeeper/internal/app"
	"github.com/falmar/swarmkeeper/internal/config"
	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Inspect and drain swarm nodes",
	}

	cmd.AddCommand(listCmd(), availabilityCmd("drain", model.NodeAvailabilityDrain), availabilityCmd("activate", model.NodeAvailabilityActive))

	return cmd
}

func dial() (*app.Docker, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	return app.DialDocker(cfg)
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the nodes of the swarm",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docker, err := dial()
			if err != nil {
				return err
			}
			defer docker.Close()

			nodes, err := docker.Cluster.ListNodes(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tHOSTNAME\tROLE\tSTATUS\tAVAILABILITY\tADDR\tCPUS\tMEMORY (MB)")
			for _, n := range nodes {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.1f\t%.0f\n",
					n.ID, n.Hostname, n.Role, n.State, n.Availability, n.Addr,
					n.Resources.CPUs, n.Resources.MemoryMB)
			}

			return w.Flush()
		},
	}
}

func availabilityCmd(use string, availability model.NodeAvailability) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <node-id>",
		Short: fmt.Sprintf("Set a node's availability to %s", availability),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docker, err := dial()
			if err != nil {
				return err
			}
			defer docker.Close()

			if err := docker.Cluster.SetAvailability(cmd.Context(), args[0], availability); err != nil {
				return err
			}

			log.Info().Str("node", args[0]).Str("availability", string(availability)).Msg("node updated")

			return nil
		},
	}
}
