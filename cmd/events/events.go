package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/falmar/swarmkeeper/internal/app"
	"github.com/falmar/swarmkeeper/internal/config"
	"github.com/falmar/swarmkeeper/internal/events"
	"github.com/falmar/swarmkeeper/internal/queue"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Cmd() *cobra.Command {
	var peek bool
	var follow bool
	var size int64

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Read service status changes from the event queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			q, err := app.NewQueue(ctx, cfg)
			if err != nil {
				return err
			}
			if q == nil {
				return errors.New("no event queue configured, set sqs.queue_url")
			}

			for {
				if err := drain(ctx, os.Stdout, q, size, peek); err != nil {
					return err
				}
				if !follow || peek {
					return nil
				}

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Second):
				}
			}
		},
	}

	cmd.Flags().BoolVar(&peek, "peek", false, "print events without removing them from the queue")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep polling until interrupted, ignored with --peek")
	cmd.Flags().Int64Var(&size, "size", 10, "max events per poll")

	return cmd
}

// drain prints one batch of events and releases each of them: removed
// from the queue, or made visible again when peeking.
func drain(ctx context.Context, out io.Writer, q queue.Queue, size int64, peek bool) error {
	evts, err := q.Pop(ctx, size)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	for _, e := range evts {
		change, err := events.Decode(e)
		if err != nil {
			log.Warn().Err(err).Str("event_id", e.ID).Msg("dropping undecodable event")
		} else {
			fmt.Fprintf(out, "%s %s\n", change.Time.Format(time.RFC3339), events.Text(change))
		}

		if peek {
			err = q.Retry(ctx, e)
		} else {
			err = q.Remove(ctx, e)
		}
		if err != nil {
			log.Error().Err(err).Str("event_id", e.ID).Msg("failed to release event")
		}
	}

	return nil
}
