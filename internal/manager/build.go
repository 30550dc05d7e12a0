package manager

import (
	"context"
	"fmt"

	"github.com/falmar/swarmkeeper/internal/builder"
	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/rs/zerolog/log"
)

// Build runs the build pipeline for a catalog entry's build context and
// image. It blocks for the whole build; the returned job carries the log
// either way.
func (svc *Service) Build(ctx context.Context, name, platform string) (builder.Job, error) {
	entry, err := svc.store.Get(ctx, name)
	if err != nil {
		return builder.Job{}, err
	}

	def := entry.Definition
	if def.BuildContext == "" {
		return builder.Job{}, fmt.Errorf("%w: service %q has no build_context", model.ErrInvalidDefinition, name)
	}
	if platform == "" {
		platform = builder.DefaultPlatform
	}

	job := svc.jobs.Enqueue(name, def.Image, platform)
	svc.jobs.MarkRunning(job.ID)

	log.Info().Str("service", name).Str("job_id", job.ID).Str("image", def.Image).Msg("build started")

	res := svc.builder.Build(ctx, def.BuildContext, def.Image, platform)
	svc.jobs.Finish(job.ID, res)

	job, _ = svc.jobs.Get(job.ID)
	if !res.Success {
		return job, fmt.Errorf("%w: %s", model.ErrBuildFailed, name)
	}

	return job, nil
}

func (svc *Service) Job(id string) (builder.Job, error) {
	job, ok := svc.jobs.Get(id)
	if !ok {
		return builder.Job{}, fmt.Errorf("build %q: %w", id, model.ErrNotFound)
	}
	return job, nil
}
