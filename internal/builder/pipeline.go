package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/pkg/archive"
	"github.com/falmar/swarmkeeper/internal/observability"
	"github.com/rs/zerolog/log"
)

const DefaultPlatform = "linux/amd64"

// Engine is the image side of the docker client. *client.Client satisfies it.
type Engine interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ImagePush(ctx context.Context, image string, options types.ImagePushOptions) (io.ReadCloser, error)
}

type Config struct {
	// ProjectsDir is the root relative build contexts are resolved against.
	ProjectsDir string
	// RegistryAuth is sent with every push; zero value means anonymous.
	RegistryAuth registry.AuthConfig
}

// Result is the outcome of a build and push. Log is newline joined.
type Result struct {
	Success bool   `json:"success"`
	Log     string `json:"log"`
}

type Pipeline struct {
	engine Engine
	cfg    Config
}

func NewPipeline(engine Engine, cfg *Config) *Pipeline {
	p := &Pipeline{engine: engine}
	if cfg != nil {
		p.cfg = *cfg
	}
	return p
}

func (p *Pipeline) ProjectsDir() string {
	return p.cfg.ProjectsDir
}

// Build resolves buildContext against the projects dir and runs the
// pipeline on it.
func (p *Pipeline) Build(ctx context.Context, buildContext, image, platform string) Result {
	return p.Run(ctx, ResolveContext(p.cfg.ProjectsDir, buildContext), image, platform)
}

// Run builds image from contextDir and pushes it. It never returns an
// error: every failure ends up in the log with Success false.
func (p *Pipeline) Run(ctx context.Context, contextDir, image, platform string) (res Result) {
	if platform == "" {
		platform = DefaultPlatform
	}

	start := time.Now()
	out := &buildLog{}

	defer func() {
		if r := recover(); r != nil {
			out.add(fmt.Sprintf("Exception: %v", r))
			log.Error().Interface("panic", r).Str("image", image).Msg("build/push panicked")
			res = Result{Success: false, Log: out.String()}
		}
		observability.RecordBuild(res.Success, time.Since(start))
	}()

	ok, err := p.run(ctx, contextDir, image, platform, out)
	if err != nil {
		out.add("Exception: " + err.Error())
		log.Error().Err(err).Str("image", image).Msg("build/push failed")
		return Result{Success: false, Log: out.String()}
	}

	return Result{Success: ok, Log: out.String()}
}

func (p *Pipeline) run(ctx context.Context, contextDir, image, platform string, out *buildLog) (bool, error) {
	if err := Preflight(contextDir); err != nil {
		out.add("ERROR: " + err.Error())
		return false, nil
	}

	log.Info().Str("image", image).Str("context", contextDir).Str("platform", platform).Msg("building image")

	tar, err := archive.TarWithOptions(contextDir, &archive.TarOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to archive build context: %w", err)
	}
	defer tar.Close()

	resp, err := p.engine.ImageBuild(ctx, tar, types.ImageBuildOptions{
		Tags:       []string{image},
		Dockerfile: dockerfileName,
		Platform:   platform,
		Remove:     true,
	})
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if ok, err := consumeBuild(newRecordStream(resp.Body), out); !ok || err != nil {
		return false, err
	}

	repository, tag := ParseImage(image)
	out.add(fmt.Sprintf("Pushing %s...", image))
	log.Info().Str("image", image).Msg("pushing image")

	auth, err := registry.EncodeAuthConfig(p.cfg.RegistryAuth)
	if err != nil {
		return false, fmt.Errorf("failed to encode registry auth: %w", err)
	}

	body, err := p.engine.ImagePush(ctx, repository+":"+tag, types.ImagePushOptions{RegistryAuth: auth})
	if err != nil {
		return false, err
	}
	defer body.Close()

	if ok, err := consumePush(newRecordStream(body), out); !ok || err != nil {
		return false, err
	}

	out.add("Done.")
	return true, nil
}

func consumeBuild(s *recordStream, out *buildLog) (bool, error) {
	for {
		rec, err := s.Next()
		if errors.Is(err, io.EOF) {
			return true, nil
		} else if err != nil {
			return false, fmt.Errorf("failed to read build output: %w", err)
		}

		if rec.Err != "" {
			out.add("ERROR: " + rec.Err)
			log.Error().Str("error", rec.Err).Msg("build error")
			return false, nil
		}

		if line := strings.TrimRight(rec.Log, " \t\r\n"); line != "" {
			out.add(line)
			log.Debug().Msg("[build] " + line)
		}
	}
}

func consumePush(s *recordStream, out *buildLog) (bool, error) {
	seen := map[string]struct{}{}

	for {
		rec, err := s.Next()
		if errors.Is(err, io.EOF) {
			return true, nil
		} else if err != nil {
			return false, fmt.Errorf("failed to read push output: %w", err)
		}

		switch {
		case rec.Err != "":
			out.add("ERROR: " + rec.Err)
			log.Error().Str("error", rec.Err).Msg("push error")
			return false, nil
		case rec.Digest != "":
			out.add("Digest: " + rec.Digest)
		case rec.Status != "":
			if _, ok := seen[rec.Status]; ok {
				continue
			}
			seen[rec.Status] = struct{}{}
			out.add(rec.Status)
		}
	}
}

type buildLog struct {
	lines []string
}

func (b *buildLog) add(line string) {
	b.lines = append(b.lines, line)
}

func (b *buildLog) String() string {
	return strings.Join(b.lines, "\n")
}
