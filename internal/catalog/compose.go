package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	composetypes "github.com/compose-spec/compose-go/v2/types"
	"github.com/falmar/swarmkeeper/internal/model"
)

// ImportCompose converts the services of a compose file into definitions.
func ImportCompose(ctx context.Context, path string) ([]Definition, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read compose file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	details := composetypes.ConfigDetails{
		WorkingDir: filepath.Dir(abs),
		ConfigFiles: []composetypes.ConfigFile{
			{Filename: abs, Content: content},
		},
		Environment: composetypes.NewMapping(os.Environ()),
	}

	projectName := loader.NormalizeProjectName(filepath.Base(filepath.Dir(abs)))
	if projectName == "" {
		projectName = "swarmkeeper"
	}

	project, err := loader.LoadWithContext(ctx, details, func(o *loader.Options) {
		o.SetProjectName(projectName, true)
		o.SkipConsistencyCheck = true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load compose file: %w", err)
	}

	names := make([]string, 0, len(project.Services))
	for name := range project.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		svc := project.Services[name]
		defs = append(defs, Definition{
			Name:       name,
			Definition: fromCompose(svc),
		})
	}

	return defs, nil
}

func fromCompose(svc composetypes.ServiceConfig) model.ServiceDefinition {
	def := model.ServiceDefinition{
		Image:    svc.Image,
		Replicas: 1,
		Env:      map[string]string{},
		Labels:   map[string]string{},
	}

	if svc.Image == "" {
		def.Image = svc.Name
	}

	for _, p := range svc.Ports {
		if p.Published == "" || p.Target == 0 {
			continue
		}
		def.Ports = append(def.Ports, fmt.Sprintf("%s:%d", p.Published, p.Target))
	}

	for k, v := range svc.Environment {
		if v == nil {
			continue
		}
		def.Env[k] = *v
	}

	for k, v := range svc.Labels {
		def.Labels[k] = v
	}

	if d := svc.Deploy; d != nil {
		if d.Replicas != nil {
			def.Replicas = *d.Replicas
		}
		def.Constraints = append(def.Constraints, d.Placement.Constraints...)
		// deploy labels are the service labels in swarm mode
		for k, v := range d.Labels {
			def.Labels[k] = v
		}
	}

	networks := make([]string, 0, len(svc.Networks))
	for n := range svc.Networks {
		networks = append(networks, n)
	}
	sort.Strings(networks)
	def.Networks = networks

	for _, v := range svc.Volumes {
		if v.Type != composetypes.VolumeTypeBind || v.Source == "" || v.Target == "" {
			continue
		}
		m := v.Source + ":" + v.Target
		if v.ReadOnly {
			m += ":ro"
		}
		def.Mounts = append(def.Mounts, m)
	}

	if len(svc.Command) > 0 {
		def.Command = shellJoin(svc.Command)
	}

	if svc.Build != nil {
		def.BuildContext = svc.Build.Context
	}

	return def
}

// shellJoin quotes args so that shellwords splits the result back into
// the same argv.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(r rune) bool { return !isShellSafe(r) }) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./:=@%+,", r)
}
