package swarm

import (
	"sort"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/swarm"
	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/mattn/go-shellwords"
)

// ServiceSpec translates a definition into a replicated swarm service spec.
// Malformed port and mount entries are dropped.
func ServiceSpec(name string, def model.ServiceDefinition) swarm.ServiceSpec {
	replicas := uint64(0)
	if def.Replicas > 0 {
		replicas = uint64(def.Replicas)
	}

	container := &swarm.ContainerSpec{
		Image:   def.Image,
		Env:     flattenEnv(def.Env),
		Mounts:  ParseMounts(def.Mounts),
		Command: parseCommand(def.Command),
	}

	task := swarm.TaskSpec{
		ContainerSpec: container,
		RestartPolicy: &swarm.RestartPolicy{
			Condition: swarm.RestartPolicyConditionOnFailure,
		},
	}

	if len(def.Constraints) > 0 {
		task.Placement = &swarm.Placement{Constraints: def.Constraints}
	}

	for _, n := range def.Networks {
		task.Networks = append(task.Networks, swarm.NetworkAttachmentConfig{Target: n})
	}

	spec := swarm.ServiceSpec{
		Annotations: swarm.Annotations{
			Name:   name,
			Labels: def.Labels,
		},
		TaskTemplate: task,
		Mode: swarm.ServiceMode{
			Replicated: &swarm.ReplicatedService{Replicas: &replicas},
		},
	}

	if ports := ParsePorts(def.Ports); len(ports) > 0 {
		spec.EndpointSpec = &swarm.EndpointSpec{Ports: ports}
	}

	return spec
}

// ParsePorts reads "published:target" pairs. A later entry for the same
// published port replaces an earlier one.
func ParsePorts(ports []string) []swarm.PortConfig {
	var configs []swarm.PortConfig
	index := map[uint32]int{}

	for _, p := range ports {
		parts := strings.Split(p, ":")
		if len(parts) != 2 {
			continue
		}

		published, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
		if err != nil {
			continue
		}
		target, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
		if err != nil {
			continue
		}

		cfg := swarm.PortConfig{
			Protocol:      swarm.PortConfigProtocolTCP,
			PublishedPort: uint32(published),
			TargetPort:    uint32(target),
		}

		if i, ok := index[cfg.PublishedPort]; ok {
			configs[i] = cfg
			continue
		}

		index[cfg.PublishedPort] = len(configs)
		configs = append(configs, cfg)
	}

	return configs
}

// ParseMounts reads "source:target[:mode]" bind mounts; mode "ro" makes
// the mount read-only.
func ParseMounts(mounts []string) []mount.Mount {
	var out []mount.Mount

	for _, m := range mounts {
		parts := strings.Split(m, ":")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			continue
		}

		bind := mount.Mount{
			Type:   mount.TypeBind,
			Source: parts[0],
			Target: parts[1],
		}
		if len(parts) > 2 && parts[2] == "ro" {
			bind.ReadOnly = true
		}

		out = append(out, bind)
	}

	return out
}

func flattenEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+env[k])
	}

	return pairs
}

func parseCommand(command string) []string {
	if strings.TrimSpace(command) == "" {
		return nil
	}

	args, err := shellwords.Parse(command)
	if err != nil {
		return strings.Fields(command)
	}

	return args
}
