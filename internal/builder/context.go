package builder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/parser"
)

const dockerfileName = "Dockerfile"

// ResolveContext returns buildContext unchanged when absolute, otherwise
// joined onto projectsRoot.
func ResolveContext(projectsRoot, buildContext string) string {
	if filepath.IsAbs(buildContext) {
		return filepath.Clean(buildContext)
	}
	return filepath.Join(projectsRoot, buildContext)
}

// ParseImage splits "registry/name[:tag]" into repository and tag. Only a
// colon in the last path segment counts as a tag separator, so a registry
// port is never mistaken for one.
func ParseImage(image string) (repository string, tag string) {
	last := image
	if i := strings.LastIndex(image, "/"); i >= 0 {
		last = image[i+1:]
	}

	if strings.Contains(last, ":") {
		i := strings.LastIndex(image, ":")
		return image[:i], image[i+1:]
	}

	return image, "latest"
}

// Preflight checks that dir holds a Dockerfile the daemon has a chance of
// building.
func Preflight(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("build context %s does not exist", dir)
		}
		return fmt.Errorf("build context %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("build context %s is not a directory", dir)
	}

	f, err := os.Open(filepath.Join(dir, dockerfileName))
	if err != nil {
		return fmt.Errorf("no %s in %s", dockerfileName, dir)
	}
	defer f.Close()

	res, err := parser.Parse(f)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", dockerfileName, err)
	}

	for _, node := range res.AST.Children {
		if strings.EqualFold(node.Value, "from") {
			return nil
		}
	}

	return fmt.Errorf("%s has no FROM instruction", dockerfileName)
}
