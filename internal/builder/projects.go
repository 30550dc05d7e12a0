package builder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrProjectsDirMissing = errors.New("projects directory not found")

type Project struct {
	Name          string `json:"name"`
	HasDockerfile bool   `json:"has_dockerfile"`
	HasCompose    bool   `json:"has_compose"`
}

// ListProjects returns the non-hidden directories directly under root.
func ListProjects(root string) ([]Project, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrProjectsDirMissing, root)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read projects dir: %w", err)
	}

	projects := []Project{}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}

		dir := filepath.Join(root, e.Name())
		projects = append(projects, Project{
			Name:          e.Name(),
			HasDockerfile: exists(filepath.Join(dir, dockerfileName)),
			HasCompose:    exists(filepath.Join(dir, "docker-compose.yml")),
		})
	}
	sort.Slice(projects, func(i, k int) bool { return projects[i].Name < projects[k].Name })

	return projects, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
