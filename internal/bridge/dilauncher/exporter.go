package dilauncher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/autopeer-io/carbridge/pkg/log"
)

// Exporter stores a rendered automation file and returns where it went.
type Exporter interface {
	Export(ctx context.Context, data []byte) (string, error)
}

// Export generates, renders and stores the automations for statusTopic.
func Export(ctx context.Context, statusTopic string, exp Exporter) (string, error) {
	automations, err := Generate(statusTopic)
	if err != nil {
		return "", err
	}
	data, err := Render(automations)
	if err != nil {
		return "", fmt.Errorf("failed to render automations: %w", err)
	}

	location, err := exp.Export(ctx, data)
	if err != nil {
		log.Error(err, "Failed to export DiLauncher automations")
		return "", err
	}
	log.Info("Successfully generated DiLauncher automations", "location", location, "entries", len(automations))
	return location, nil
}

// FileExporter writes the automation file to the local filesystem.
type FileExporter struct {
	Path string
}

var _ Exporter = (*FileExporter)(nil)

func (e *FileExporter) Export(_ context.Context, data []byte) (string, error) {
	path, err := filepath.Abs(e.Path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", e.Path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
