// Package file loads fanfiction catalogs from plain YAML or JSON files,
// one file per fandom. It suits small self-contained catalogs checked into
// a repository next to the stories they describe.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/canonry/canonry/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Extensions tried when resolving a fandom file, in order.
var extensions = []string{".yaml", ".yml", ".json"}

// Provider implements ports.SnapshotProvider over a directory of catalog
// files. The file name (without extension) is the fandom ID.
type Provider struct {
	Dir string
}

// New creates a file-backed snapshot provider rooted at dir.
func New(dir string) *Provider {
	return &Provider{Dir: dir}
}

// Snapshot reads <dir>/<fandomID>.{yaml,yml,json} and converts it.
func (p *Provider) Snapshot(ctx context.Context, fandomID string) (*domain.Snapshot, error) {
	for _, ext := range extensions {
		path := filepath.Join(p.Dir, fandomID+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read catalog file: %w", err)
		}
		return parseCatalog(data, ext, fandomID)
	}
	return nil, fmt.Errorf("fandom %q: %w", fandomID, domain.ErrFandomNotFound)
}

// Fandoms lists every catalog file in the directory, sorted by fandom ID.
func (p *Provider) Fandoms(ctx context.Context) ([]domain.Fandom, error) {
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Fandom{}, nil
		}
		return nil, fmt.Errorf("failed to list catalog directory: %w", err)
	}

	var out []domain.Fandom
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !slices.Contains(extensions, ext) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ext)

		snap, err := p.Snapshot(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("catalog %q: %w", entry.Name(), err)
		}
		out = append(out, snap.Fandom)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func parseCatalog(data []byte, ext, fandomID string) (*domain.Snapshot, error) {
	var spec catalogFile
	if ext == ".json" {
		if err := json.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
		}
	}
	return spec.toSnapshot(fandomID)
}
