package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/loam"
	"github.com/canonry/canonry"
	"github.com/canonry/canonry/pkg/adapters/file"
	loamAdapter "github.com/canonry/canonry/pkg/adapters/loam"
	redisAdapter "github.com/canonry/canonry/pkg/adapters/redis"
	"github.com/canonry/canonry/pkg/ports"
	"github.com/canonry/canonry/pkg/registry"
	backend "github.com/redis/go-redis/v9"
)

// EngineOptions is the flag surface shared by every command that builds an
// engine.
type EngineOptions struct {
	CatalogPath string
	Format      string // "loam", "files" or "auto"
	RedisAddr   string
	RedisTTL    time.Duration
	Heuristics  []string
	Timeout     time.Duration
	Sequential  bool
	MaxDepth    int
}

// BuildEngine initializes a Canonry engine with standard CLI conventions.
// Extra options append after the flag-derived ones, so callers can wire
// sinks and heuristics the flag surface does not cover.
func BuildEngine(opts EngineOptions, logger *slog.Logger, extra ...canonry.Option) (*canonry.Engine, error) {
	engineOpts := []canonry.Option{canonry.WithLogger(logger)}

	if len(opts.Heuristics) > 0 {
		hs, err := registry.New().Select(opts.Heuristics...)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, canonry.WithHeuristics(hs...))
	}
	if opts.Timeout > 0 {
		engineOpts = append(engineOpts, canonry.WithTimeout(opts.Timeout))
	}
	if opts.Sequential {
		engineOpts = append(engineOpts, canonry.WithParallel(false))
	}
	if opts.MaxDepth > 0 {
		engineOpts = append(engineOpts, canonry.WithMaxExpressionDepth(opts.MaxDepth))
	}

	provider, err := buildProvider(opts)
	if err != nil {
		return nil, err
	}
	if provider != nil {
		engineOpts = append(engineOpts, canonry.WithProvider(provider))
	}
	engineOpts = append(engineOpts, extra...)

	engine, err := canonry.New(opts.CatalogPath, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// buildProvider resolves the catalog backend. A nil provider with nil error
// means the engine should run its default Loam initialization.
func buildProvider(opts EngineOptions) (ports.SnapshotProvider, error) {
	format := opts.Format
	if format == "" || format == "auto" {
		format = detectFormat(opts.CatalogPath)
	}

	var inner ports.SnapshotProvider
	switch format {
	case "files":
		inner = file.New(opts.CatalogPath)
	case "loam":
		if opts.RedisAddr == "" {
			return nil, nil
		}
		// The cache needs the inner provider explicitly, so the default
		// initialization moves here.
		var err error
		inner, err = loamProvider(opts.CatalogPath)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown catalog format %q (want loam or files)", format)
	}

	if opts.RedisAddr != "" {
		client := backend.NewClient(&backend.Options{Addr: opts.RedisAddr})
		var cacheOpts []redisAdapter.Option
		if opts.RedisTTL > 0 {
			cacheOpts = append(cacheOpts, redisAdapter.WithTTL(opts.RedisTTL))
		}
		return redisAdapter.NewFromClient(client, inner, cacheOpts...), nil
	}
	return inner, nil
}

func loamProvider(path string) (ports.SnapshotProvider, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return loamAdapter.New(loam.NewTypedRepository[loamAdapter.EntityMetadata](repo)), nil
}

// detectFormat guesses the catalog layout. Markdown documents mean a Loam
// repository; a directory holding only YAML or JSON catalogs means the plain
// file provider. Loam wins ties because it is the native layout.
func detectFormat(path string) string {
	entries, err := os.ReadDir(path)
	if err != nil {
		return "loam"
	}

	sawCatalog := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".md":
			return "loam"
		case ".yaml", ".yml", ".json":
			sawCatalog = true
		}
	}
	if sawCatalog {
		return "files"
	}
	return "loam"
}
