package identify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"pokechat/internal/config"
	"pokechat/internal/fileutil"
	"pokechat/internal/imagehash"
	"pokechat/internal/logging"
	"pokechat/internal/pokeapi"
	"pokechat/internal/services"
)

// LoadDir builds the reference table from the image files in a directory.
// The entity name is the file name without its extension, lowercased. When
// two files reduce to the same name the later one wins.
func LoadDir(dir string, method imagehash.Method, size int, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "reference")

	files, err := fileutil.ListImages(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "reference", fmt.Sprintf("list images in %s", dir), err)
	}

	hashes := make(map[string]imagehash.Hash, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable reference file", logging.String("path", path), logging.Error(err))
			continue
		}
		img, err := imagehash.Decode(data)
		if err != nil {
			logger.Warn("skipping undecodable reference file", logging.String("path", path), logging.Error(err))
			continue
		}
		hash, err := imagehash.Compute(img, method, size)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "reference", fmt.Sprintf("hash %s", path), err)
		}

		name := fileutil.EntityName(path)
		if _, exists := hashes[name]; exists {
			logger.Warn("duplicate reference name, keeping later file",
				logging.String(logging.FieldEntity, name), logging.String("path", path))
		}
		hashes[name] = hash
	}

	if len(hashes) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "reference", fmt.Sprintf("no usable reference images in %s", dir), nil)
	}

	entries := make([]Entry, 0, len(hashes))
	for name, hash := range hashes {
		entries = append(entries, Entry{Name: name, Hash: hash})
	}
	set, err := NewSet(method, size, entries)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "reference", "assemble reference table", err)
	}

	logger.Info("reference table loaded", logging.String("dir", dir), logging.Int("entries", set.Len()))
	return set, nil
}

// Warm builds the reference table from PokéAPI sprites: the first
// Reference.Limit Pokémon are listed and their default front sprites are
// fetched with bounded concurrency. Individual sprite failures are logged
// and skipped; only an empty outcome is an error.
func Warm(ctx context.Context, client pokeapi.API, cfg *config.Config, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "reference")

	method, err := imagehash.ParseMethod(cfg.Hash.Method)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "reference", "invalid hash method", err)
	}
	size := cfg.Hash.Size

	page, err := client.ListPokemon(ctx, cfg.Reference.Limit, 0)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "reference", "list pokemon index", err)
	}

	slots := make([]Entry, len(page.Results))
	filled := make([]bool, len(page.Results))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Reference.WarmConcurrency)
	for i, res := range page.Results {
		i, res := i, res
		g.Go(func() error {
			id := res.ID()
			if id == 0 || res.Name == "" {
				logger.Warn("skipping index entry without id", logging.String("url", res.URL))
				return nil
			}
			data, err := client.GetBytes(gctx, client.SpriteURL(id))
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("skipping sprite fetch failure",
					logging.String(logging.FieldEntity, res.Name), logging.Error(err))
				return nil
			}
			img, err := imagehash.Decode(data)
			if err != nil {
				logger.Warn("skipping undecodable sprite",
					logging.String(logging.FieldEntity, res.Name), logging.Error(err))
				return nil
			}
			hash, err := imagehash.Compute(img, method, size)
			if err != nil {
				return fmt.Errorf("hash sprite for %s: %w", res.Name, err)
			}
			slots[i] = Entry{Name: res.Name, Hash: hash}
			filled[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, services.Wrap(services.ErrUpstream, "reference", "sprite warming aborted", err)
	}

	entries := make([]Entry, 0, len(slots))
	for i, entry := range slots {
		if filled[i] {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return nil, services.Wrap(services.ErrUpstream, "reference", "no sprites could be hashed", nil)
	}

	set, err := NewSet(method, size, entries)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "reference", "assemble reference table", err)
	}

	skipped := len(page.Results) - set.Len()
	logger.Info("reference table warmed",
		logging.Int("entries", set.Len()), logging.Int("skipped", skipped),
		logging.String(logging.FieldHashMethod, string(method)))
	return set, nil
}

// EmptySet returns a zero-entry table for the configured hashing
// parameters. The server can start with it; identification requests will
// report the upstream as unavailable until a real table is built.
func EmptySet(method imagehash.Method, size int) *Set {
	return &Set{method: method, size: size}
}
