package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Mode selects the seeding policy.
type Mode string

const (
	// ModeProduction seeds only a document that does not exist yet.
	ModeProduction Mode = "production"
	// ModeDevelopment reapplies the seed, when one exists, on every bootstrap.
	ModeDevelopment Mode = "development"
)

// ParseMode maps APP_ENV style values onto a Mode. Anything that is not
// production is development.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return ModeProduction
	default:
		return ModeDevelopment
	}
}

// Bootstrap guarantees the collection has a backing document. When the
// document is absent it is created from the seed at seedPath, or empty if
// there is no seed. In ModeDevelopment an available seed replaces the
// existing document. It holds the collection lock, so concurrent first
// accesses and Updates cannot interleave with it.
func (c *Collection[T]) Bootstrap(ctx context.Context, seedPath string, mode Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	exists, err := c.exists()
	if err != nil {
		return &StorageError{Collection: c.name, Op: "bootstrap", Err: err}
	}
	if exists && mode == ModeProduction {
		return nil
	}

	seed, found, err := c.readSeed(seedPath)
	if err != nil {
		return err
	}

	switch {
	case found && exists:
		current, _, _ := c.read()
		c.logger.WarnContext(ctx, "Replacing existing document with seed",
			"seed", seedPath,
			"mode", mode,
			"records", len(seed),
			"discarded", len(current),
		)
		return c.save(ctx, seed)
	case found:
		c.logger.InfoContext(ctx, "Seeding collection", "seed", seedPath, "records", len(seed), "mode", mode)
		return c.save(ctx, seed)
	case !exists:
		c.logger.InfoContext(ctx, "Initializing empty collection", "path", c.path)
		return c.save(ctx, []T{})
	}
	return nil
}

func (c *Collection[T]) readSeed(seedPath string) ([]T, bool, error) {
	if seedPath == "" {
		return nil, false, nil
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("docstore: read seed for %s: %w", c.name, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("docstore: seed %s is not a valid %s document: %w", seedPath, c.name, err)
	}
	return records, true, nil
}
