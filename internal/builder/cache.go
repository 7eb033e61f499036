package builder

import (
	"context"
	"errors"

	"github.com/Norgate-AV/pdmake/internal/cache"
	"github.com/Norgate-AV/pdmake/internal/codes"
	"github.com/Norgate-AV/pdmake/internal/config"
	"github.com/Norgate-AV/pdmake/internal/logging"
)

// OpenCache loads the fingerprint cache for mode. A malformed store is
// discarded with a warning, which only costs a full rebuild.
func OpenCache(ctx context.Context, cfg *config.Config, mode Mode) (*cache.Cache, error) {
	log := logging.From(ctx)
	path := cache.StorePath(cfg.TargetDir(), mode.String(), cfg.CacheBackend)

	store, err := cache.OpenStore(cfg.CacheBackend, path)
	if err != nil {
		return nil, codes.IO(err, "open cache", path)
	}

	c, err := cache.Load(store, cfg.Root)
	if err != nil {
		var perr *cache.ParseError
		if !errors.As(err, &perr) {
			store.Close()
			return nil, codes.IO(err, "load cache", path)
		}

		log.Warn().Err(err).Str("cache", path).Msg("Ignoring unreadable cache, rebuilding everything")
		c = cache.New(store, cfg.Root)
	}

	log.Debug().Str("cache", path).Int("entries", c.Len()).Msg("Loaded cache")

	return c, nil
}
