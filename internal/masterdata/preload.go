package masterdata

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/drillrun/runwiz/internal/dependency"
)

// FetchAll loads the root options of every source concurrently. The
// first failure cancels the rest.
func FetchAll(ctx context.Context, f dependency.Fetcher, sources []string) (map[string][]dependency.Option, error) {
	g, ctx := errgroup.WithContext(ctx)

	out := make(map[string][]dependency.Option, len(sources))
	var mu sync.Mutex

	for _, src := range sources {
		g.Go(func() error {
			opts, err := f.Fetch(ctx, src, "")
			if err != nil {
				return err
			}
			mu.Lock()
			out[src] = opts
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
