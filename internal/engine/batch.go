package engine

import (
	"context"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// BatchItem pairs an input address with its outcome.
type BatchItem struct {
	Address string        `json:"address"`
	Outcome model.Outcome `json:"outcome"`
}

// IdentifyAll resolves addresses one at a time, sharing the resolver's cache across
// them. onDone, when set, is called after each address. A cancelled context stops the
// run and returns the items completed so far.
func (r *Resolver) IdentifyAll(ctx context.Context, addresses []string, onDone func(BatchItem)) ([]BatchItem, error) {
	items := make([]BatchItem, 0, len(addresses))
	for _, address := range addresses {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		outcome := r.Identify(ctx, address)
		// An address interrupted mid-lookup is dropped, not reported as failed.
		if err := ctx.Err(); err != nil {
			return items, err
		}

		item := BatchItem{Address: address, Outcome: outcome}
		items = append(items, item)
		if onDone != nil {
			onDone(item)
		}
	}
	return items, nil
}
