package audit

import (
	"context"
	"time"

	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	if base.Category == "" {
		base.Category = CategoryOf(base.Action)
	}
	return p.store.Append(ctx, base)
}

func (p *Publisher) List(ctx context.Context, principalID id.PrincipalID) ([]Event, error) {
	return p.store.ListByPrincipal(ctx, principalID)
}
