package audit

import (
	"context"
	"errors"
)

// Tee fans an event out to every store. All stores are attempted; the joined
// error reports each failure. The first store that implements Reader answers queries.
func Tee(stores ...Store) Store {
	return &tee{stores: stores}
}

type tee struct {
	stores []Store
}

func (t *tee) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range t.stores {
		if err := s.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *tee) ListBySubject(ctx context.Context, subject string) ([]Event, error) {
	for _, s := range t.stores {
		if r, ok := s.(Reader); ok {
			return r.ListBySubject(ctx, subject)
		}
	}
	return nil, nil
}

func (t *tee) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	for _, s := range t.stores {
		if r, ok := s.(Reader); ok {
			return r.ListRecent(ctx, limit)
		}
	}
	return nil, nil
}
