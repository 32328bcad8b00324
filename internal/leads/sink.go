package leads

import (
	"context"
	"errors"
)

// Sink stores or forwards a lead.
type Sink interface {
	Send(ctx context.Context, lead Lead) error
}

// MultiSink sends to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Send(ctx context.Context, lead Lead) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Send(ctx, lead); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
