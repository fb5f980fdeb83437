package eventbus

import (
	"context"
	"errors"

	"github.com/nerrad567/asset-registry/internal/asset"
)

// Fanout publishes each event to every sink in order. One failing sink
// does not stop the others; all failures are joined.
type Fanout struct {
	sinks []asset.EventSink
}

// NewFanout creates a Fanout. Nil sinks are skipped.
func NewFanout(sinks ...asset.EventSink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		f.Add(s)
	}
	return f
}

// Add appends a sink. Not safe to call concurrently with Publish.
func (f *Fanout) Add(sink asset.EventSink) {
	if sink != nil {
		f.sinks = append(f.sinks, sink)
	}
}

// Len returns the number of sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Publish implements asset.EventSink.
func (f *Fanout) Publish(ctx context.Context, e asset.Event) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
