// Package publish defines where finished weekly reports can be sent besides
// the local outputs.
package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"weekbudget/internal/report"
)

// Publication is one finished report as handed to publishers.
type Publication struct {
	RunID       string
	BudgetName  string
	Report      report.Report
	Missing     []string
	GeneratedAt time.Time
}

// Publisher sends a publication to an external destination.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, p Publication) error
	Close() error
}

// All publishes p to every publisher and joins their errors. A failing
// publisher does not stop the others.
func All(ctx context.Context, pubs []Publisher, p Publication) error {
	var errs []error
	for _, pub := range pubs {
		if err := pub.Publish(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pub.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// CloseAll closes every publisher and joins their errors.
func CloseAll(pubs []Publisher) error {
	var errs []error
	for _, pub := range pubs {
		if err := pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pub.Name(), err))
		}
	}
	return errors.Join(errs...)
}
