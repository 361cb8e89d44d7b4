package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// Alerts turns simulation output into notifications.
type Alerts struct {
	n *Notifier
}

// NewAlerts wraps n.
func NewAlerts(n *Notifier) *Alerts {
	return &Alerts{n: n}
}

// Record implements simulation.Recorder: a fired event and any policy rate
// change on the day each produce one alert.
func (a *Alerts) Record(ctx context.Context, snap domain.DaySnapshot) error {
	var errs []error
	if ev := snap.Event; ev != nil {
		title := fmt.Sprintf("Market event on day %d", snap.Day)
		if err := a.n.Notify(ctx, EventMarketEvent, title, ev.Description); err != nil {
			errs = append(errs, err)
		}
	}
	for _, act := range snap.Actions {
		if act.Kind != domain.ActionRateChange {
			continue
		}
		title := fmt.Sprintf("Interest rate %s on day %d", act.Direction(), snap.Day)
		msg := fmt.Sprintf("%.4f -> %.4f (%s)", act.Before, act.After, act.Reason)
		if err := a.n.Notify(ctx, EventRateChange, title, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RunCompleted sends the end-of-run summary.
func (a *Alerts) RunCompleted(ctx context.Context, res domain.Results) error {
	return a.n.Notify(ctx, EventRunCompleted, "Simulation completed", summarize(res))
}

func summarize(res domain.Results) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d days, %d transactions, %d events, %d regulatory actions\n",
		res.RunID, res.DaysCompleted, len(res.Ledger), len(res.Events), len(res.Actions))
	fmt.Fprintf(&b, "interest rate %.4f, inflation %.4f, sentiment %.2f",
		res.FinalState.InterestRate, res.FinalState.InflationRate, res.FinalState.MarketSentiment)
	return b.String()
}
