package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/oddslens/engine/internal/domain"
)

// Event types used for allow-list filtering.
const (
	EventArbitrage = "arbitrage"
	EventEdge      = "edge"
)

// maxSeen caps the dedup set; when exceeded it is reset, which at worst
// re-alerts on a still-open opportunity.
const maxSeen = 4096

// Alerter inspects cycle snapshots and raises operator alerts for wide
// arbitrage spreads and strong edge signals. Already-alerted opportunities
// are suppressed for the lifetime of the process.
type Alerter struct {
	notifier  *Notifier
	minSpread float64

	mu   sync.Mutex
	seen map[string]bool
}

// NewAlerter creates an Alerter that alerts on pairs whose spread is at least
// minSpread probability points.
func NewAlerter(n *Notifier, minSpread float64) *Alerter {
	return &Alerter{
		notifier:  n,
		minSpread: minSpread,
		seen:      make(map[string]bool),
	}
}

// AlertSnapshot scans the snapshot and dispatches any new alerts. Delivery
// failures are returned but alerts are still marked seen, so a flaky channel
// does not cause repeated sends.
func (a *Alerter) AlertSnapshot(ctx context.Context, snap domain.Snapshot) error {
	var errs []string

	for _, pair := range snap.Pairs {
		if pair.Spread < a.minSpread {
			continue
		}
		key := "arb:" + pair.MarketA.ID + "|" + pair.MarketB.ID
		if !a.markSeen(key) {
			continue
		}
		title := fmt.Sprintf("Arbitrage: %.1fpt spread", pair.Spread)
		msg := fmt.Sprintf("%s\n%s @ %.1f%% vs %s @ %.1f%% (similarity %.2f)",
			pair.MarketA.Title,
			pair.MarketA.Source, pair.MarketA.Probability,
			pair.MarketB.Source, pair.MarketB.Probability,
			pair.Similarity,
		)
		if err := a.notifier.Notify(ctx, EventArbitrage, title, msg); err != nil {
			errs = append(errs, err.Error())
		}
	}

	for id, sig := range snap.Edges {
		if sig.EdgeLabel != domain.EdgeStrongBuy && sig.EdgeLabel != domain.EdgeStrongSell {
			continue
		}
		key := fmt.Sprintf("edge:%s:%s", id, sig.EdgeLabel)
		if !a.markSeen(key) {
			continue
		}
		title := fmt.Sprintf("%s signal (score %+d)", sig.EdgeLabel, sig.EdgeScore)
		msg := fmt.Sprintf("%s\nconfidence %.2f", marketTitle(snap, id), sig.Confidence)
		if err := a.notifier.Notify(ctx, EventEdge, title, msg); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: alert snapshot %s: %s", snap.RunID, strings.Join(errs, "; "))
	}
	return nil
}

// markSeen records the key and reports whether it was new.
func (a *Alerter) markSeen(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seen[key] {
		return false
	}
	if len(a.seen) >= maxSeen {
		a.seen = make(map[string]bool)
	}
	a.seen[key] = true
	return true
}

func marketTitle(snap domain.Snapshot, id string) string {
	for i := range snap.Markets {
		if snap.Markets[i].ID == id {
			return snap.Markets[i].Title
		}
	}
	return id
}
