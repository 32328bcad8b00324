package orchestrator

import (
	"time"

	"github.com/tenlabs01/Diverss/internal/models"
)

// Tier applies to portfolios of at most MaxItems line items.
type Tier struct {
	MaxItems  int
	BatchSize int // 0 sends everything in one batch
	Delay     time.Duration
}

// Policy maps a portfolio size to a batch size and inter-batch delay.
// Larger portfolios get smaller batches and longer pauses to stay under
// upstream rate limits.
type Policy struct {
	Tiers    []Tier // ascending by MaxItems
	Fallback Tier   // used above the last tier
}

// DefaultPolicy returns the production sizing table.
func DefaultPolicy() Policy {
	return Policy{
		Tiers: []Tier{
			{MaxItems: 10, BatchSize: 0, Delay: 0},
			{MaxItems: 30, BatchSize: 8, Delay: time.Second},
			{MaxItems: 60, BatchSize: 7, Delay: 2 * time.Second},
		},
		Fallback: Tier{BatchSize: 6, Delay: 3 * time.Second},
	}
}

func (p Policy) tier(total int) Tier {
	for _, t := range p.Tiers {
		if total <= t.MaxItems {
			return t
		}
	}
	return p.Fallback
}

// BatchSize returns how many items go in each batch for a portfolio of total.
func (p Policy) BatchSize(total int) int {
	size := p.tier(total).BatchSize
	if size <= 0 || size > total {
		return total
	}
	return size
}

// Delay returns the pause between consecutive sequential batches.
func (p Policy) Delay(total int) time.Duration {
	return p.tier(total).Delay
}

// Partition splits items into consecutive batches. Concatenating the
// batches in order reproduces items exactly.
func (p Policy) Partition(items []models.LineItem) []models.Batch {
	if len(items) == 0 {
		return nil
	}

	size := p.BatchSize(len(items))
	batches := make([]models.Batch, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, models.Batch{
			Index: len(batches),
			Items: items[start:end:end],
		})
	}
	return batches
}
