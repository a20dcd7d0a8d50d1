// Package cache keeps the local mirror of the activity collection that the chart is drawn from.
package cache

import (
	"github.com/2beens/activitytracker/internal/activities"
)

// ApplyStats counts what a batch did to the mirror.
type ApplyStats struct {
	Added    int
	Modified int
	Removed  int
	Ignored  int
}

// Activities mirrors the store's live set in arrival order, keyed by record id.
// It is not safe for concurrent use; the live hub is its only owner.
type Activities struct {
	records []activities.Activity
	index   map[string]int
}

func NewActivities() *Activities {
	return &Activities{
		index: make(map[string]int),
	}
}

// Apply runs every change of the batch in order:
//   - added appends, or replaces in place when the id is already mirrored
//   - modified replaces the record with the same id, unknown ids are ignored
//   - removed drops the record with the same id
//   - any other change type is ignored
func (c *Activities) Apply(batch activities.Batch) ApplyStats {
	var stats ApplyStats
	for _, change := range batch.Changes {
		doc := change.Doc
		switch change.Type {
		case activities.ChangeAdded:
			if i, ok := c.index[doc.ID]; ok {
				c.records[i] = doc
			} else {
				c.index[doc.ID] = len(c.records)
				c.records = append(c.records, doc)
			}
			stats.Added++
		case activities.ChangeModified:
			i, ok := c.index[doc.ID]
			if !ok {
				stats.Ignored++
				continue
			}
			c.records[i] = doc
			stats.Modified++
		case activities.ChangeRemoved:
			if !c.remove(doc.ID) {
				stats.Ignored++
				continue
			}
			stats.Removed++
		default:
			stats.Ignored++
		}
	}
	return stats
}

func (c *Activities) remove(id string) bool {
	i, ok := c.index[id]
	if !ok {
		return false
	}

	delete(c.index, id)
	c.records = append(c.records[:i], c.records[i+1:]...)
	for j := i; j < len(c.records); j++ {
		c.index[c.records[j].ID] = j
	}
	return true
}

// Records returns a copy of the mirrored sequence.
func (c *Activities) Records() []activities.Activity {
	out := make([]activities.Activity, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Activities) Get(id string) (activities.Activity, bool) {
	i, ok := c.index[id]
	if !ok {
		return activities.Activity{}, false
	}
	return c.records[i], true
}

func (c *Activities) Len() int {
	return len(c.records)
}
