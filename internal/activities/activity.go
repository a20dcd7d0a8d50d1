package activities

import (
	"errors"
	"time"
)

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrActivityExists   = errors.New("activity already exists")
)

const (
	Cycling  = "cycling"
	Running  = "running"
	Walking  = "walking"
	Swimming = "swimming"
)

// Kinds lists the activity tags offered by the dashboard buttons, in display order.
var Kinds = []string{Cycling, Running, Walking, Swimming}

// Activity is a single logged exercise: a distance in meters for an activity tag at a point in time.
type Activity struct {
	ID       string    `json:"id"`
	Activity string    `json:"activity"`
	Distance int       `json:"distance"`
	Date     time.Time `json:"date"`
}

type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
)

// Change is one entry of a change feed batch. Doc holds the whole record,
// for removals only its ID is relied on.
type Change struct {
	Type ChangeType `json:"type"`
	Doc  Activity   `json:"doc"`
}

// Batch is an ordered set of changes delivered together by the change feed.
type Batch struct {
	Changes []Change `json:"changes"`
}

func NewBatch(changeType ChangeType, docs ...Activity) Batch {
	changes := make([]Change, 0, len(docs))
	for _, doc := range docs {
		changes = append(changes, Change{Type: changeType, Doc: doc})
	}
	return Batch{Changes: changes}
}

func (b Batch) Empty() bool {
	return len(b.Changes) == 0
}
