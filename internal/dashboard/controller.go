package dashboard

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/activitytracker/internal/activities"
	"github.com/2beens/activitytracker/internal/telemetry/metrics"
	"github.com/2beens/activitytracker/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=controller_mocks_test.go -package=dashboard

const InvalidDistanceMessage = "Please enter a valid distance"

type activityWriter interface {
	Add(ctx context.Context, activity activities.Activity) (*activities.Activity, error)
}

// Controller turns button clicks and form submissions into session changes and store writes.
type Controller struct {
	writer         activityWriter
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewController(writer activityWriter, metricsManager *metrics.Manager) *Controller {
	return &Controller{
		writer:         writer,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

// Select points the session, and the entry form with it, at another activity.
func (c *Controller) Select(session *Session, activity string) {
	activity = strings.TrimSpace(activity)
	if activity == "" {
		return
	}
	session.Activity = activity
	session.FormLabel = activity
	session.InputID = activity
}

// Submit writes the input as a new record of the selected activity when it is a positive
// integer, and sets the validation error otherwise. It returns true when a write happened.
// A failed write leaves the session as it was.
func (c *Controller) Submit(ctx context.Context, session *Session, input string) bool {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dashboard.submit")
	defer span.End()
	span.SetAttributes(attribute.String("activity", session.Activity))

	distance, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || distance <= 0 {
		session.InputValue = input
		session.ErrorText = InvalidDistanceMessage
		c.metricsManager.CounterInvalidEntries.Inc()
		return false
	}

	if _, err := c.writer.Add(ctx, activities.Activity{
		Activity: session.Activity,
		Distance: distance,
		Date:     c.now(),
	}); err != nil {
		span.RecordError(err)
		log.Errorf("add %s entry of %dm: %s", session.Activity, distance, err)
		c.metricsManager.CounterFailedWrites.Inc()
		return false
	}

	c.metricsManager.CounterEntriesAdded.WithLabelValues(session.Activity).Inc()
	session.InputValue = ""
	session.ErrorText = ""
	return true
}
