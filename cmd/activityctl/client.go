package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/activitytracker/internal/activities"

	"github.com/go-resty/resty/v2"
)

// client talks to the activities REST API of a running service.
type client struct {
	rc *resty.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Accept", "application/json")
	// retry only what never reached the handler
	rc.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() == http.StatusTooManyRequests
	})

	return &client{rc: rc}
}

func responseError(op string, resp *resty.Response) error {
	return fmt.Errorf("%s: %s: %s", op, resp.Status(), resp.String())
}

func (c *client) add(ctx context.Context, activity activities.Activity) (*activities.Activity, error) {
	var added activities.Activity
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(activity).
		SetResult(&added).
		Post("/activities")
	if err != nil {
		return nil, fmt.Errorf("add activity: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, responseError("add activity", resp)
	}
	return &added, nil
}

func (c *client) get(ctx context.Context, id string) (*activities.Activity, error) {
	var activity activities.Activity
	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&activity).
		Get("/activities/{id}")
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	if resp.IsError() {
		return nil, responseError("get activity", resp)
	}
	return &activity, nil
}

type listFilter struct {
	activity string
	from     string
	to       string
}

func (c *client) list(ctx context.Context, filter listFilter) ([]activities.Activity, error) {
	var list []activities.Activity
	req := c.rc.R().
		SetContext(ctx).
		SetResult(&list)
	if filter.activity != "" {
		req.SetQueryParam("activity", filter.activity)
	}
	if filter.from != "" {
		req.SetQueryParam("from", filter.from)
	}
	if filter.to != "" {
		req.SetQueryParam("to", filter.to)
	}

	resp, err := req.Get("/activities")
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	if resp.IsError() {
		return nil, responseError("list activities", resp)
	}
	return list, nil
}

func (c *client) update(ctx context.Context, activity activities.Activity) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParam("id", activity.ID).
		SetBody(activity).
		Put("/activities/{id}")
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	if resp.IsError() {
		return responseError("update activity", resp)
	}
	return nil
}

func (c *client) delete(ctx context.Context, id string) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete("/activities/{id}")
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	if resp.IsError() {
		return responseError("delete activity", resp)
	}
	return nil
}
