package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/2beens/activitytracker/internal/activities"
	"github.com/2beens/activitytracker/internal/dashboard"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	server  string
	timeout time.Duration
}

func (o *rootOptions) client() *client {
	return newClient(o.server, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "activityctl",
		Short:         "Manage logged activities of an activity tracker service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:9000", "activity tracker base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	root.AddCommand(newAddCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newGetCmd(opts))
	root.AddCommand(newUpdateCmd(opts))
	root.AddCommand(newDeleteCmd(opts))
	root.AddCommand(newWatchCmd(opts))
	return root
}

// parseDate accepts RFC 3339 timestamps and plain dates. Empty means no date.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD or RFC 3339", value)
	}
	return t, nil
}

func printActivities(w io.Writer, list []activities.Activity) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tACTIVITY\tDISTANCE\tDATE")
	for _, a := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%dm\t%s\n", a.ID, a.Activity, a.Distance, a.Date.Format(time.RFC3339))
	}
	return tw.Flush()
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var activity, date string
	var distance int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a new activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			added, err := opts.client().add(cmd.Context(), activities.Activity{
				Activity: activity,
				Distance: distance,
				Date:     d,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s: %s %dm at %s\n", added.ID, added.Activity, added.Distance, added.Date.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&activity, "activity", activities.Cycling, "activity: "+strings.Join(activities.Kinds, "|"))
	cmd.Flags().IntVar(&distance, "distance", 0, "distance in meters")
	cmd.Flags().StringVar(&date, "date", "", "date of the activity (default now)")
	_ = cmd.MarkFlagRequired("distance")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var filter listFilter
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activities ordered by date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := opts.client().list(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			return printActivities(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().StringVar(&filter.activity, "activity", "", "only this activity")
	cmd.Flags().StringVar(&filter.from, "from", "", "from date, inclusive")
	cmd.Flags().StringVar(&filter.to, "to", "", "to date, inclusive")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			activity, err := opts.client().get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printActivities(cmd.OutOrStdout(), []activities.Activity{*activity})
		},
	}
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var activity, date string
	var distance int

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace fields of an activity; unset flags keep the stored values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			current, err := c.get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("activity") {
				current.Activity = activity
			}
			if cmd.Flags().Changed("distance") {
				current.Distance = distance
			}
			if cmd.Flags().Changed("date") {
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				current.Date = d
			}

			if err := c.update(cmd.Context(), *current); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", current.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&activity, "activity", "", "new activity")
	cmd.Flags().IntVar(&distance, "distance", 0, "new distance in meters")
	cmd.Flags().StringVar(&date, "date", "", "new date")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var activity string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the live chart updates of one activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return watch(cmd.Context(), cmd.OutOrStdout(), opts.server, activity)
		},
	}
	cmd.Flags().StringVar(&activity, "activity", activities.Cycling, "activity to follow")
	return cmd
}

func liveURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/live"
	return u.String(), nil
}

func watch(ctx context.Context, out io.Writer, server, activity string) error {
	addr, err := liveURL(server)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		_ = conn.Close()
	}()

	if err := conn.WriteJSON(map[string]string{"activity": activity}); err != nil {
		return fmt.Errorf("select activity: %w", err)
	}

	for {
		var update dashboard.LiveUpdate
		if err := conn.ReadJSON(&update); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read live update: %w", err)
		}
		if update.Activity != activity {
			continue
		}
		_, _ = fmt.Fprintf(out, "v%d %s: +%d -%d %v\n",
			update.Version, update.Activity, len(update.Entered), len(update.Exited), update.Entered)
	}
}
