package main

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/pluginevents/pkg/pluginevents/faultlog"
)

func newFaultsCmd(a *app) *cobra.Command {
	var limit int
	var eventType string
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "faults",
		Short: "List handler faults from the configured fault journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.teardown()

			store, ok := a.events.FaultRecorder().(faultlog.Store)
			if !ok {
				return fmt.Errorf("no fault journal configured (set faults.store)")
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if clearAll {
				if err := store.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, "Fault journal cleared.")
				return nil
			}

			counts, err := store.CountByEventType(ctx)
			if err != nil {
				return err
			}
			var records []faultlog.Record
			if eventType != "" {
				records, err = store.ListByEventType(ctx, eventType, limit)
			} else {
				records, err = store.List(ctx, limit)
			}
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No faults recorded.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tEVENT\tLISTENER\tHANDLER\tPRIORITY\tPANIC\tMESSAGE")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
					r.OccurredAt.Format(time.RFC3339), r.EventType, r.Listener, r.Method,
					r.Priority, r.Panicked, r.Message)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(out)
			for _, name := range sortedKeys(counts) {
				fmt.Fprintf(out, "%s: %d\n", name, counts[name])
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records to show (0 for all)")
	cmd.Flags().StringVar(&eventType, "event", "", "only show faults for this event type")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete every recorded fault")
	return cmd
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
