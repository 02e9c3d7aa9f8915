package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/pluginevents/pkg/pluginevents"
)

func newHandlersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "handlers",
		Short: "List registered handlers in dispatch order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.teardown()

			types := a.events.EventTypes()
			if len(types) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No handlers registered.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EVENT\tPRIORITY\tLISTENER\tHANDLER\tIGNORE CANCELLED")
			for _, t := range types {
				for _, h := range a.events.Handlers(t) {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
						pluginevents.Name(t), h.Priority, h.Listener, h.Method, h.IgnoreCancelled)
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d handlers across %d event types\n", a.events.HandlerCount(), len(types))
			return nil
		},
	}
}
