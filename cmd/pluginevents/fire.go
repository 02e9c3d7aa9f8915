package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newFireCmd(a *app) *cobra.Command {
	var fields []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "fire <event>",
		Short: "Dispatch a demo event and print the outcome",
		Long: `Dispatch a demo event and print the outcome.

Events: ` + strings.Join(catalogNames(), ", ") + `

Examples:
  pluginevents fire PlayerChat --script guard.lua --field player=steve --field message="buy spam"
  pluginevents fire BlockBreak --script guard.lua --field block=bedrock --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := newEvent(args[0], fields)
			if err != nil {
				return err
			}

			if err := a.setup(); err != nil {
				return err
			}
			defer a.teardown()

			cancelled := a.events.CallEventContext(cmd.Context(), event)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Event     string `json:"event"`
					Cancelled bool   `json:"cancelled"`
					Data      any    `json:"data"`
				}{args[0], cancelled, event})
			}

			fmt.Fprintf(out, "%s cancelled=%t\n", args[0], cancelled)
			data, err := json.Marshal(event)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\n", data)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&fields, "field", nil, "event field as key=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
