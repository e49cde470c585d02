package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type journalEventModel struct {
	EventID     string `json:"eventId"`
	Action      string `json:"action"`
	RequesterID int64  `json:"requesterId"`
	DisplayName string `json:"displayName"`
	Detail      string `json:"detail"`
	CreatedAt   string `json:"createdAt"`
}

func newJournalCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent audit journal events",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Events []journalEventModel `json:"events"`
			}
			path := fmt.Sprintf("/api/journal?limit=%d", limit)
			if err := ctx.getJSON(cmd.Context(), path, &resp); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}
			if len(resp.Events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No journal events")
				return nil
			}

			rows := make([][]string, 0, len(resp.Events))
			for _, evt := range resp.Events {
				requester := evt.DisplayName
				if requester == "" && evt.RequesterID != 0 {
					requester = strconv.FormatInt(evt.RequesterID, 10)
				}
				rows = append(rows, []string{evt.CreatedAt, evt.Action, requester, evt.Detail})
			}
			table := renderTable(
				[]string{"Time", "Action", "Requester", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of events to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
