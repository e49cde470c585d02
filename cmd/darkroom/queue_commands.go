package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"darkroom/internal/queue"
)

type queueListResponse struct {
	Capacity int              `json:"capacity"`
	Size     int              `json:"size"`
	Items    []queueItemModel `json:"items"`
}

type queueItemModel struct {
	RequesterID int64  `json:"requesterId"`
	DisplayName string `json:"displayName"`
	Status      string `json:"status"`
	Kind        string `json:"kind"`
	PayloadRef  string `json:"payloadRef"`
	Caption     string `json:"caption"`
	SubmittedAt string `json:"submittedAt"`
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the intake queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueDownloadCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp queueListResponse
			if err := ctx.getJSON(cmd.Context(), "/api/queue", &resp); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}
			if resp.Size == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				return nil
			}

			colorize := stdoutIsTerminal()
			rows := make([][]string, 0, len(resp.Items))
			for i, item := range resp.Items {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					item.DisplayName,
					colorStatus(item.Status, colorize),
					formatAge(item.SubmittedAt),
					item.Caption,
				})
			}
			table := renderTable(
				[]string{"#", "Requester", "Status", "Age", "Caption"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d slots used\n", resp.Size, resp.Capacity)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove every queued request",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("queue reset removes all requests; re-run with --force to confirm")
			}
			var resp struct {
				Removed           int    `json:"removed"`
				DurabilityWarning string `json:"durabilityWarning"`
			}
			if err := ctx.postJSON(cmd.Context(), "/reset", nil, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d requests\n", resp.Removed)
			if resp.DurabilityWarning != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Warning: %s\n", resp.DurabilityWarning)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm removal of all queued requests")
	return cmd
}

func newQueueDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch the raw queue snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []queueItemModel
			if err := ctx.getJSON(cmd.Context(), "/download-queue", &items); err != nil {
				return err
			}
			return writeJSON(cmd, items)
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp queueListResponse
			if err := ctx.getJSON(cmd.Context(), "/api/queue", &resp); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{"size": resp.Size, "capacity": resp.Capacity})
			}
			if resp.Size == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d slots used\n", resp.Size, resp.Capacity)
			if oldest := oldestSubmission(resp.Items); !oldest.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "Oldest request submitted %s\n", humanize.Time(oldest))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func formatAge(submittedAt string) string {
	ts, err := time.ParseInLocation(queue.TimeLayout, submittedAt, time.Local)
	if err != nil {
		return "unknown"
	}
	return humanize.Time(ts)
}

func oldestSubmission(items []queueItemModel) time.Time {
	var oldest time.Time
	for _, item := range items {
		ts, err := time.ParseInLocation(queue.TimeLayout, item.SubmittedAt, time.Local)
		if err != nil {
			continue
		}
		if oldest.IsZero() || ts.Before(oldest) {
			oldest = ts
		}
	}
	return oldest
}
