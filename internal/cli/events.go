package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskdeck/internal/observability"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recorded client events",
	Long: `Show events recorded by this client: session transitions and the
lifecycle of optimistic mutations (pending, committed, rolled back).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not available")
		}

		filter := observability.EventFilter{}
		filter.Type, _ = cmd.Flags().GetString("type")
		filter.Level, _ = cmd.Flags().GetString("level")
		filter.Limit, _ = cmd.Flags().GetInt("limit")
		if since, _ := cmd.Flags().GetString("since"); since != "" {
			s, err := time.Parse("2006-01-02", since)
			if err != nil {
				return fmt.Errorf("parsing --since: expected YYYY-MM-DD")
			}
			filter.Since = &s
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No events recorded.")
			return nil
		}

		for _, ev := range events {
			line := fmt.Sprintf("%s  %-5s %-20s %s",
				ev.Time.Local().Format("2006-01-02 15:04:05"), ev.Level, ev.Type, ev.Message)
			if id, ok := ev.Data["task_id"]; ok {
				line += fmt.Sprintf(" (task %v)", id)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().String("type", "", "filter by event type (e.g. auth.signed_in, cache.rolled_back)")
	eventsCmd.Flags().String("level", "", "filter by level (INFO, WARN, ERROR)")
	eventsCmd.Flags().String("since", "", "only events on or after this date (YYYY-MM-DD)")
	eventsCmd.Flags().Int("limit", 0, "show only the most recent N events")
	rootCmd.AddCommand(eventsCmd)
}
