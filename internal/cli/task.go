package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskdeck/internal/api"
	"github.com/valter-silva-au/taskdeck/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks (list, add, edit, done, rm)",
	Long: `Task commands.

Mutations are optimistic: they apply to the local view immediately and
roll back if the server rejects them. An expired session surfaces as
an error asking you to sign in again.`,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks matching the given filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		if Tasks == nil {
			return fmt.Errorf("client not initialized")
		}

		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		if err := Tasks.Load(cmd.Context(), filter); err != nil {
			return describeAuthErr(err)
		}

		tasks := Tasks.Snapshot()
		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}

		fmt.Printf("  %-38s %-4s %-12s %-8s %-12s %s\n", "ID", "", "STATUS", "PRI", "DUE", "TITLE")
		for _, t := range tasks {
			fmt.Printf("  %-38s %-4s %-12s %-8s %-12s %s\n",
				t.ID, statusMark(t.Status), t.Status, t.Priority, formatDue(t.DueDate), t.Title)
		}

		stats := Tasks.Stats()
		fmt.Printf("\n  %d tasks: %d completed, %d pending, %d high priority\n",
			stats.Total, stats.Completed, stats.Pending, stats.HighPriority)
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show one task in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Gateway == nil {
			return fmt.Errorf("client not initialized")
		}

		task, err := Gateway.GetTask(cmd.Context(), args[0])
		if err != nil {
			return describeAuthErr(err)
		}

		fmt.Printf("%s %s\n", statusMark(task.Status), task.Title)
		fmt.Printf("  ID:       %s\n", task.ID)
		fmt.Printf("  Status:   %s\n", task.Status)
		fmt.Printf("  Priority: %s\n", task.Priority)
		if task.Description != "" {
			fmt.Printf("  Desc:     %s\n", task.Description)
		}
		if task.DueDate != nil {
			fmt.Printf("  Due:      %s\n", formatDue(task.DueDate))
		}
		if len(task.Tags) > 0 {
			fmt.Printf("  Tags:     %s\n", strings.Join(task.Tags, ", "))
		}
		if task.Category != "" {
			fmt.Printf("  Category: %s\n", task.Category)
		}
		if task.ProjectID != "" {
			fmt.Printf("  Project:  %s\n", task.ProjectID)
		}
		if task.EstimatedTime > 0 {
			fmt.Printf("  Estimate: %d min\n", task.EstimatedTime)
		}
		if task.ActualTimeSpent > 0 {
			fmt.Printf("  Spent:    %d min\n", task.ActualTimeSpent)
		}
		fmt.Printf("  Created:  %s\n", task.CreatedAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a new task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Tasks == nil {
			return fmt.Errorf("client not initialized")
		}

		draft := models.TaskDraft{Title: strings.Join(args, " ")}
		draft.Description, _ = cmd.Flags().GetString("desc")
		priority, _ := cmd.Flags().GetString("priority")
		if priority == "" && Config != nil {
			priority = string(Config.DefaultPriority)
		}
		draft.Priority = models.TaskPriority(priority)
		draft.Category, _ = cmd.Flags().GetString("category")
		draft.ProjectID, _ = cmd.Flags().GetString("project")
		draft.Tags, _ = cmd.Flags().GetStringSlice("tags")
		draft.EstimatedTime, _ = cmd.Flags().GetInt("estimate")

		if due, _ := cmd.Flags().GetString("due"); due != "" {
			d, err := time.Parse("2006-01-02", due)
			if err != nil {
				return fmt.Errorf("parsing --due: %w", err)
			}
			draft.DueDate = &d
		}

		task, err := Tasks.Create(cmd.Context(), draft)
		if err != nil {
			return describeAuthErr(err)
		}

		fmt.Printf("Created task %s\n", task.ID)
		fmt.Printf("  Title:    %s\n", task.Title)
		fmt.Printf("  Status:   %s\n", task.Status)
		fmt.Printf("  Priority: %s\n", task.Priority)
		if task.DueDate != nil {
			fmt.Printf("  Due:      %s\n", task.DueDate.Format("2006-01-02"))
		}
		return nil
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Update fields of an existing task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Tasks == nil {
			return fmt.Errorf("client not initialized")
		}

		var patch models.TaskPatch
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			patch.Title = &v
		}
		if cmd.Flags().Changed("desc") {
			v, _ := cmd.Flags().GetString("desc")
			patch.Description = &v
		}
		if cmd.Flags().Changed("status") {
			v, _ := cmd.Flags().GetString("status")
			s := models.TaskStatus(v)
			patch.Status = &s
		}
		if cmd.Flags().Changed("priority") {
			v, _ := cmd.Flags().GetString("priority")
			p := models.TaskPriority(v)
			patch.Priority = &p
		}
		if cmd.Flags().Changed("category") {
			v, _ := cmd.Flags().GetString("category")
			patch.Category = &v
		}
		if cmd.Flags().Changed("project") {
			v, _ := cmd.Flags().GetString("project")
			patch.ProjectID = &v
		}
		if cmd.Flags().Changed("tags") {
			v, _ := cmd.Flags().GetStringSlice("tags")
			patch.Tags = v
		}
		if cmd.Flags().Changed("due") {
			v, _ := cmd.Flags().GetString("due")
			d, err := time.Parse("2006-01-02", v)
			if err != nil {
				return fmt.Errorf("parsing --due: %w", err)
			}
			patch.DueDate = &d
		}
		if cmd.Flags().Changed("spent") {
			v, _ := cmd.Flags().GetInt("spent")
			patch.ActualTimeSpent = &v
		}

		if err := ensureLoaded(cmd.Context()); err != nil {
			return describeAuthErr(err)
		}
		task, err := Tasks.Update(cmd.Context(), args[0], patch)
		if err != nil {
			return describeAuthErr(err)
		}

		fmt.Printf("Updated task %s (%s)\n", task.ID, task.Title)
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Toggle a task between completed and its prior status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Tasks == nil {
			return fmt.Errorf("client not initialized")
		}

		if err := ensureLoaded(cmd.Context()); err != nil {
			return describeAuthErr(err)
		}
		task, err := Tasks.ToggleComplete(cmd.Context(), args[0])
		if err != nil {
			return describeAuthErr(err)
		}

		fmt.Printf("%s %s (%s)\n", statusMark(task.Status), task.Title, task.Status)
		return nil
	},
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Tasks == nil {
			return fmt.Errorf("client not initialized")
		}

		if err := ensureLoaded(cmd.Context()); err != nil {
			return describeAuthErr(err)
		}
		if err := Tasks.Delete(cmd.Context(), args[0]); err != nil {
			return describeAuthErr(err)
		}

		fmt.Printf("Deleted task %s\n", args[0])
		return nil
	},
}

// filterFromFlags builds a TaskFilter from the list command's flags,
// falling back to configured defaults for sort and order.
func filterFromFlags(cmd *cobra.Command) (models.TaskFilter, error) {
	var f models.TaskFilter
	f.Search, _ = cmd.Flags().GetString("search")
	status, _ := cmd.Flags().GetString("status")
	f.Status = models.TaskStatus(status)
	priority, _ := cmd.Flags().GetString("priority")
	f.Priority = models.TaskPriority(priority)
	f.Category, _ = cmd.Flags().GetString("category")
	f.ProjectID, _ = cmd.Flags().GetString("project")
	f.Tags, _ = cmd.Flags().GetStringSlice("tags")
	f.DueDateFrom, _ = cmd.Flags().GetString("due-from")
	f.DueDateTo, _ = cmd.Flags().GetString("due-to")

	sortBy, _ := cmd.Flags().GetString("sort")
	order, _ := cmd.Flags().GetString("order")
	if sortBy == "" && Config != nil {
		sortBy = string(Config.DefaultSortBy)
	}
	if order == "" && Config != nil {
		order = string(Config.DefaultOrder)
	}
	f.SortBy = models.SortField(sortBy)
	f.Order = models.SortOrder(order)

	for _, d := range []string{f.DueDateFrom, f.DueDateTo} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return f, fmt.Errorf("parsing due date %q: expected YYYY-MM-DD", d)
		}
	}
	return f, nil
}

// ensureLoaded populates the cache when a mutation targets a task the
// current process has not fetched yet.
func ensureLoaded(ctx context.Context) error {
	if len(Tasks.Snapshot()) > 0 {
		return nil
	}
	return Tasks.Load(ctx, models.TaskFilter{})
}

// describeAuthErr rewrites an expired-session failure into the manual
// re-authentication instruction; other errors pass through.
func describeAuthErr(err error) error {
	if errors.Is(err, api.ErrUnauthenticated) {
		return fmt.Errorf("session expired, sign in again with 'taskdeck auth login'")
	}
	return err
}

func statusMark(s models.TaskStatus) string {
	switch s {
	case models.StatusCompleted:
		return "[x]"
	case models.StatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

func formatDue(d *time.Time) string {
	if d == nil {
		return "-"
	}
	return d.Format("2006-01-02")
}

func init() {
	taskListCmd.Flags().String("search", "", "full-text search in title and description")
	taskListCmd.Flags().String("status", "", "filter by status (todo, in_progress, completed)")
	taskListCmd.Flags().String("priority", "", "filter by priority (low, medium, high, urgent)")
	taskListCmd.Flags().String("category", "", "filter by category")
	taskListCmd.Flags().String("project", "", "filter by project ID")
	taskListCmd.Flags().StringSlice("tags", nil, "filter by tags")
	taskListCmd.Flags().String("due-from", "", "due date lower bound (YYYY-MM-DD)")
	taskListCmd.Flags().String("due-to", "", "due date upper bound (YYYY-MM-DD)")
	taskListCmd.Flags().String("sort", "", "sort field (createdAt, updatedAt, dueDate, priority, title, status)")
	taskListCmd.Flags().String("order", "", "sort order (asc, desc)")

	taskAddCmd.Flags().String("desc", "", "task description")
	taskAddCmd.Flags().String("priority", "", "priority (low, medium, high, urgent)")
	taskAddCmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	taskAddCmd.Flags().StringSlice("tags", nil, "tags")
	taskAddCmd.Flags().String("category", "", "category")
	taskAddCmd.Flags().String("project", "", "project ID")
	taskAddCmd.Flags().Int("estimate", 0, "estimated time in minutes")

	taskEditCmd.Flags().String("title", "", "new title")
	taskEditCmd.Flags().String("desc", "", "new description")
	taskEditCmd.Flags().String("status", "", "new status")
	taskEditCmd.Flags().String("priority", "", "new priority")
	taskEditCmd.Flags().String("category", "", "new category")
	taskEditCmd.Flags().String("project", "", "new project ID")
	taskEditCmd.Flags().StringSlice("tags", nil, "replacement tag set")
	taskEditCmd.Flags().String("due", "", "new due date (YYYY-MM-DD)")
	taskEditCmd.Flags().Int("spent", 0, "actual time spent in minutes")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskRmCmd)
	rootCmd.AddCommand(taskCmd)
}
