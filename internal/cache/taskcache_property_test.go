package cache

import (
	"context"
	"reflect"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/valter-silva-au/taskdeck/internal/api"
	"github.com/valter-silva-au/taskdeck/pkg/models"
)

func genCachedTask(t *rapid.T, i int) models.Task {
	statuses := []models.TaskStatus{models.StatusTodo, models.StatusInProgress, models.StatusCompleted}
	priorities := []models.TaskPriority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent}
	task := models.Task{
		ID:        rapid.StringMatching(`t[0-9]{1,4}`).Draw(t, "id") + "-" + time.Now().Format("0102"),
		Title:     rapid.StringN(1, 24, 24).Draw(t, "title"),
		Status:    rapid.SampledFrom(statuses).Draw(t, "status"),
		Priority:  rapid.SampledFrom(priorities).Draw(t, "priority"),
		Category:  rapid.SampledFrom([]string{"", "work", "home"}).Draw(t, "category"),
		Tags:      rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,6}`), 0, 3).Draw(t, "tags"),
		UserID:    "u1",
		CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
	}
	if rapid.Bool().Draw(t, "hasDue") {
		due := task.CreatedAt.Add(48 * time.Hour)
		task.DueDate = &due
	}
	return task
}

func genCachedPatch(t *rapid.T) models.TaskPatch {
	var patch models.TaskPatch
	if rapid.Bool().Draw(t, "patchTitle") {
		title := rapid.StringN(1, 24, 24).Draw(t, "newTitle")
		patch.Title = &title
	}
	if rapid.Bool().Draw(t, "patchStatus") {
		status := rapid.SampledFrom([]models.TaskStatus{models.StatusTodo, models.StatusInProgress, models.StatusCompleted}).Draw(t, "newStatus")
		patch.Status = &status
	}
	if rapid.Bool().Draw(t, "patchPriority") {
		priority := rapid.SampledFrom([]models.TaskPriority{models.PriorityLow, models.PriorityHigh}).Draw(t, "newPriority")
		patch.Priority = &priority
	}
	if rapid.Bool().Draw(t, "patchTags") {
		patch.Tags = rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,6}`), 1, 3).Draw(t, "newTags")
	}
	return patch
}

// A failed mutation must leave the presented set exactly as it was, no
// matter which task was targeted or what the patch contained.
func TestPropertyFailedMutationsLeaveSetUntouched(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "n")
		seeded := make([]models.Task, n)
		ids := make(map[string]bool, n)
		for i := range seeded {
			task := genCachedTask(rt, i)
			for ids[task.ID] {
				task.ID += "x"
			}
			ids[task.ID] = true
			seeded[i] = task
		}

		failure := &api.Error{Kind: api.ErrUnavailable, Op: "updating task"}
		gw := &fakeGateway{
			listFn: func(ctx context.Context, rawQuery string) ([]models.Task, error) {
				out := make([]models.Task, len(seeded))
				copy(out, seeded)
				return out, nil
			},
			updateFn: func(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
				return nil, failure
			},
			deleteFn: func(ctx context.Context, id string) error {
				return failure
			},
			createFn: func(ctx context.Context, draft models.TaskDraft) (*models.Task, error) {
				return nil, failure
			},
		}
		c := New(gw, staticAuth("tok"))
		if err := c.Load(context.Background(), models.TaskFilter{}); err != nil {
			rt.Fatalf("loading: %v", err)
		}

		before := c.Snapshot()
		target := before[rapid.IntRange(0, len(before)-1).Draw(rt, "target")].ID

		switch rapid.IntRange(0, 3).Draw(rt, "op") {
		case 0:
			if _, err := c.Update(context.Background(), target, genCachedPatch(rt)); err == nil {
				rt.Fatal("expected update failure")
			}
		case 1:
			if _, err := c.ToggleComplete(context.Background(), target); err == nil {
				rt.Fatal("expected toggle failure")
			}
		case 2:
			if err := c.Delete(context.Background(), target); err == nil {
				rt.Fatal("expected delete failure")
			}
		case 3:
			if _, err := c.Create(context.Background(), models.TaskDraft{Title: "x"}); err == nil {
				rt.Fatal("expected create failure")
			}
		}

		after := c.Snapshot()
		if !reflect.DeepEqual(before, after) {
			rt.Fatalf("set changed after rollback\nbefore: %+v\nafter:  %+v", before, after)
		}
	})
}
