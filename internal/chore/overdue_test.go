package chore

import (
	"testing"
	"time"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

func day(m time.Month, d int) recurrence.Day {
	return recurrence.Date(2025, m, d)
}

func dailyTask(every int) model.Task {
	return model.Task{
		ID:         1,
		Title:      "Dishes",
		Points:     10,
		Active:     true,
		Recurrence: recurrence.Daily{Every: every},
		StartDate:  day(time.March, 1),
		Priority:   model.PriorityLow,
	}
}

func TestClassify(t *testing.T) {
	c := NewClassifier(time.UTC)
	now := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		inst        model.TaskInstance
		task        model.Task
		wantStatus  Status
		wantDays    int
		wantPeriods int
	}{
		{
			name:       "due today is pending",
			inst:       model.TaskInstance{DueDate: day(time.March, 10)},
			task:       dailyTask(1),
			wantStatus: StatusPending,
		},
		{
			name:       "future is pending",
			inst:       model.TaskInstance{DueDate: day(time.March, 12)},
			task:       dailyTask(1),
			wantStatus: StatusPending,
		},
		{
			name:        "yesterday incomplete is overdue",
			inst:        model.TaskInstance{DueDate: day(time.March, 9)},
			task:        dailyTask(1),
			wantStatus:  StatusOverdue,
			wantDays:    1,
			wantPeriods: 1,
		},
		{
			name:        "every other day three periods behind",
			inst:        model.TaskInstance{DueDate: day(time.March, 3)},
			task:        dailyTask(2),
			wantStatus:  StatusOverdue,
			wantDays:    7,
			wantPeriods: 3,
		},
		{
			name:       "completed is never overdue",
			inst:       model.TaskInstance{DueDate: day(time.March, 2), IsCompleted: true},
			task:       dailyTask(1),
			wantStatus: StatusCompleted,
		},
		{
			name:       "before start date is never overdue",
			inst:       model.TaskInstance{DueDate: day(time.February, 20)},
			task:       dailyTask(1),
			wantStatus: StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := c.Classify(tt.inst, tt.task, now)
			if cl.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", cl.Status, tt.wantStatus)
			}
			if cl.IsOverdue != (tt.wantStatus == StatusOverdue) {
				t.Errorf("is overdue = %v", cl.IsOverdue)
			}
			if cl.DaysOverdue != tt.wantDays {
				t.Errorf("days overdue = %d, want %d", cl.DaysOverdue, tt.wantDays)
			}
			if cl.PeriodsMissed != tt.wantPeriods {
				t.Errorf("periods missed = %d, want %d", cl.PeriodsMissed, tt.wantPeriods)
			}
		})
	}
}

func TestClassifyOneShot(t *testing.T) {
	c := NewClassifier(time.UTC)
	due := recurrence.Date(2025, time.June, 10)
	task := model.Task{
		ID:         2,
		Title:      "Renew car registration",
		Points:     20,
		Active:     true,
		Recurrence: recurrence.None{},
		StartDate:  due,
		DueDate:    &due,
		Priority:   model.PriorityLow,
	}
	inst := model.TaskInstance{DueDate: due}

	cl := c.Classify(inst, task, time.Date(2025, time.June, 12, 8, 0, 0, 0, time.UTC))
	if !cl.IsOverdue || cl.Status != StatusOverdue {
		t.Errorf("status = %q, want overdue", cl.Status)
	}
	if cl.DaysOverdue != 2 {
		t.Errorf("days overdue = %d, want 2", cl.DaysOverdue)
	}
	if cl.PeriodsMissed != 0 {
		t.Errorf("periods missed = %d, want 0 for a one-shot task", cl.PeriodsMissed)
	}
	if cl.PreviousDue != nil {
		t.Errorf("previous due = %v, want nil", cl.PreviousDue)
	}

	cl = c.Classify(inst, task, time.Date(2025, time.June, 10, 20, 0, 0, 0, time.UTC))
	if cl.IsOverdue {
		t.Error("one-shot task due today should not be overdue")
	}
}

func TestClassifyPreviousDue(t *testing.T) {
	c := NewClassifier(time.UTC)
	now := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	cl := c.Classify(model.TaskInstance{DueDate: day(time.March, 7)}, dailyTask(3), now)
	if cl.PreviousDue == nil || !cl.PreviousDue.Equal(day(time.March, 4)) {
		t.Errorf("previous due = %v, want 2025-03-04", cl.PreviousDue)
	}

	cl = c.Classify(model.TaskInstance{DueDate: day(time.March, 1)}, dailyTask(3), now)
	if cl.PreviousDue != nil {
		t.Errorf("previous due = %v, want nil for first occurrence", cl.PreviousDue)
	}
}

func TestClassifyUsesHouseholdZone(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	c := NewClassifier(loc)
	// 03:00 UTC on March 10 is still March 9 at UTC-8.
	now := time.Date(2025, time.March, 10, 3, 0, 0, 0, time.UTC)

	cl := c.Classify(model.TaskInstance{DueDate: day(time.March, 9)}, dailyTask(1), now)
	if cl.IsOverdue {
		t.Error("instance due today in household zone should not be overdue")
	}
	if got := c.Today(now); !got.Equal(day(time.March, 9)) {
		t.Errorf("today = %s, want 2025-03-09", got)
	}
}

func TestEffectivePriority(t *testing.T) {
	tests := []struct {
		priority int
		overdue  bool
		want     int
	}{
		{model.PriorityLow, false, model.PriorityLow},
		{model.PriorityLow, true, model.PriorityMedium},
		{model.PriorityMedium, true, model.PriorityHigh},
		{model.PriorityHigh, true, model.PriorityHigh},
	}
	for _, tt := range tests {
		got := EffectivePriority(model.TaskInstance{CurrentPriority: tt.priority}, Classification{IsOverdue: tt.overdue})
		if got != tt.want {
			t.Errorf("EffectivePriority(%d, overdue=%v) = %d, want %d", tt.priority, tt.overdue, got, tt.want)
		}
	}
}

func TestNextStreak(t *testing.T) {
	today := day(time.March, 10)
	yesterday := day(time.March, 9)
	lastWeek := day(time.March, 3)

	tests := []struct {
		name    string
		current int
		last    *recurrence.Day
		want    int
	}{
		{"first completion", 0, nil, 1},
		{"same day unchanged", 4, &today, 4},
		{"consecutive day extends", 4, &yesterday, 5},
		{"gap resets", 4, &lastWeek, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextStreak(tt.current, tt.last, today); got != tt.want {
				t.Errorf("NextStreak = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSortInstances(t *testing.T) {
	mk := func(id int64, title string, overdue bool, daysOverdue int, completed, secondary bool, priority int, due recurrence.Day) DashboardInstance {
		return DashboardInstance{
			TaskInstance:      model.TaskInstance{ID: id, IsCompleted: completed, IsSecondary: secondary, DueDate: due},
			Classification:    Classification{IsOverdue: overdue, DaysOverdue: daysOverdue},
			TaskTitle:         title,
			EffectivePriority: priority,
		}
	}
	items := []DashboardInstance{
		mk(1, "done", false, 0, true, false, 3, day(time.March, 10)),
		mk(2, "secondary", false, 0, false, true, 2, day(time.March, 10)),
		mk(3, "low", false, 0, false, false, 1, day(time.March, 10)),
		mk(4, "late", true, 1, false, false, 2, day(time.March, 9)),
		mk(5, "very late", true, 3, false, false, 2, day(time.March, 7)),
		mk(6, "primary", false, 0, false, false, 2, day(time.March, 10)),
		mk(7, "alpha", false, 0, false, false, 1, day(time.March, 10)),
	}
	SortInstances(items)

	want := []int64{5, 4, 6, 2, 7, 3, 1}
	for i, id := range want {
		if items[i].ID != id {
			got := make([]int64, len(items))
			for j := range items {
				got[j] = items[j].ID
			}
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
