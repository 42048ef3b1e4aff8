package main

import (
	"github.com/spf13/cobra"

	"github.com/dukerupert/chorely/internal/chore"
)

func taskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage task definitions",
	}
	cmd.AddCommand(taskAddCmd(a))
	cmd.AddCommand(taskListCmd(a))
	cmd.AddCommand(taskDeactivateCmd(a))
	return cmd
}

func taskAddCmd(a *app) *cobra.Command {
	var (
		in                 chore.TaskInput
		start, end, dueStr string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Define a chore",
		Long: `Define a chore for a household.

Recurrence kinds are none, daily, weekly, monthly and custom. Every kind except
none needs --interval of at least 1; custom repeats every --interval days. A
one-off chore uses --kind none with --due.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if start != "" {
				if in.StartDate, err = parseDay("start", start); err != nil {
					return err
				}
			}
			if in.EndDate, err = parseOptionalDay("end", end); err != nil {
				return err
			}
			if in.DueDate, err = parseOptionalDay("due", dueStr); err != nil {
				return err
			}
			task, err := a.admin.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.print(task)
		},
	}
	f := cmd.Flags()
	f.Int64Var(&in.HouseholdID, "household", 0, "Household id")
	f.StringVar(&in.Title, "title", "", "Chore title")
	f.StringVar(&in.Description, "description", "", "Longer description")
	f.IntVar(&in.Points, "points", 0, "Points earned by the primary assignee")
	f.IntVar(&in.EstimatedMinutes, "minutes", 0, "Estimated minutes")
	f.Int64Var(&in.AssignedTo, "assignee", 0, "Primary assignee person id")
	f.Int64SliceVar(&in.SecondaryAssignees, "secondary", nil, "Secondary assignee person ids")
	f.StringVar(&in.RecurrenceKind, "kind", "daily", "Recurrence kind")
	f.IntVar(&in.RecurrenceInterval, "interval", 1, "Recurrence interval")
	f.StringVar(&start, "start", "", "First date the chore applies (YYYY-MM-DD)")
	f.StringVar(&end, "end", "", "Last date the chore applies (YYYY-MM-DD)")
	f.StringVar(&dueStr, "due", "", "Due date of a one-off chore (YYYY-MM-DD)")
	f.IntVar(&in.Priority, "priority", 1, "Priority: 1 low, 2 medium, 3 high")
	cmd.MarkFlagRequired("household")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("assignee")
	return cmd
}

func taskListCmd(a *app) *cobra.Command {
	var householdID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a household's chores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.admin.List(cmd.Context(), householdID)
			if err != nil {
				return err
			}
			return a.print(tasks)
		},
	}
	cmd.Flags().Int64Var(&householdID, "household", 0, "Household id")
	cmd.MarkFlagRequired("household")
	return cmd
}

func taskDeactivateCmd(a *app) *cobra.Command {
	var householdID, id int64
	cmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Stop a chore from producing new instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.admin.Deactivate(cmd.Context(), householdID, id)
		},
	}
	cmd.Flags().Int64Var(&householdID, "household", 0, "Household id")
	cmd.Flags().Int64Var(&id, "id", 0, "Task id")
	cmd.MarkFlagRequired("household")
	cmd.MarkFlagRequired("id")
	return cmd
}
