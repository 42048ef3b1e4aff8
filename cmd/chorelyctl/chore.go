package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/model"
)

func materializeCmd(a *app) *cobra.Command {
	var (
		householdID int64
		from, to    string
	)
	cmd := &cobra.Command{
		Use:   "materialize",
		Short: "Create the instances due in a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDay, err := parseDay("from", from)
			if err != nil {
				return err
			}
			toDay, err := parseDay("to", to)
			if err != nil {
				return err
			}
			tasks, err := a.tasks.ListActiveByHousehold(cmd.Context(), householdID)
			if err != nil {
				return err
			}
			instances, err := a.materializer.EnsureRange(cmd.Context(), tasks, fromDay, toDay)
			if err != nil {
				return err
			}
			if instances == nil {
				instances = []model.TaskInstance{}
			}
			return a.print(map[string]any{"count": len(instances), "instances": instances})
		},
	}
	cmd.Flags().Int64Var(&householdID, "household", 0, "Household id")
	cmd.Flags().StringVar(&from, "from", "", "First date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("household")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}

func dashboardCmd(a *app) *cobra.Command {
	var (
		householdID, personID int64
		date, from, to        string
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the household dashboard for a day or range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := a.now()
			today := a.classifier.Today(now)
			q := chore.Query{HouseholdID: householdID, From: today, To: today}

			if date != "" {
				d, err := parseDay("date", date)
				if err != nil {
					return err
				}
				q.From, q.To = d, d
			}
			if from != "" || to != "" {
				if date != "" {
					return fmt.Errorf("--date cannot be combined with --from/--to")
				}
				var err error
				if q.From, err = parseDay("from", from); err != nil {
					return err
				}
				if q.To, err = parseDay("to", to); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("person") {
				q.PersonID = &personID
			}

			dash, err := a.assembler.Assemble(cmd.Context(), q, now)
			if err != nil {
				return err
			}
			return a.print(dash)
		},
	}
	cmd.Flags().Int64Var(&householdID, "household", 0, "Household id")
	cmd.Flags().Int64Var(&personID, "person", 0, "Only show this person's instances")
	cmd.Flags().StringVar(&date, "date", "", "Single day (YYYY-MM-DD), default today")
	cmd.Flags().StringVar(&from, "from", "", "Range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Range end (YYYY-MM-DD)")
	cmd.MarkFlagRequired("household")
	return cmd
}

func completeCmd(a *app) *cobra.Command {
	var instanceID, personID int64
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Complete a task instance on behalf of a person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.processor.Complete(cmd.Context(), instanceID, personID, a.now())
			if err != nil {
				return err
			}
			return a.print(result)
		},
	}
	cmd.Flags().Int64Var(&instanceID, "instance", 0, "Task instance id")
	cmd.Flags().Int64Var(&personID, "person", 0, "Person completing it")
	cmd.MarkFlagRequired("instance")
	cmd.MarkFlagRequired("person")
	return cmd
}

func marksCmd(a *app) *cobra.Command {
	var personID int64
	cmd := &cobra.Command{
		Use:   "marks",
		Short: "List the missed chores recorded against a person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			marks, err := a.marks.ListByPerson(cmd.Context(), personID)
			if err != nil {
				return err
			}
			if marks == nil {
				marks = []model.BlackMark{}
			}
			return a.print(marks)
		},
	}
	cmd.Flags().Int64Var(&personID, "person", 0, "Person id")
	cmd.MarkFlagRequired("person")
	return cmd
}
