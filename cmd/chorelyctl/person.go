package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorely/internal/auth"
)

func personCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Manage household members",
	}
	cmd.AddCommand(personAddCmd(a))
	cmd.AddCommand(personListCmd(a))
	return cmd
}

func personAddCmd(a *app) *cobra.Command {
	var (
		householdID int64
		nickname    string
		pin         string
		avatar      string
		isAdmin     bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a person to a household",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := a.households.GetByID(ctx, householdID)
			if err != nil {
				return err
			}
			if h == nil {
				return fmt.Errorf("household %d not found", householdID)
			}
			nickname = strings.TrimSpace(nickname)
			if nickname == "" {
				return fmt.Errorf("--nickname must not be blank")
			}
			var pinHash string
			if pin != "" {
				if pinHash, err = auth.HashPIN(pin); err != nil {
					return err
				}
			}
			p, err := a.people.Create(ctx, householdID, nickname, avatar, pinHash, isAdmin)
			if err != nil {
				return err
			}
			return a.print(p)
		},
	}
	cmd.Flags().Int64Var(&householdID, "household", 0, "Household id")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Display name")
	cmd.Flags().StringVar(&pin, "pin", "", "Optional 4-digit PIN")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Avatar emoji or image name")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "Allow this person to manage tasks")
	cmd.MarkFlagRequired("household")
	cmd.MarkFlagRequired("nickname")
	return cmd
}

func personListCmd(a *app) *cobra.Command {
	var householdID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a household's members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			people, err := a.people.ListByHousehold(cmd.Context(), householdID)
			if err != nil {
				return err
			}
			return a.print(people)
		},
	}
	cmd.Flags().Int64Var(&householdID, "household", 0, "Household id")
	cmd.MarkFlagRequired("household")
	return cmd
}
