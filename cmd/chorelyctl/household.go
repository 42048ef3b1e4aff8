package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorely/internal/auth"
)

func householdCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "household",
		Short: "Manage households",
	}
	cmd.AddCommand(householdCreateCmd(a))
	return cmd
}

func householdCreateCmd(a *app) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a household login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			existing, _, err := a.households.GetCredentials(ctx, email)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("a household with email %s already exists", email)
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			h, err := a.households.Create(ctx, name, email, hash)
			if err != nil {
				return err
			}
			return a.print(h)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Household name")
	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&password, "password", "", "Login password (at least 8 characters)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}
