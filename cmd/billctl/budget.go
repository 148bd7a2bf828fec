package main

import (
	"fmt"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/billplanner/internal/api"
)

func budgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage monthly incomes and fixed costs",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:       "add <income|fixed_cost> <label> <amount>",
			Short:     "Add a monthly income or fixed cost",
			Args:      cobra.ExactArgs(3),
			ValidArgs: []string{"income", "fixed_cost"},
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := parseAmount(args[2])
				if err != nil {
					return err
				}
				resp, err := a.budgetClient().AddEntry(cmd.Context(), connect.NewRequest(&api.AddEntryRequest{
					Kind:   args[0],
					Label:  args[1],
					Amount: amount,
				}))
				if err != nil {
					return err
				}
				return printEntries(a.out, []*api.BudgetEntry{resp.Msg.Entry})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List budget entries",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				resp, err := a.budgetClient().ListEntries(cmd.Context(), connect.NewRequest(&api.ListEntriesRequest{}))
				if err != nil {
					return err
				}
				return printEntries(a.out, resp.Msg.Entries)
			},
		},
		&cobra.Command{
			Use:   "delete <entry-id>",
			Short: "Delete a budget entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := a.budgetClient().DeleteEntry(cmd.Context(), connect.NewRequest(&api.DeleteEntryRequest{EntryID: args[0]}))
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Deleted entry %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "summary",
			Short: "Show income, fixed costs, open bills and what is left",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				resp, err := a.budgetClient().GetSummary(cmd.Context(), connect.NewRequest(&api.GetSummaryRequest{}))
				if err != nil {
					return err
				}
				return printSummary(a.out, resp.Msg.Summary)
			},
		},
	)
	return cmd
}
