package main

import (
	"fmt"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mmynk/billplanner/internal/api"
)

const dateLayout = "2006-01-02"

func billsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bills",
		Short: "Manage bills and their installments",
	}
	cmd.AddCommand(
		billsListCmd(a),
		billsShowCmd(a),
		billsCreateCmd(a),
		billsUpdateCmd(a),
		billsEditCmd(a),
		billsPayCmd(a),
		billsPayAllCmd(a),
		billsDeleteCmd(a),
	)
	return cmd
}

func billsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bills",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.billClient().ListBills(cmd.Context(), connect.NewRequest(&api.ListBillsRequest{}))
			if err != nil {
				return err
			}
			return printBills(a.out, resp.Msg.Bills)
		},
	}
}

func billsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <bill-id>",
		Short: "Show a bill with its installments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.billClient().GetBill(cmd.Context(), connect.NewRequest(&api.GetBillRequest{BillID: args[0]}))
			if err != nil {
				return err
			}
			return printBill(a.out, resp.Msg.Bill)
		},
	}
}

// billFlags are shared by create and update.
type billFlags struct {
	title string
	total string
	parts int
	due   string
}

func (f *billFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Bill title")
	cmd.Flags().StringVar(&f.total, "total", "", "Total amount, e.g. 120.50")
	cmd.Flags().IntVar(&f.parts, "parts", 1, "Number of installments")
	cmd.Flags().StringVar(&f.due, "due", "", "Due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("total")
}

func (f *billFlags) parse() (total *decimal.Decimal, dueAt int64, err error) {
	total, err = parseAmount(f.total)
	if err != nil {
		return nil, 0, err
	}
	dueAt, err = parseDue(f.due)
	if err != nil {
		return nil, 0, err
	}
	return total, dueAt, nil
}

func billsCreateCmd(a *app) *cobra.Command {
	var f billFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a bill, optionally split into installments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			total, dueAt, err := f.parse()
			if err != nil {
				return err
			}
			resp, err := a.billClient().CreateBill(cmd.Context(), connect.NewRequest(&api.CreateBillRequest{
				Title:       f.title,
				TotalAmount: total,
				InParts:     f.parts > 1,
				PartsCount:  f.parts,
				DueAt:       dueAt,
			}))
			if err != nil {
				return err
			}
			return printBill(a.out, resp.Msg.Bill)
		},
	}
	f.register(cmd)
	return cmd
}

func billsUpdateCmd(a *app) *cobra.Command {
	var f billFlags
	cmd := &cobra.Command{
		Use:   "update <bill-id>",
		Short: "Change a bill's title, total or number of installments",
		Long: `Change a bill's title, total or number of installments.

Paid installments are kept as they are; the open ones are regenerated
over whatever is left of the new total.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, dueAt, err := f.parse()
			if err != nil {
				return err
			}
			resp, err := a.billClient().UpdateBill(cmd.Context(), connect.NewRequest(&api.UpdateBillRequest{
				BillID:      args[0],
				Title:       f.title,
				TotalAmount: total,
				InParts:     f.parts > 1,
				PartsCount:  f.parts,
				DueAt:       dueAt,
			}))
			if err != nil {
				return err
			}
			return printBill(a.out, resp.Msg.Bill)
		},
	}
	f.register(cmd)
	return cmd
}

func billsEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <bill-id> <installment-id> <amount>",
		Short: "Set one installment's amount and rebalance the other open ones",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			resp, err := a.billClient().EditInstallment(cmd.Context(), connect.NewRequest(&api.EditInstallmentRequest{
				BillID:        args[0],
				InstallmentID: args[1],
				Amount:        amount,
			}))
			if err != nil {
				return err
			}
			return printBill(a.out, resp.Msg.Bill)
		},
	}
}

func billsPayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pay <bill-id> <installment-id>",
		Short: "Mark one installment paid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.billClient().PayInstallment(cmd.Context(), connect.NewRequest(&api.PayInstallmentRequest{
				BillID:        args[0],
				InstallmentID: args[1],
			}))
			if err != nil {
				return err
			}
			return printBill(a.out, resp.Msg.Bill)
		},
	}
}

func billsPayAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pay-all <bill-id>",
		Short: "Pay every open installment of a bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.billClient().PayRemaining(cmd.Context(), connect.NewRequest(&api.PayRemainingRequest{BillID: args[0]}))
			if err != nil {
				return err
			}
			if !resp.Msg.Changed {
				fmt.Fprintln(a.out, "Bill was already paid in full.")
			}
			return printBill(a.out, resp.Msg.Bill)
		},
	}
}

func billsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <bill-id>",
		Short: "Delete a bill and its installments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.billClient().DeleteBill(cmd.Context(), connect.NewRequest(&api.DeleteBillRequest{BillID: args[0]}))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted bill %s\n", args[0])
			return nil
		},
	}
}

func parseAmount(s string) (*decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return &d, nil
}

func parseDue(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid due date %q, want YYYY-MM-DD", s)
	}
	return t.Unix(), nil
}
