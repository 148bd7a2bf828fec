package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/mmynk/billplanner/internal/api"
	"github.com/mmynk/billplanner/internal/state"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func formatDate(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).Format(dateLayout)
}

func printBills(out io.Writer, bills []*api.Bill) error {
	if len(bills) == 0 {
		_, err := fmt.Fprintln(out, "No bills.")
		return err
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tTITLE\tTOTAL\tPAID\tOPEN\tPARTS\tDUE")
	for _, b := range bills {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			b.ID, b.Title,
			b.TotalAmount.StringFixed(2), b.PaidAmount.StringFixed(2), b.OpenAmount.StringFixed(2),
			b.PartsCount, formatDate(b.DueAt))
	}
	return tw.Flush()
}

func printBill(out io.Writer, b *api.Bill) error {
	fmt.Fprintf(out, "%s  %s\n", b.Title, b.ID)
	fmt.Fprintf(out, "Total %s, paid %s, open %s\n\n",
		b.TotalAmount.StringFixed(2), b.PaidAmount.StringFixed(2), b.OpenAmount.StringFixed(2))

	tw := newTable(out)
	fmt.Fprintln(tw, "#\tINSTALLMENT\tAMOUNT\tSTATUS\tPAID ON")
	for _, inst := range b.Installments {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			inst.Index, inst.ID, inst.Amount.StringFixed(2), inst.Status, formatDate(inst.PaidAt))
	}
	return tw.Flush()
}

func printEntries(out io.Writer, entries []*api.BudgetEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "No budget entries.")
		return err
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tKIND\tLABEL\tAMOUNT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Kind, e.Label, e.Amount.StringFixed(2))
	}
	return tw.Flush()
}

func printSummary(out io.Writer, s *api.BudgetSummary) error {
	tw := newTable(out)
	fmt.Fprintf(tw, "Income\t%s\n", s.Income.StringFixed(2))
	fmt.Fprintf(tw, "Fixed costs\t%s\n", s.FixedCosts.StringFixed(2))
	fmt.Fprintf(tw, "Open bills\t%s\t(%d installments in %d bills)\n", s.OpenBills.StringFixed(2), s.OpenInstallments, s.ActiveBills)
	fmt.Fprintf(tw, "Paid so far\t%s\n", s.PaidBills.StringFixed(2))
	fmt.Fprintf(tw, "Available\t%s\n", s.Available.StringFixed(2))
	return tw.Flush()
}

func printView(out io.Writer, collection string, v state.View) error {
	switch collection {
	case "bills":
		if err := printBills(out, v.Bills); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "Open balance %s, paid %s\n\n", v.OpenBalance.StringFixed(2), v.PaidTotal.StringFixed(2))
		return err
	default:
		if err := printEntries(out, v.Entries); err != nil {
			return err
		}
		_, err := fmt.Fprintf(out, "Income %s, fixed costs %s\n\n", v.Income.StringFixed(2), v.FixedCosts.StringFixed(2))
		return err
	}
}
