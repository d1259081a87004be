package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/core"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/report"
	"github.com/murillomartins101/Rockbuzz-Backstage-Finance/internal/session"
)

var (
	kpiFrom        string
	kpiTo          string
	kpiCategory    string
	kpiCostCenter  string
	kpiGranularity string
)

// kpiCmd represents the kpi command.
var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Print the dashboard numbers",
	Long: `Print the dashboard numbers: total revenue, total expense, balance,
average ticket and event count, optionally narrowed to a date window,
a category or a cost center.

With --granularity the period breakdown is printed as well.

Example:
  backstage-cli kpi
  backstage-cli kpi --from 2024-01-01 --to 2024-03-31 --granularity quarter
  backstage-cli kpi --cost-center Banda`,
	Run: runKPI,
}

func init() {
	kpiCmd.Flags().StringVar(&kpiFrom, "from", "", "start date (dd/mm/yyyy or yyyy-mm-dd)")
	kpiCmd.Flags().StringVar(&kpiTo, "to", "", "end date (dd/mm/yyyy or yyyy-mm-dd)")
	kpiCmd.Flags().StringVar(&kpiCategory, "category", "", "only rows with this category")
	kpiCmd.Flags().StringVar(&kpiCostCenter, "cost-center", "", "only rows with this cost center")
	kpiCmd.Flags().StringVar(&kpiGranularity, "granularity", "", "period table to print (month, quarter or year)")
}

func runKPI(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	req := session.OverviewRequest{
		Category:   kpiCategory,
		CostCenter: kpiCostCenter,
		FillGaps:   true,
	}
	var err error
	req.From, err = core.ParseDate(kpiFrom)
	exitOnError(err, "invalid --from date")
	req.To, err = core.ParseDate(kpiTo)
	exitOnError(err, "invalid --to date")

	var granularity report.Granularity
	if kpiGranularity != "" {
		granularity, err = report.ParseGranularity(kpiGranularity)
		exitOnError(err, "invalid --granularity")
	}

	sess, result := openSession(ctx)
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	overview, err := sess.Overview(ctx, req)
	exitOnError(err, "failed to build overview")

	fmt.Println("\n=== Resumo ===")
	for _, label := range overview.KPIs.Labels() {
		fmt.Printf("%-15s %s\n", label.Name+":", label.Value)
	}
	fmt.Println()

	if kpiGranularity == "" {
		return
	}

	var rows []report.PeriodRow
	switch granularity {
	case report.ByQuarter:
		rows = overview.Quarterly
	case report.ByYear:
		rows = overview.Yearly
	default:
		rows = overview.Monthly
	}

	for _, row := range rows {
		fmt.Printf("%-8s  receita %15s  despesa %15s  saldo %15s\n",
			row.Period.Label(),
			core.FormatBRL(row.Revenue),
			core.FormatBRL(row.Expense),
			core.FormatBRL(row.Balance()))
	}
	fmt.Println()
}
