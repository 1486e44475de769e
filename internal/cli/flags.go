package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alexanderramin/effort/internal/contract"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/importer"
)

// monthValue is a pflag.Value holding an optional YYYY-MM month. An empty
// argument leaves the bound open.
type monthValue struct {
	ym *domain.YearMonth
}

var _ pflag.Value = (*monthValue)(nil)

func (m *monthValue) String() string {
	if m.ym == nil {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.ym.Year, m.ym.Month)
}

func (m *monthValue) Set(s string) error {
	if s == "" {
		m.ym = nil
		return nil
	}
	ym, err := importer.ParseMonth(s)
	if err != nil {
		return err
	}
	m.ym = &ym
	return nil
}

func (m *monthValue) Type() string { return "month" }

// windowFlags binds --start and --end as YYYY-MM months.
type windowFlags struct {
	start, end monthValue
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().Var(&w.start, "start", "First active month (YYYY-MM)")
	cmd.Flags().Var(&w.end, "end", "Last active month (YYYY-MM)")
}

func (w *windowFlags) changed(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("start") || cmd.Flags().Changed("end")
}

func (w *windowFlags) input() contract.WindowInput {
	var in contract.WindowInput
	if ym := w.start.ym; ym != nil {
		in.StartYear, in.StartMonth = &ym.Year, &ym.Month
	}
	if ym := w.end.ym; ym != nil {
		in.EndYear, in.EndMonth = &ym.Year, &ym.Month
	}
	return in
}

// update returns nil unless a window flag was given. A given window replaces
// both bounds.
func (w *windowFlags) update(cmd *cobra.Command) *contract.WindowInput {
	if !w.changed(cmd) {
		return nil
	}
	in := w.input()
	return &in
}

func accountingFlags(cmd *cobra.Command, a *domain.Accounting) {
	cmd.Flags().StringVar(&a.FundCode, "fund-code", "", "Fund code")
	cmd.Flags().StringVar(&a.Source, "source", "", "Funding source")
	cmd.Flags().StringVar(&a.Account, "account", "", "Account")
	cmd.Flags().StringVar(&a.CostCode1, "cost-code-1", "", "Cost code 1")
	cmd.Flags().StringVar(&a.CostCode2, "cost-code-2", "", "Cost code 2")
	cmd.Flags().StringVar(&a.CostCode3, "cost-code-3", "", "Cost code 3")
	cmd.Flags().StringVar(&a.ProgramCode, "program-code", "", "Program code")
}

// stringFlag returns a pointer to the flag value when it was given.
func stringFlag(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

func floatFlag(cmd *cobra.Command, name string, value float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}
