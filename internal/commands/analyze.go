package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/conciliar-dev/conciliar/internal/config"
	"github.com/conciliar-dev/conciliar/internal/engine"
	"github.com/conciliar-dev/conciliar/internal/invoice"
	"github.com/conciliar-dev/conciliar/internal/ledger"
	"github.com/conciliar-dev/conciliar/internal/report"
)

const flagDateFormat = "2006-01-02"

// sessionFlags are the options shared by analyze and export.
type sessionFlags struct {
	configPath    string
	from, to      string
	accounts      []string
	tolerance     string
	strictTotals  bool
	strictAmounts bool
}

func (sf *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sf.configPath, "config", "", "path to conciliar.yaml (optional)")
	cmd.Flags().StringVar(&sf.from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&sf.to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&sf.accounts, "account", nil, "restrict to account code (repeatable)")
	cmd.Flags().StringVar(&sf.tolerance, "tolerance", "", "reconciliation tolerance (overrides config)")
	cmd.Flags().BoolVar(&sf.strictTotals, "strict-totals", false, "fail on duplicate global total rows")
	cmd.Flags().BoolVar(&sf.strictAmounts, "strict-amounts", false, "fail on unreadable amount cells")
}

func (sf *sessionFlags) session(path string) (*engine.Session, *config.Config, error) {
	cfg := config.Default()
	if sf.configPath != "" {
		loaded, err := config.Load(sf.configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	tolerance := cfg.ToleranceDecimal()
	if sf.tolerance != "" {
		d, err := decimal.NewFromString(sf.tolerance)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing tolerance %q: %w", sf.tolerance, err)
		}
		tolerance = d
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading export: %w", err)
	}

	sess, err := engine.NewSession(data, engine.Options{
		Parse: ledger.Options{
			StrictTotals:  cfg.Strict.Totals || sf.strictTotals,
			StrictAmounts: cfg.Strict.Amounts || sf.strictAmounts,
		},
		Tolerance: &tolerance,
	})
	if err != nil {
		return nil, nil, err
	}
	return sess, cfg, nil
}

func (sf *sessionFlags) filter() (invoice.Filter, error) {
	var f invoice.Filter
	if sf.from != "" {
		t, err := time.Parse(flagDateFormat, sf.from)
		if err != nil {
			return f, fmt.Errorf("parsing --from %q: %w", sf.from, err)
		}
		f.From = t
	}
	if sf.to != "" {
		t, err := time.Parse(flagDateFormat, sf.to)
		if err != nil {
			return f, fmt.Errorf("parsing --to %q: %w", sf.to, err)
		}
		f.To = t
	}
	f.Accounts = sf.accounts
	return f, nil
}

func newAnalyzeCommand() *cobra.Command {
	var sf sessionFlags

	cmd := &cobra.Command{
		Use:   "analyze <export-file>",
		Short: "Reconcile an export and print the account classification table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := sf.session(args[0])
			if err != nil {
				return err
			}
			f, err := sf.filter()
			if err != nil {
				return err
			}
			return runAnalyze(cmd, sess, f)
		},
	}

	sf.register(cmd)
	return cmd
}

func runAnalyze(cmd *cobra.Command, sess *engine.Session, f invoice.Filter) error {
	res := sess.Results(f)
	out := cmd.OutOrStdout()

	printTable(out, report.Summary(res.Summary))
	fmt.Fprintln(out)
	printTable(out, report.Reconciliation(res.Reconciliation))

	if len(res.CrossAccount) > 0 {
		fmt.Fprintln(out)
		printTable(out, report.CrossAccount(res.CrossAccount))
	}

	audit := sess.Audit()
	if len(audit.UnparsedAmounts) > 0 || audit.OrphanMovements > 0 || audit.ExtraGlobalRows > 0 {
		fmt.Fprintln(out)
		printTable(out, report.ParseAudit(audit))
	}
	return nil
}

func printTable(out io.Writer, t report.Table) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "[%s]\n", t.Name)
	printRow(tw, t.Header)
	for _, row := range t.Rows {
		printRow(tw, row)
	}
	tw.Flush()
}

func printRow(tw *tabwriter.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
}
