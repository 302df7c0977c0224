package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conciliar-dev/conciliar/internal/engine"
	"github.com/conciliar-dev/conciliar/internal/invoice"
	"github.com/conciliar-dev/conciliar/internal/report"
)

func newExportCommand() *cobra.Command {
	var sf sessionFlags
	var outDir string
	var format string
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:   "export <export-file>",
		Short: "Write all result tables to CSV files or an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cfg, err := sf.session(args[0])
			if err != nil {
				return err
			}
			f, err := sf.filter()
			if err != nil {
				return err
			}
			// Flags win over config for output placement.
			if !cmd.Flags().Changed("out") {
				outDir = cfg.Export.Dir
			}
			if !cmd.Flags().Changed("format") {
				format = cfg.Export.Format
			}
			return runExport(cmd, sess, f, outDir, format, pendingOnly)
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "out", "output directory")
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or xlsx")
	cmd.Flags().BoolVar(&pendingOnly, "pending-only", false, "limit invoice tables to open invoices")

	return cmd
}

func runExport(cmd *cobra.Command, sess *engine.Session, f invoice.Filter, outDir, format string, pendingOnly bool) error {
	res := sess.Results(f)

	globalInvs := res.GlobalInvoices
	accountInvs := res.AccountInvoices
	if pendingOnly {
		globalInvs = invoice.Pending(globalInvs)
		accountInvs = invoice.PendingPerAccount(accountInvs)
	}

	tables := []report.Table{
		report.Summary(res.Summary),
		report.Reconciliation(res.Reconciliation),
		report.GlobalInvoices(globalInvs),
		report.AccountInvoices(accountInvs),
		report.PendingByAccount(invoice.PendingByAccount(res.GlobalInvoices)),
		report.CrossAccount(res.CrossAccount),
		report.ParseAudit(sess.Audit()),
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	switch format {
	case "csv":
		for _, t := range tables {
			if err := writeCSVFile(outDir, t); err != nil {
				return err
			}
		}
	case "xlsx":
		path := filepath.Join(outDir, "conciliar.xlsx")
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		if err := report.WriteXLSX(f, tables); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (want csv or xlsx)", format)
	}

	cmd.Printf("wrote %d tables to %s\n", len(tables), outDir)
	return nil
}

func writeCSVFile(dir string, t report.Table) error {
	path := filepath.Join(dir, t.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := report.WriteCSV(f, t); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
