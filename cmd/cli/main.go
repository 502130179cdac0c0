package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/app"
	"github.com/brankas/brankas/internal/config"
	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/ledger"
	"github.com/brankas/brankas/internal/logger"
	"github.com/brankas/brankas/internal/service"
	"github.com/brankas/brankas/internal/store"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "accounts":
		withLedger(log, runAccounts)
	case "transfer":
		withLedger(log, runTransfer)
	case "transactions":
		withLedger(log, runTransactions)
	case "summary":
		withLedger(log, runSummary)
	case "upload-receipt":
		withLedger(log, runUploadReceipt)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Brankas CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  accounts        List accounts and balances")
	fmt.Println("  transfer        Move money between two accounts")
	fmt.Println("  transactions    List transactions")
	fmt.Println("  summary         Show income and expense for a period")
	fmt.Println("  upload-receipt  Upload a receipt image and scan it")
	fmt.Println("  help            Show this help message")
	fmt.Println("\nThe store is chosen by STORE_BACKEND, as for the API server.")
	fmt.Println("Run 'cli <command> -h' for more information on a command.")
}

// env is what a command runs against.
type env struct {
	cfg    config.Config
	store  store.Store
	ledger *service.Ledger
	log    zerolog.Logger
	out    io.Writer
}

func withLedger(log zerolog.Logger, run func(ctx context.Context, e *env, args []string) error) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log = log.Level(logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	l, closeCache, err := app.NewLedger(cfg, st, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger service")
	}
	defer closeCache()

	if err := run(ctx, &env{cfg: cfg, store: st, ledger: l, log: log, out: os.Stdout}, os.Args[2:]); err != nil {
		log.Fatal().Err(err).Msg(os.Args[1] + " failed")
	}
}

func runAccounts(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("accounts", flag.ExitOnError)
	fs.Parse(args)

	d, err := e.ledger.Dashboard(ctx)
	if err != nil {
		return err
	}
	printDashboard(e.out, d)
	return nil
}

func runTransfer(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	from := fs.String("from", "", "source account ID")
	to := fs.String("to", "", "destination account ID")
	amount := fs.String("amount", "", "amount to move")
	description := fs.String("description", "", "description")
	date := fs.String("date", "", "booking date YYYY-MM-DD (defaults to today)")
	ref := fs.String("ref", "", "client reference; a repeated reference is refused")
	fs.Parse(args)

	if *from == "" || *to == "" || *amount == "" {
		return fmt.Errorf("usage: cli transfer -from ID -to ID -amount N")
	}
	amt, err := domain.ParseAmount(*amount)
	if err != nil {
		printTransferResult(e.out, ledger.Failed(&ledger.TransferError{Kind: ledger.InvalidAmount, Message: err.Error()}))
		return nil
	}

	req := domain.TransferRequest{
		FromAccountID: *from,
		ToAccountID:   *to,
		Amount:        amt,
		Description:   *description,
		ClientRef:     *ref,
	}
	if *date != "" {
		d, err := civil.ParseDate(*date)
		if err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}
		req.Date = &d
	}

	result, err := e.ledger.Transfer(ctx, req)
	if err != nil {
		return err
	}
	printTransferResult(e.out, result)
	return nil
}

func runTransactions(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("transactions", flag.ExitOnError)
	account := fs.String("account", "", "only this account")
	search := fs.String("search", "", "description contains")
	limit := fs.Int("limit", 20, "maximum rows")
	fs.Parse(args)

	page, total, err := e.ledger.ListTransactions(ctx, ledger.Filter{
		AccountID: *account,
		Search:    *search,
		Desc:      true,
		Limit:     *limit,
	})
	if err != nil {
		return err
	}
	printTransactions(e.out, page, total)
	return nil
}

func runSummary(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	period := fs.String("period", "monthly", "daily, weekly, monthly, yearly or payroll")
	fs.Parse(args)

	s, err := e.ledger.PeriodSummary(ctx, *period)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "\n=== %s summary from %s ===\n", s.Period, s.Start)
	fmt.Fprintf(e.out, "Income:  %s (%s%% vs previous)\n", s.Income.StringFixed(2), s.IncomeChange.StringFixed(1))
	fmt.Fprintf(e.out, "Expense: %s (%s%% vs previous)\n", s.Expense.StringFixed(2), s.ExpenseChange.StringFixed(1))
	fmt.Fprintf(e.out, "Net:     %s\n\n", s.Net.StringFixed(2))
	return nil
}

func runUploadReceipt(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("upload-receipt", flag.ExitOnError)
	filePath := fs.String("file", "", "path to the receipt image or PDF")
	txnID := fs.String("transaction", "", "transaction ID to attach the receipt to")
	fs.Parse(args)

	if *filePath == "" {
		return fmt.Errorf("usage: cli upload-receipt -file PATH [-transaction ID]")
	}

	rcpt, err := app.NewReceipts(ctx, e.cfg, e.store, e.ledger, e.log)
	if err != nil {
		return err
	}
	if rcpt == nil {
		return fmt.Errorf("RECEIPTS_BUCKET and GCP_PROJECT_ID are required")
	}
	defer rcpt.Close()

	f, err := os.Open(*filePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", *filePath, err)
	}
	defer f.Close()

	name := filepath.Base(*filePath)
	rc, err := rcpt.Processor.Register(ctx, *txnID, name, mime.TypeByExtension(filepath.Ext(name)), f)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Uploaded %s to %s\n", *filePath, rc.GCSURI)

	rc, err = rcpt.Processor.Scan(ctx, rc.ID)
	if err != nil {
		return err
	}
	printReceipt(e.out, rc)
	return nil
}

func printDashboard(w io.Writer, d service.Dashboard) {
	fmt.Fprintf(w, "\n=== Accounts (%d) ===\n", len(d.Accounts))
	for _, a := range d.Accounts {
		savings := ""
		if a.IsSavings {
			savings = " [savings]"
		}
		fmt.Fprintf(w, "%-12s %-20s %-8s %15s%s\n", a.ID, a.Name, a.Kind, a.Balance.StringFixed(2), savings)
	}
	fmt.Fprintf(w, "\nTotal:   %s\n", d.Totals.Total.StringFixed(2))
	fmt.Fprintf(w, "Savings: %s\n", d.Totals.Savings.StringFixed(2))
	fmt.Fprintf(w, "Daily:   %s\n\n", d.Totals.Daily.StringFixed(2))
}

func printTransferResult(w io.Writer, r ledger.TransferResult) {
	if !r.Success {
		fmt.Fprintf(w, "Transfer refused (%s): %s\n", r.Kind, r.Message)
		return
	}
	debit, credit := r.Transactions[0], r.Transactions[1]
	fmt.Fprintf(w, "Transferred %s from %s to %s on %s\n",
		credit.Amount.StringFixed(2), debit.AccountID, credit.AccountID, credit.Date)
	for _, a := range r.UpdatedAccounts {
		if a.ID == debit.AccountID || a.ID == credit.AccountID {
			fmt.Fprintf(w, "  %-20s %15s\n", a.Name, a.Balance.StringFixed(2))
		}
	}
}

func printTransactions(w io.Writer, txns []domain.Transaction, total int) {
	fmt.Fprintf(w, "\n=== Transactions (%d of %d) ===\n", len(txns), total)
	for i, t := range txns {
		mark := ""
		if t.Struck {
			mark = " (struck)"
		}
		fmt.Fprintf(w, "\n%d. %s%s\n", i+1, t.Description, mark)
		fmt.Fprintf(w, "   Date:     %s\n", t.Date)
		fmt.Fprintf(w, "   Amount:   %s\n", t.Amount.StringFixed(2))
		fmt.Fprintf(w, "   Category: %s\n", t.Category)
		fmt.Fprintf(w, "   Account:  %s\n", t.AccountID)
	}
	fmt.Fprintln(w)
}

func printReceipt(w io.Writer, rc domain.Receipt) {
	fmt.Fprintln(w, "\n=== Receipt ===")
	fmt.Fprintf(w, "ID:       %s\n", rc.ID)
	fmt.Fprintf(w, "Status:   %s\n", rc.Status)
	fmt.Fprintf(w, "Merchant: %s\n", rc.Merchant)
	if rc.Total != nil {
		fmt.Fprintf(w, "Total:    %s %s\n", rc.Total.StringFixed(2), rc.Currency)
	}
	if rc.PurchaseDate != nil {
		fmt.Fprintf(w, "Date:     %s\n", rc.PurchaseDate)
	}
	fmt.Fprintln(w)
}
