package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetbook/internal/core"
	apphttp "budgetbook/internal/http"
	"budgetbook/internal/ledger"
	"budgetbook/internal/log"
)

// txFlags are the four user-supplied transaction fields.
type txFlags struct {
	date, description, amount, typ string
}

func (f *txFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.date, "date", "", "date as d/m/yyyy")
	fs.StringVar(&f.description, "desc", "", "description")
	fs.StringVar(&f.amount, "amount", "", "amount, '.' or ',' as decimal separator")
	fs.StringVar(&f.typ, "type", string(core.Expense), "Income or Expense")
}

func (f *txFlags) parse() (float64, core.TransactionType, error) {
	amount, err := core.ParseAmount(f.amount)
	if err != nil {
		return 0, "", err
	}
	typ, err := core.ParseTransactionType(f.typ)
	if err != nil {
		return 0, "", err
	}
	return amount, typ, nil
}

// reportMutation prints the outcome of a mutator. A persistence error is
// printed as a warning; the change itself was applied.
func (a *app) reportMutation(verb string, err error) error {
	if errors.Is(err, ledger.ErrPersistence) {
		fmt.Fprintf(a.out, "%s (warning: %v)\n", verb, err)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s; %d transactions\n", verb, a.svc.Len())
	return nil
}

func runAdd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	var f txFlags
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	amount, typ, err := f.parse()
	if err != nil {
		return err
	}
	return a.reportMutation("added", a.svc.AddTransaction(ctx, f.date, f.description, amount, typ))
}

func runUpdate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	var f txFlags
	f.register(fs)
	index := fs.Int("index", -1, "position in the list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	amount, typ, err := f.parse()
	if err != nil {
		return err
	}
	return a.reportMutation("updated", a.svc.UpdateTransaction(ctx, *index, f.date, f.description, amount, typ))
}

func runRemove(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	var f txFlags
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	amount, typ, err := f.parse()
	if err != nil {
		return err
	}
	removed, err := a.svc.RemoveTransaction(ctx, f.date, f.description, amount, typ)
	if err == nil && !removed {
		fmt.Fprintln(a.out, "no matching transaction")
		return nil
	}
	return a.reportMutation("removed", err)
}

func runList(_ context.Context, a *app, _ []string) error {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tDATE\tDESCRIPTION\tAMOUNT\tTYPE\tCATEGORY")
	for i, tx := range a.svc.GetAllTransactions() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", i, tx.Date, tx.Description, tx.FormattedAmount(), tx.Type, tx.Category)
	}
	return w.Flush()
}

func runWeekly(_ context.Context, a *app, _ []string) error {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WEEK\tSPENT")
	for _, wk := range core.SortedWeeks(a.svc.GetWeeklySpending()) {
		fmt.Fprintf(w, "%s\t%s\n", wk.Week, core.FormatAmount(wk.Amount))
	}
	return w.Flush()
}

func runCategories(_ context.Context, a *app, _ []string) error {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tSPENT")
	for _, c := range core.SortedCategories(a.svc.GetExpenseCategories()) {
		fmt.Fprintf(w, "%s\t%s\n", c.Name, core.FormatAmount(c.Amount))
	}
	return w.Flush()
}

func runSummary(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	prompt := fs.Bool("prompt", false, "print the report prompt text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s := a.svc.Summary()
	if *prompt {
		fmt.Fprint(a.out, ledger.ReportPrompt(s))
		return nil
	}
	fmt.Fprintf(a.out, "transactions: %d\nincome: %s\nexpenses: %s\nbalance: %s\n",
		s.Count, core.FormatAmount(s.TotalIncome), core.FormatAmount(s.TotalExpense), core.FormatAmount(s.Balance))
	return nil
}

func credentialFlags(name string, args []string) (string, string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	user := fs.String("user", "", "username")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	if *user == "" || *password == "" {
		return "", "", errors.New("-user and -password are required")
	}
	return *user, *password, nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	user, password, err := credentialFlags("register", args)
	if err != nil {
		return err
	}
	if err := a.creds.Register(ctx, user, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s\n", user)
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	user, password, err := credentialFlags("login", args)
	if err != nil {
		return err
	}
	ok, err := a.creds.Authenticate(ctx, user, password)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("invalid username or password")
	}
	fmt.Fprintf(a.out, "welcome, %s\n", user)
	return nil
}

// runServe runs the HTTP server until ctx is cancelled, then shuts it down
// within a bounded grace period.
func runServe(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fs.String("port", a.cfg.Port, "listen port")
	rateLimit := fs.Int("rate-limit", 60, "mutating requests per minute per client")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srv := apphttp.NewServer(net.JoinHostPort("", *port), apphttp.Deps{
		Ledger:    a.svc,
		Auth:      a.creds,
		Metrics:   a.metrics,
		Logger:    a.logger,
		RateLimit: *rateLimit,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Starting ledger server", "port", *port, log.FieldBackend, a.cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		a.logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
		return nil
	})
	return g.Wait()
}
