package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"finledger/internal/app"
	"finledger/internal/core"
	applog "finledger/internal/log"
	"finledger/internal/trace"
)

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage error")

// PasswordEnv is read when -password is not given.
const PasswordEnv = "LEDGER_PASSWORD"

const usage = `usage: finledger <command> [flags]

commands:
  register  -user U -password P
  add       -user U -password P -kind income|expense -amount N -category C [-date YYYY-MM-DD]
  update    -user U -password P -id N -amount N -category C
  delete    -user U -password P -id N
  list      -user U -password P [-from YYYY-MM-DD] [-to YYYY-MM-DD]
  report    -user U -password P [-type monthly|yearly] [-categories]
  budget    set|update|delete|get|list|status -user U -password P [-category C] [-amount N] [-type monthly|yearly]
  backup    [-to PATH]
  restore   [-from PATH]
`

// Runner executes one subcommand against an initialized app.
type Runner struct {
	App    *app.App
	Out    io.Writer
	Err    io.Writer
	Getenv func(string) string
	Now    func() time.Time
	Logger *applog.Logger
}

func NewRunner(a *app.App, logger *applog.Logger) *Runner {
	return &Runner{App: a, Out: os.Stdout, Err: os.Stderr, Getenv: os.Getenv, Now: time.Now, Logger: logger}
}

// Run dispatches args[0] to its subcommand.
func (r *Runner) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(r.Err, usage)
		return fmt.Errorf("%w: missing command", ErrUsage)
	}

	logger := r.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentCLI)
	}
	ctx, finish := trace.Start(ctx, logger, args[0])
	err := r.dispatch(ctx, args[0], args[1:])
	finish(err)
	return err
}

func (r *Runner) dispatch(ctx context.Context, cmd string, rest []string) error {
	switch cmd {
	case "register":
		return r.register(ctx, rest)
	case "add":
		return r.add(ctx, rest)
	case "update":
		return r.update(ctx, rest)
	case "delete":
		return r.delete(ctx, rest)
	case "list":
		return r.list(ctx, rest)
	case "report":
		return r.report(ctx, rest)
	case "budget":
		return r.budget(ctx, rest)
	case "backup":
		return r.backup(ctx, rest)
	case "restore":
		return r.restore(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(r.Out, usage)
		return nil
	default:
		fmt.Fprint(r.Err, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

type credentials struct {
	user     string
	password string
}

func (r *Runner) flags(name string, creds *credentials) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(r.Err)
	if creds != nil {
		fs.StringVar(&creds.user, "user", "", "username")
		fs.StringVar(&creds.password, "password", "", "password (default $"+PasswordEnv+")")
	}
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected arguments %v", ErrUsage, fs.Name(), fs.Args())
	}
	return nil
}

func (r *Runner) password(c credentials) string {
	if c.password == "" && r.Getenv != nil {
		return r.Getenv(PasswordEnv)
	}
	return c.password
}

func (r *Runner) login(ctx context.Context, c credentials) (core.Session, error) {
	return r.App.Credentials.Authenticate(ctx, c.user, r.password(c))
}

func (r *Runner) register(ctx context.Context, args []string) error {
	var c credentials
	fs := r.flags("register", &c)
	if err := parse(fs, args); err != nil {
		return err
	}

	if err := r.App.Credentials.Register(ctx, c.user, r.password(c)); err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "registered %s\n", strings.TrimSpace(c.user))
	return nil
}

func (r *Runner) add(ctx context.Context, args []string) error {
	var c credentials
	fs := r.flags("add", &c)
	kind := fs.String("kind", "", "income or expense")
	amount := fs.String("amount", "", "non-negative amount")
	category := fs.String("category", "", "category name")
	date := fs.String("date", "", "YYYY-MM-DD, default today")
	if err := parse(fs, args); err != nil {
		return err
	}

	session, err := r.login(ctx, c)
	if err != nil {
		return err
	}
	id, err := r.App.Ledger.AddTransaction(ctx, session.Username(), *kind, *amount, *category, *date)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "added transaction %d\n", id)
	return nil
}

func (r *Runner) update(ctx context.Context, args []string) error {
	var c credentials
	fs := r.flags("update", &c)
	id := fs.Int64("id", 0, "transaction id")
	amount := fs.String("amount", "", "new amount")
	category := fs.String("category", "", "new category")
	if err := parse(fs, args); err != nil {
		return err
	}

	session, err := r.login(ctx, c)
	if err != nil {
		return err
	}
	amt, err := core.ParseAmount(*amount)
	if err != nil {
		return err
	}
	if err := r.owned(ctx, session, *id); err != nil {
		return err
	}
	if err := r.App.Ledger.UpdateTransaction(ctx, *id, amt, *category); err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "updated transaction %d\n", *id)
	return nil
}

func (r *Runner) delete(ctx context.Context, args []string) error {
	var c credentials
	fs := r.flags("delete", &c)
	id := fs.Int64("id", 0, "transaction id")
	if err := parse(fs, args); err != nil {
		return err
	}

	session, err := r.login(ctx, c)
	if err != nil {
		return err
	}
	if err := r.owned(ctx, session, *id); err != nil {
		return err
	}
	if err := r.App.Ledger.DeleteTransaction(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "deleted transaction %d\n", *id)
	return nil
}

// owned hides transactions of other users behind the not-found error.
func (r *Runner) owned(ctx context.Context, session core.Session, id int64) error {
	t, err := r.App.Ledger.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if t.Username != session.Username() {
		return core.ErrTransactionNotFound
	}
	return nil
}

func (r *Runner) list(ctx context.Context, args []string) error {
	var c credentials
	fs := r.flags("list", &c)
	from := fs.String("from", "", "first day, default start of this month")
	to := fs.String("to", "", "last day, default end of this month")
	if err := parse(fs, args); err != nil {
		return err
	}

	session, err := r.login(ctx, c)
	if err != nil {
		return err
	}
	p, err := r.period(*from, *to)
	if err != nil {
		return err
	}
	txs, err := r.App.Ledger.ListTransactions(ctx, session.Username(), p)
	if err != nil {
		return err
	}
	for _, t := range txs {
		fmt.Fprintf(r.Out, "%d\t%s\t%s\t%s\t%s\n",
			t.ID, t.OccurredOn, t.Kind, core.FormatAmount(t.Amount), t.Category)
	}
	return nil
}

func (r *Runner) period(from, to string) (core.Period, error) {
	p := core.MonthlyReportRange(r.Now())
	var err error
	if from != "" {
		if p.Start, err = core.ParseDate(from); err != nil {
			return core.Period{}, err
		}
	}
	if to != "" {
		if p.End, err = core.ParseDate(to); err != nil {
			return core.Period{}, err
		}
	}
	return core.NewPeriod(p.Start, p.End)
}

func (r *Runner) report(ctx context.Context, args []string) error {
	var c credentials
	fs := r.flags("report", &c)
	reportType := fs.String("type", core.ReportMonthly, "monthly or yearly")
	categories := fs.Bool("categories", false, "include expense totals per category")
	if err := parse(fs, args); err != nil {
		return err
	}

	session, err := r.login(ctx, c)
	if err != nil {
		return err
	}
	totals, err := r.App.Ledger.Report(ctx, session.Username(), *reportType)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.Out, "period\t%s..%s\n", totals.Period.Start, totals.Period.End)
	fmt.Fprintf(r.Out, "income\t%s\n", core.FormatAmount(totals.Income))
	fmt.Fprintf(r.Out, "expense\t%s\n", core.FormatAmount(totals.Expense))
	fmt.Fprintf(r.Out, "net\t%s\n", core.FormatAmount(totals.Net()))
	if !*categories {
		return nil
	}

	cats, err := r.App.Ledger.CategoryTotals(ctx, session.Username(), totals.Period)
	if err != nil {
		return err
	}
	for _, cat := range cats {
		fmt.Fprintf(r.Out, "  %s\t%s\n", cat.Name, core.FormatAmount(cat.Amount))
	}
	return nil
}

func (r *Runner) budget(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: budget: missing action", ErrUsage)
	}
	action := args[0]

	var c credentials
	fs := r.flags("budget "+action, &c)
	category := fs.String("category", "", "category name")
	amount := fs.String("amount", "", "spending limit")
	reportType := fs.String("type", core.ReportMonthly, "status period: monthly or yearly")
	if err := parse(fs, args[1:]); err != nil {
		return err
	}

	session, err := r.login(ctx, c)
	if err != nil {
		return err
	}
	user := session.Username()

	switch action {
	case "set", "update":
		limit, err := core.ParseAmount(*amount)
		if err != nil {
			return err
		}
		if action == "set" {
			err = r.App.Budgets.SetBudget(ctx, user, *category, limit)
		} else {
			err = r.App.Budgets.UpdateBudget(ctx, user, *category, limit)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(r.Out, "budget %s\t%s\n", strings.TrimSpace(*category), core.FormatAmount(limit))
	case "delete":
		if err := r.App.Budgets.DeleteBudget(ctx, user, *category); err != nil {
			return err
		}
		fmt.Fprintf(r.Out, "deleted budget %s\n", strings.TrimSpace(*category))
	case "get":
		limit, ok, err := r.App.Budgets.GetBudget(ctx, user, *category)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(r.Out, "no budget for %s\n", strings.TrimSpace(*category))
			return nil
		}
		fmt.Fprintf(r.Out, "budget %s\t%s\n", strings.TrimSpace(*category), core.FormatAmount(limit))
	case "list":
		budgets, err := r.App.Budgets.ListBudgets(ctx, user)
		if err != nil {
			return err
		}
		for _, b := range budgets {
			fmt.Fprintf(r.Out, "%s\t%s\n", b.Category, core.FormatAmount(b.Limit))
		}
	case "status":
		p, err := core.ReportRange(*reportType, r.Now())
		if err != nil {
			return err
		}
		st, err := r.App.Budgets.Status(ctx, user, *category, p)
		if err != nil {
			return err
		}
		state := "ok"
		if st.Exceeded() {
			state = "exceeded"
		}
		fmt.Fprintf(r.Out, "%s\tlimit %s\tspent %s\tremaining %s\t%s\n", st.Category,
			core.FormatAmount(st.Limit), core.FormatAmount(st.Spent), core.FormatAmount(st.Remaining()), state)
	default:
		return fmt.Errorf("%w: budget: unknown action %q", ErrUsage, action)
	}
	return nil
}

func (r *Runner) backup(ctx context.Context, args []string) error {
	fs := r.flags("backup", nil)
	to := fs.String("to", "", "snapshot path, default $LEDGER_BACKUP_PATH")
	if err := parse(fs, args); err != nil {
		return err
	}

	path, err := r.App.Backup(ctx, *to)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "backup written to %s\n", path)
	return nil
}

func (r *Runner) restore(ctx context.Context, args []string) error {
	fs := r.flags("restore", nil)
	from := fs.String("from", "", "snapshot path, default $LEDGER_BACKUP_PATH")
	if err := parse(fs, args); err != nil {
		return err
	}

	path, err := r.App.Restore(ctx, *from)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "restored from %s\n", path)
	return nil
}
