package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"myinvestments-backend/internal/application/backup"
	"myinvestments-backend/internal/application/portfolio"
	"myinvestments-backend/internal/config"
	"myinvestments-backend/internal/infrastructure/database"
	"myinvestments-backend/internal/pkg/userlock"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var commands = []subcommands.Command{
	&migrateCmd{},
	&summaryCmd{},
	&exportCmd{},
	&importCmd{},
}

// openDB is replaced in tests.
var openDB = func() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.ApplyLogLevel()
	return database.Open(cfg.DatabaseURL)
}

var stdout io.Writer = os.Stdout

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type migrateCmd struct{}

func (*migrateCmd) Name() string { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or update the ledger tables" }
func (*migrateCmd) Usage() string { return "ledgerctl migrate\n" }
func (*migrateCmd) SetFlags(_ *flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, err := openDB()
	if err != nil {
		return fail(err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return fail(err)
	}
	fmt.Fprintln(stdout, "migrated:", len(database.Models()), "tables")
	return subcommands.ExitSuccess
}

// userFlag is shared by the per-user commands.
type userFlag struct {
	user string
}

func (u *userFlag) register(f *flag.FlagSet) {
	f.StringVar(&u.user, "user", "", "id of the user whose ledger is read")
}

func (u *userFlag) parse() (uuid.UUID, error) {
	id, err := uuid.Parse(u.user)
	if err != nil {
		return uuid.Nil, fmt.Errorf("-user must be a user id: %w", err)
	}
	return id, nil
}

type summaryCmd struct {
	userFlag
	divestments bool
	dividends   bool
}

func (*summaryCmd) Name() string { return "summary" }
func (*summaryCmd) Synopsis() string { return "print a user's portfolio summary as JSON" }
func (*summaryCmd) Usage() string {
	return `ledgerctl summary -user <id> [-divestments] [-dividends]

  Prints the portfolio summary. With -divestments or -dividends the
  corresponding statistics are printed instead.
`
}

func (p *summaryCmd) SetFlags(f *flag.FlagSet) {
	p.register(f)
	f.BoolVar(&p.divestments, "divestments", false, "print divestment statistics")
	f.BoolVar(&p.dividends, "dividends", false, "print dividend statistics")
}

func (p *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	userID, err := p.parse()
	if err != nil {
		return fail(err)
	}
	db, err := openDB()
	if err != nil {
		return fail(err)
	}
	svc := portfolio.NewService(db, userlock.New())

	var out interface{}
	switch {
	case p.divestments:
		out, err = svc.DivestmentStats(ctx, userID)
	case p.dividends:
		out, err = svc.DividendStats(ctx, userID)
	default:
		out, err = svc.Summary(ctx, userID)
	}
	if err != nil {
		return fail(err)
	}
	if err := writeJSON(out); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	userFlag
}

func (*exportCmd) Name() string { return "export" }
func (*exportCmd) Synopsis() string { return "write a user's backup document to stdout" }
func (*exportCmd) Usage() string { return "ledgerctl export -user <id> > backup.json\n" }

func (p *exportCmd) SetFlags(f *flag.FlagSet) { p.register(f) }

func (p *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	userID, err := p.parse()
	if err != nil {
		return fail(err)
	}
	db, err := openDB()
	if err != nil {
		return fail(err)
	}
	doc, err := backup.NewService(db, userlock.New()).Export(ctx, userID)
	if err != nil {
		return fail(err)
	}
	if err := writeJSON(doc); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	userFlag
	file string
}

func (*importCmd) Name() string { return "import" }
func (*importCmd) Synopsis() string { return "replace a user's ledger with a backup document" }
func (*importCmd) Usage() string { return "ledgerctl import -user <id> -f backup.json\n" }

func (p *importCmd) SetFlags(f *flag.FlagSet) {
	p.register(f)
	f.StringVar(&p.file, "f", "", "backup file to read")
}

func (p *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	userID, err := p.parse()
	if err != nil {
		return fail(err)
	}
	raw, err := os.ReadFile(p.file)
	if err != nil {
		return fail(err)
	}
	var doc backup.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fail(fmt.Errorf("%s: %w", p.file, err))
	}
	db, err := openDB()
	if err != nil {
		return fail(err)
	}
	res, err := backup.NewService(db, userlock.New()).Import(ctx, userID, &doc)
	if err != nil {
		return fail(err)
	}
	if err := writeJSON(res); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
