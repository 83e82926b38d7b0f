package cli

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jask/jaskrecon/internal/config"
	"github.com/jask/jaskrecon/internal/database"
	"github.com/jask/jaskrecon/internal/database/repository"
	"github.com/jask/jaskrecon/internal/logging"
	"github.com/jask/jaskrecon/internal/reconcile"
	"github.com/jask/jaskrecon/internal/rules"
	"github.com/jask/jaskrecon/internal/service"
)

// env is what a command needs once flags are parsed: config, logger and the
// migrated rule store.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	db     *sql.DB
	store  *rules.Store
	out    *OutputFormatter
}

func openEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	var (
		cfg config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.LoadFile(opts.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "config", err)
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "logger", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, WrapExitError(ExitFailure, "mkdir db dir", err)
	}
	db, err := database.OpenMigrated(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "open store", err)
	}
	logger.Debug("store opened", zap.String("path", cfg.Database.Path))

	return &env{
		cfg:    cfg,
		logger: logger,
		db:     db,
		store:  rules.NewStore(repository.NewKVRepo(db), logger),
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

func (e *env) Close() {
	_ = e.logger.Sync()
	_ = e.db.Close()
}

func (e *env) engine() *reconcile.Engine {
	return reconcile.NewEngine(e.cfg.Matching.Engine(), e.logger)
}

// loadPools reads both input files. A bank file ending in .txt is pasted
// statement text rather than CSV. Per-line problems are reported and skipped.
func (e *env) loadPools(bankPath, budgetPath string) ([]reconcile.BankEntry, []reconcile.BudgetEntry, error) {
	ingest := &service.IngestService{Logger: e.logger}

	bf, err := os.Open(bankPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "open bank file", err)
	}
	defer bf.Close()
	var (
		bank []reconcile.BankEntry
		res  service.IngestResult
	)
	if strings.EqualFold(filepath.Ext(bankPath), ".txt") {
		bank, res, err = ingest.LoadStatementText(bf, time.Now())
	} else {
		bank, res, err = ingest.LoadBankCSV(bf)
	}
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "read bank file", err)
	}
	e.reportIngest(bankPath, res)

	gf, err := os.Open(budgetPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "open budget file", err)
	}
	defer gf.Close()
	budget, res, err := ingest.LoadBudgetCSV(gf)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "read budget file", err)
	}
	e.reportIngest(budgetPath, res)

	return bank, budget, nil
}

func (e *env) reportIngest(path string, res service.IngestResult) {
	for _, err := range res.Errors {
		e.logger.Warn("skipped line", zap.String("file", path), zap.Error(err))
	}
	e.out.VerboseLog("%s: %d imported, %d skipped, %d errors", filepath.Base(path), res.Imported, res.Skipped, len(res.Errors))
}

// withEnv opens the environment around fn.
func withEnv(opts *RootOptions, cmd *cobra.Command, fn func(e *env) error) error {
	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e)
}

func requireFlag(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewExitError(ExitCommandError, fmt.Sprintf("--%s is required", name))
	}
	return nil
}
