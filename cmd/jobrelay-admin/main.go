package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/relayworks/jobrelay/config"
	"github.com/relayworks/jobrelay/internal/bootstrap"
	"github.com/relayworks/jobrelay/internal/core"
	"github.com/relayworks/jobrelay/internal/data"
	"github.com/relayworks/jobrelay/internal/domain/model"
	"github.com/relayworks/jobrelay/internal/service"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

const defaultMigrationTimeout = 5 * time.Minute

const viewCacheKeyPrefix = "jobrelay:view:"

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrations,
		},
		"db-reset": {
			name:        "db-reset",
			description: "Drop the database schema and run migrations",
			run:         runDBReset,
		},
		"list-jobs": {
			name:        "list-jobs",
			description: "List job records with optional status filter",
			run:         runListJobs,
		},
		"inspect-job": {
			name:        "inspect-job",
			description: "Inspect a single job record and its cached view",
			run:         runInspectJob,
		},
		"requeue-pending": {
			name:        "requeue-pending",
			description: "Republish stale pending jobs to the dispatch queue",
			run:         runRequeuePending,
		},
		"purge-jobs": {
			name:        "purge-jobs",
			description: "Delete every job record from the store",
			run:         runPurgeJobs,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: jobrelay-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}
	for _, c := range commands() {
		if err := writef(os.Stdout, "  %-18s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

type migrateOptions struct {
	Timeout time.Duration
}

type dbResetOptions struct {
	Timeout     time.Duration
	Yes         bool
	AllowRemote bool
}

type listJobsOptions struct {
	Status string
	Limit  int
}

type inspectJobOptions struct {
	ID      string
	RawJSON bool
}

type requeueOptions struct {
	MaxAge    time.Duration
	BatchSize int
	DryRun    bool
}

type purgeOptions struct {
	Yes         bool
	DryRun      bool
	AllowRemote bool
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")

	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}

	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func runDBReset(cmdCtx *commandContext, args []string) error {
	opts, err := parseDBResetFlags(args)
	if err != nil {
		return err
	}

	target := fmt.Sprintf(
		"database %q on %s:%d",
		cmdCtx.Config.Postgres.Name,
		cmdCtx.Config.Postgres.Host,
		cmdCtx.Config.Postgres.Port,
	)

	remote, err := guardRemoteHost(cmdCtx, opts.AllowRemote, "drop and recreate the public schema")
	if err != nil {
		return err
	}

	confirmOpts := dbResetConfirmOptions{
		yes:    opts.Yes,
		target: target,
	}
	if remote {
		confirmOpts.remoteHost = cmdCtx.Config.Postgres.Host
	}
	if confirmErr := confirmAction(confirmOpts, "reset database schema"); confirmErr != nil {
		return confirmErr
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("dropping public schema", "database", cmdCtx.Config.Postgres.Name)
		if resetErr := cmdCtx.resetDatabase(ctx, db); resetErr != nil {
			return resetErr
		}

		cmdCtx.Logger.Info("re-running database migrations")
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return fmt.Errorf("run migrations: %w", migrateErr)
		}

		cmdCtx.Logger.Info("database reset completed successfully")
		return nil
	})
}

func runListJobs(cmdCtx *commandContext, args []string) error {
	opts, err := parseListJobsFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, 2*time.Minute, func(ctx context.Context, db *sql.DB) error {
		repo := data.NewJobRepo(db, data.RepoConfig{Logger: cmdCtx.Logger})

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		if headerErr := writeln(w, "Request ID\tStatus\tVendor\tType\tCreated\tUpdated"); headerErr != nil {
			return fmt.Errorf("write list header: %w", headerErr)
		}

		shown := 0
		listErr := repo.ListAll(ctx, func(job *model.Job) error {
			if opts.Status != "" && string(job.Status) != opts.Status {
				return nil
			}
			if opts.Limit > 0 && shown >= opts.Limit {
				return nil
			}
			shown++
			return writef(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				job.ID,
				job.Status,
				job.Vendor,
				job.VendorType,
				job.CreatedAt.Format(time.RFC3339),
				job.UpdatedAt.Format(time.RFC3339),
			)
		})
		if listErr != nil {
			return fmt.Errorf("list jobs: %w", listErr)
		}
		if flushErr := w.Flush(); flushErr != nil {
			return fmt.Errorf("flush job list: %w", flushErr)
		}

		if shown == 0 {
			return writeln(os.Stdout, "(no matching jobs)")
		}
		return writef(os.Stdout, "\nTotal shown: %d\n", shown)
	})
}

func runInspectJob(cmdCtx *commandContext, args []string) error {
	opts, err := parseInspectJobFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, time.Minute)
	defer cancel()

	db, redisClient, err := connectInfra(cmdCtx.Logger, &cmdCtx.Config)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeInfra(db, redisClient); cerr != nil {
			cmdCtx.Logger.Warn("close infra failed", "error", cerr)
		}
	}()

	repo := data.NewJobRepo(db, data.RepoConfig{Logger: cmdCtx.Logger})
	job, err := repo.GetByID(ctx, opts.ID)
	if err != nil {
		if errors.Is(err, data.ErrJobNotFound) {
			return writef(os.Stdout, "No job found for request id %s\n", opts.ID)
		}
		return fmt.Errorf("get job: %w", err)
	}

	if opts.RawJSON {
		return printRawJob(job)
	}

	return printJobDetails(ctx, jobDetailRequest{
		Job:   job,
		Redis: redisClient,
	})
}

func printRawJob(job *model.Job) error {
	raw, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return writef(os.Stdout, "%s\n", raw)
}

type jobDetailRequest struct {
	Job   *model.Job
	Redis redis.UniversalClient
}

func printJobDetails(ctx context.Context, req jobDetailRequest) error {
	job := req.Job
	view := service.ViewOf(job)

	if err := writef(os.Stdout, "\nJob Record\n"); err != nil {
		return fmt.Errorf("write detail title: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writef(w, "Request ID\t%s\n", job.ID); err != nil {
		return fmt.Errorf("write detail id: %w", err)
	}
	if err := writef(w, "Internal Status\t%s\n", job.Status); err != nil {
		return fmt.Errorf("write detail status: %w", err)
	}
	if err := writef(w, "External Status\t%s\n", view.Status); err != nil {
		return fmt.Errorf("write detail view status: %w", err)
	}
	if err := writef(w, "Vendor\t%s (%s)\n", job.Vendor, job.VendorType); err != nil {
		return fmt.Errorf("write detail vendor: %w", err)
	}
	if err := writef(w, "Created\t%s\n", job.CreatedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write detail created: %w", err)
	}
	if err := writef(w, "Updated\t%s\n", job.UpdatedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write detail updated: %w", err)
	}
	if job.CompletedAt != nil {
		if err := writef(w, "Completed\t%s\n", job.CompletedAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("write detail completed: %w", err)
		}
	}
	if len(job.Result) > 0 {
		if err := writef(w, "Result\t%s\n", job.Result); err != nil {
			return fmt.Errorf("write detail result: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush job detail: %w", err)
	}

	return printCachedView(ctx, req)
}

func printCachedView(ctx context.Context, req jobDetailRequest) error {
	if req.Redis == nil {
		return nil
	}

	cacheKey := viewCacheKeyPrefix + req.Job.ID
	cached, err := req.Redis.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return writef(os.Stdout, "\nCached view: (none) [%s]\n", cacheKey)
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", cacheKey, err)
	}

	ttl, ttlErr := req.Redis.TTL(ctx, cacheKey).Result()
	if ttlErr != nil {
		return writef(os.Stdout, "\nCached view: %s [%s, TTL unavailable]\n", cached, cacheKey)
	}
	return writef(os.Stdout, "\nCached view: %s [%s, TTL %s]\n", cached, cacheKey, renderTTL(ttl))
}

func renderTTL(d time.Duration) string {
	switch {
	case d == -1*time.Second:
		return "no expiry"
	case d == -2*time.Second:
		return "key missing"
	default:
		return d.String()
	}
}

func runRequeuePending(cmdCtx *commandContext, args []string) error {
	opts, err := parseRequeueFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, 2*time.Minute, func(ctx context.Context, db *sql.DB) error {
		repo := data.NewJobRepo(db, data.RepoConfig{Logger: cmdCtx.Logger})

		stale, listErr := repo.ListStalePending(ctx, core.StalePendingParams{
			MaxAge:    opts.MaxAge,
			BatchSize: opts.BatchSize,
		})
		if listErr != nil {
			return fmt.Errorf("list stale pending: %w", listErr)
		}
		if len(stale) == 0 {
			return writeln(os.Stdout, "No stale pending jobs found")
		}

		if opts.DryRun {
			for _, job := range stale {
				if printErr := writef(os.Stdout, "  would requeue %s (age %s)\n",
					job.ID, time.Since(job.CreatedAt).Round(time.Second)); printErr != nil {
					return fmt.Errorf("print dry-run entry: %w", printErr)
				}
			}
			return writef(os.Stdout, "Dry-run: would requeue %d jobs\n", len(stale))
		}

		queueConn, queueErr := bootstrap.ConnectQueue(cmdCtx.Config.Queue, cmdCtx.Logger)
		if queueErr != nil {
			return fmt.Errorf("connect queue: %w", queueErr)
		}
		defer func() {
			if cerr := queueConn.Close(); cerr != nil {
				cmdCtx.Logger.Warn("queue close failed", "error", cerr)
			}
		}()

		requeued := 0
		var publishErrs error
		for _, job := range stale {
			if pubErr := queueConn.Publisher.Publish(ctx, model.NewQueueMessage(job)); pubErr != nil {
				publishErrs = errors.Join(publishErrs, fmt.Errorf("publish %s: %w", job.ID, pubErr))
				continue
			}
			requeued++
		}

		cmdCtx.Logger.Info("requeue complete", "requeued", requeued, "stale", len(stale))
		if printErr := writef(os.Stdout, "Requeued %d/%d stale pending jobs\n", requeued, len(stale)); printErr != nil {
			return fmt.Errorf("print requeue summary: %w", printErr)
		}
		return publishErrs
	})
}

func runPurgeJobs(cmdCtx *commandContext, args []string) error {
	opts, err := parsePurgeFlags(args)
	if err != nil {
		return err
	}

	if _, guardErr := guardRemoteHost(cmdCtx, opts.AllowRemote, "delete every job record"); guardErr != nil {
		return guardErr
	}

	if confirmErr := confirmAction(purgeConfirmOptions{opts: opts}, "purge all jobs"); confirmErr != nil {
		return confirmErr
	}

	return withDatabase(cmdCtx, 2*time.Minute, func(ctx context.Context, db *sql.DB) error {
		repo := data.NewJobRepo(db, data.RepoConfig{Logger: cmdCtx.Logger})

		if opts.DryRun {
			count := 0
			if listErr := repo.ListAll(ctx, func(*model.Job) error {
				count++
				return nil
			}); listErr != nil {
				return fmt.Errorf("count jobs: %w", listErr)
			}
			return writef(os.Stdout, "Dry-run: would delete %d jobs\n", count)
		}

		deleted, delErr := repo.DeleteAll(ctx)
		if delErr != nil {
			return fmt.Errorf("purge jobs: %w", delErr)
		}

		cmdCtx.Logger.Info("purge complete", "rows_deleted", deleted)
		return writef(os.Stdout, "Deleted %d jobs\n", deleted)
	})
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{
		Timeout: defaultMigrationTimeout,
	}

	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultMigrationTimeout,
		"Maximum duration to wait for migrations to complete",
	)

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}

	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func parseDBResetFlags(args []string) (dbResetOptions, error) {
	fs := flag.NewFlagSet("db-reset", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := dbResetOptions{
		Timeout: defaultMigrationTimeout,
	}

	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultMigrationTimeout,
		"Maximum duration to wait for reset operations to complete",
	)
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")
	fs.BoolVar(
		&opts.AllowRemote,
		"allow-remote",
		false,
		"Permit running against database hosts that do not look local",
	)

	if err := fs.Parse(args); err != nil {
		return dbResetOptions{}, err
	}

	if opts.Timeout <= 0 {
		return dbResetOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func parseListJobsFlags(args []string) (listJobsOptions, error) {
	fs := flag.NewFlagSet("list-jobs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts listJobsOptions
	fs.StringVar(&opts.Status, "status", "", "Filter by internal status (pending, processing, completed, failed)")
	fs.IntVar(&opts.Limit, "limit", 50, "Maximum rows to display (0 for unlimited)")

	if err := fs.Parse(args); err != nil {
		return listJobsOptions{}, err
	}

	opts.Status = strings.ToLower(strings.TrimSpace(opts.Status))
	if opts.Status != "" && !model.JobStatus(opts.Status).Valid() {
		return listJobsOptions{}, fmt.Errorf("invalid --status %q", opts.Status)
	}
	if opts.Limit < 0 {
		return listJobsOptions{}, errors.New("--limit must be zero or greater")
	}

	return opts, nil
}

func parseInspectJobFlags(args []string) (inspectJobOptions, error) {
	fs := flag.NewFlagSet("inspect-job", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts inspectJobOptions
	fs.StringVar(&opts.ID, "id", "", "Request ID to inspect (required)")
	fs.BoolVar(&opts.RawJSON, "json", false, "Print the raw job record as JSON")

	if err := fs.Parse(args); err != nil {
		return inspectJobOptions{}, err
	}

	opts.ID = strings.TrimSpace(opts.ID)
	if opts.ID == "" {
		return inspectJobOptions{}, errors.New("--id is required")
	}

	return opts, nil
}

func parseRequeueFlags(args []string) (requeueOptions, error) {
	fs := flag.NewFlagSet("requeue-pending", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts requeueOptions
	fs.DurationVar(&opts.MaxAge, "max-age", 5*time.Minute, "Minimum age before a pending job counts as stale")
	fs.IntVar(&opts.BatchSize, "batch-size", 100, "Maximum jobs to requeue in one run")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Print actions without executing")

	if err := fs.Parse(args); err != nil {
		return requeueOptions{}, err
	}

	if opts.MaxAge <= 0 {
		return requeueOptions{}, errors.New("--max-age must be greater than zero")
	}
	if opts.BatchSize <= 0 {
		return requeueOptions{}, errors.New("--batch-size must be greater than zero")
	}

	return opts, nil
}

func parsePurgeFlags(args []string) (purgeOptions, error) {
	fs := flag.NewFlagSet("purge-jobs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts purgeOptions
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Print actions without executing")
	fs.BoolVar(
		&opts.AllowRemote,
		"allow-remote",
		false,
		"Permit running against database hosts that do not look local",
	)

	if err := fs.Parse(args); err != nil {
		return purgeOptions{}, err
	}

	return opts, nil
}

func withDatabase(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *sql.DB) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

func guardRemoteHost(cmdCtx *commandContext, allow bool, action string) (bool, error) {
	remote := isLikelyRemoteHost(cmdCtx.Config.Postgres.Host)
	if !remote {
		return false, nil
	}
	if !allow {
		return true, fmt.Errorf(
			"refusing to run against potentially remote database host %q; re-run with --allow-remote if this is intentional",
			cmdCtx.Config.Postgres.Host,
		)
	}
	if err := requireRemoteHostConfirmation(action, cmdCtx.Config.Postgres.Host); err != nil {
		return true, err
	}
	return true, nil
}

func (cmdCtx *commandContext) resetDatabase(ctx context.Context, db *sql.DB) error {
	if cmdCtx == nil {
		return errors.New("command context is required")
	}

	cfg := &cmdCtx.Config.Postgres
	statements := []string{
		"DROP SCHEMA public CASCADE",
		"CREATE SCHEMA public",
		"GRANT ALL ON SCHEMA public TO public",
	}
	if user := strings.TrimSpace(cfg.User); user != "" && !strings.EqualFold(user, "public") {
		statements = append(statements, "GRANT ALL ON SCHEMA public TO "+quoteIdentifier(user))
	}

	for _, stmt := range statements {
		if cmdCtx.Logger != nil {
			cmdCtx.Logger.DebugContext(ctx, "executing reset statement", "sql", stmt)
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return false
	}
	if h == "localhost" || h == "127.0.0.1" || h == "::1" {
		return false
	}
	if strings.HasSuffix(h, ".local") {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}

func requireRemoteHostConfirmation(action, host string) error {
	if err := writef(
		os.Stderr,
		"\nWARNING: database host %q does not look like a local address.\n"+
			"This operation will %s.\n",
		host,
		action,
	); err != nil {
		return fmt.Errorf("print remote host warning: %w", err)
	}
	if err := writef(os.Stderr, "Type %q to continue or press enter to abort: ", host); err != nil {
		return fmt.Errorf("print remote host prompt: %w", err)
	}
	reader := bufio.NewReader(os.Stdin)
	resp, err := reader.ReadString('\n')
	if err != nil {
		if writeErr := writef(os.Stderr, "\nFailed to read confirmation input: %v\n", err); writeErr != nil {
			return fmt.Errorf("aborted by user: report write failed: %w", writeErr)
		}
		return errors.New("aborted by user")
	}
	if strings.TrimSpace(resp) != host {
		if writeErr := writeln(os.Stderr, "\nRemote safeguard check failed; aborting."); writeErr != nil {
			return fmt.Errorf("print remote safeguard failure: %w", writeErr)
		}
		return errors.New("aborted by user")
	}
	return nil
}

type confirmOptions interface {
	IsDryRun() bool
	IsYes() bool
	GetTarget() string
	GetWarning() string
}

type dbResetConfirmOptions struct {
	yes        bool
	target     string
	remoteHost string
}

func (d dbResetConfirmOptions) IsDryRun() bool { return false }
func (d dbResetConfirmOptions) IsYes() bool {
	if d.remoteHost != "" {
		return false
	}
	return d.yes
}

func (d dbResetConfirmOptions) GetWarning() string {
	warning := "WARNING: this will drop and recreate the public schema for the configured database."
	if d.remoteHost != "" {
		warning += fmt.Sprintf(" Host %q appears to be remote; double-check before proceeding.", d.remoteHost)
	}
	return warning
}
func (d dbResetConfirmOptions) GetTarget() string { return d.target }

type purgeConfirmOptions struct {
	opts purgeOptions
}

func (p purgeConfirmOptions) IsDryRun() bool { return p.opts.DryRun }
func (p purgeConfirmOptions) IsYes() bool    { return p.opts.Yes }
func (p purgeConfirmOptions) GetWarning() string {
	return "WARNING: this will delete every job record, including completed results."
}
func (p purgeConfirmOptions) GetTarget() string { return "" }

func confirmAction(opts confirmOptions, actionType string) error {
	if opts.IsDryRun() || opts.IsYes() {
		return nil
	}

	if err := printConfirmationIntro(opts, actionType); err != nil {
		return err
	}

	if err := write(os.Stdout, "Continue? [y/N]: "); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	reader := bufio.NewReader(os.Stdin)
	resp, err := reader.ReadString('\n')
	if err != nil {
		if writeErr := writef(os.Stdout, "\nFailed to read confirmation input: %v\n", err); writeErr != nil {
			return fmt.Errorf("aborted by user: report write failed: %w", writeErr)
		}
		return errors.New("aborted by user")
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errors.New("aborted by user")
}

func printConfirmationIntro(opts confirmOptions, actionType string) error {
	target := opts.GetTarget()
	if target == "" {
		if err := writeln(os.Stdout, opts.GetWarning()); err != nil {
			return fmt.Errorf("print confirmation warning: %w", err)
		}
		return nil
	}

	if err := writef(os.Stdout, "About to %s for %s.\n", actionType, target); err != nil {
		return fmt.Errorf("print confirmation message: %w", err)
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func write(w io.Writer, args ...any) error {
	_, err := fmt.Fprint(w, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}
