package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/poiesic/docquery"
	"github.com/poiesic/docquery/config"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/index"
	"github.com/poiesic/docquery/ingestion"
	"github.com/poiesic/docquery/reindex"
	"github.com/samber/mo"
	"github.com/urfave/cli/v2"
)

type commands struct {
	engineOpts []docquery.Option
}

// flagOverrides maps CLI flags to settings keys.
var flagOverrides = map[string]string{
	"data-dir":        "data_dir",
	"log-level":       "log_level",
	"source":          "source.kind",
	"ai-host":         "ai.chat_host",
	"embedding-model": "ai.embedding_model",
	"chat-model":      "ai.chat_model",
	"utility-model":   "ai.utility_model",
}

func (cmds *commands) open(c *cli.Context, extra ...docquery.Option) (*docquery.Engine, error) {
	overrides := make(map[string]any)
	for flag, key := range flagOverrides {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	if c.IsSet("ai-host") {
		overrides["ai.embedding_host"] = c.String("ai-host")
	}

	settings, err := config.Load(config.LoadOptions{
		EnvFile:   c.String("env-file"),
		Overrides: overrides,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := append(append([]docquery.Option{}, cmds.engineOpts...), extra...)
	engine, err := docquery.Open(settings, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func repoArg(c *cli.Context) (string, error) {
	name := c.Args().First()
	if name == "" {
		return "", errors.New("repository OWNER/REPO is required")
	}
	if _, _, ok := core.SplitFullName(name); !ok {
		return "", fmt.Errorf("%w: %q", core.ErrMalformedFullName, name)
	}
	return name, nil
}

func progressPrinter(w io.Writer) ingestion.ProgressObserver {
	return ingestion.ObserverFunc(func(run core.IngestionRun) {
		switch {
		case run.Status.IsTerminal():
			fmt.Fprintf(w, "\r%s: %d/%d files %s\n", run.Repo.FullName, run.FilesIngested, run.TotalFiles, run.Status)
		case run.TotalFiles > 0:
			fmt.Fprintf(w, "\r%s: %d/%d files", run.Repo.FullName, run.FilesIngested, run.TotalFiles)
		}
	})
}

func (cmds *commands) ingest(c *cli.Context) error {
	fullName, err := repoArg(c)
	if err != nil {
		return err
	}
	_, name, _ := core.SplitFullName(fullName)

	engine, err := cmds.open(c, docquery.WithObserver(progressPrinter(c.App.ErrWriter)))
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signalContext()
	defer stop()

	ref := core.RepositoryRef{
		Name:          name,
		FullName:      fullName,
		Branch:        c.String("branch"),
		RepositoryURL: c.String("url"),
		FilesPath:     c.StringSlice("file"),
		UserEmail:     mo.EmptyableToOption(c.String("user")),
	}
	if ref.RepositoryURL == "" {
		ref.RepositoryURL = "https://github.com/" + fullName
	}

	ref, err = engine.DiscoverFiles(ctx, ref)
	if err != nil {
		return err
	}
	if len(ref.FilesPath) == 0 {
		return fmt.Errorf("no files to ingest in %s@%s", fullName, ref.Branch)
	}

	id, err := engine.Submit(ref)
	if err != nil {
		return fmt.Errorf("failed to submit ingestion: %w", err)
	}

	run, err := engine.Wait(ctx, id)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(c.App.ErrWriter, "\ncancelling...")
		_ = engine.Cancel(id)
		run, err = engine.Wait(context.Background(), id)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "run %s %s: %d/%d files\n", run.ID, run.Status, run.FilesIngested, run.TotalFiles)
	if msg, ok := run.CatalogError.Get(); ok {
		fmt.Fprintf(c.App.ErrWriter, "warning: %s\n", msg)
	}
	if run.Status != core.StatusCompleted {
		return cli.Exit(run.Error.OrElse(string(run.Status)), 1)
	}
	return nil
}

func (cmds *commands) ask(c *cli.Context) error {
	fullName, err := repoArg(c)
	if err != nil {
		return err
	}
	question := strings.Join(c.Args().Tail(), " ")
	if strings.TrimSpace(question) == "" {
		return errors.New("a question is required")
	}

	var extra []docquery.Option
	if c.Bool("show-context") {
		// Trace every search stage to stderr alongside the printed context
		trace := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))
		extra = append(extra, docquery.WithSearchMonitor(index.NewLoggingMonitor(trace)))
	}
	engine, err := cmds.open(c, extra...)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signalContext()
	defer stop()

	req := &core.QARequest{
		Question:       question,
		RepositoryName: fullName,
		Branch:         c.String("branch"),
	}
	if err := engine.Ask(ctx, req); err != nil {
		return err
	}

	if c.Bool("show-context") {
		fmt.Fprintf(c.App.Writer, "%s\n---\n", req.Context.OrEmpty())
	}
	if msg, ok := req.Error.Get(); ok {
		fmt.Fprintf(c.App.ErrWriter, "warning: %s\n", msg)
	}
	if answer, ok := req.LastMessage(); ok {
		fmt.Fprintln(c.App.Writer, answer.Content)
	}
	return nil
}

func (cmds *commands) delete(c *cli.Context) error {
	engine, err := cmds.open(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	var res *core.DeletionResult
	if c.IsSet("id") {
		id, perr := core.ParseID(c.String("id"))
		if perr != nil {
			return fmt.Errorf("invalid id %q: %w", c.String("id"), perr)
		}
		res, err = engine.DeleteRepository(ctx, id)
	} else {
		fullName, aerr := repoArg(c)
		if aerr != nil {
			return aerr
		}
		res, err = engine.DeleteRepositoryByName(ctx, fullName)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "deleted %s: %d documents, %d catalog entries\n",
		res.Repository, res.DeletedDocuments, res.DeletedRepositories)
	return nil
}

func (cmds *commands) repos(c *cli.Context) error {
	engine, err := cmds.open(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	records, err := engine.Repositories(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(c.App.Writer, "no repositories")
		return nil
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREPOSITORY\tBRANCH\tFILES\tCHUNKS\tUPDATED")
	for _, r := range records {
		chunks, err := engine.ChunkCount(ctx, r.FullName)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.FullName, r.Branch, len(r.Files), chunks, r.UpdatedAt.Format(time.DateTime))
	}
	return tw.Flush()
}

func (cmds *commands) runs(c *cli.Context) error {
	engine, err := cmds.open(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	runs, err := engine.Runs(context.Background())
	if err != nil {
		return err
	}
	if limit := c.Int("limit"); limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.App.Writer, "no runs")
		return nil
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tREPOSITORY\tSTATUS\tFILES\tSTARTED\tERROR")
	for _, r := range runs {
		started := "-"
		if !r.StartedAt.IsZero() {
			started = r.StartedAt.Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			r.ID, r.Repo.FullName, r.Status, r.FilesIngested, r.TotalFiles, started, r.Error.OrEmpty())
	}
	return tw.Flush()
}

func (cmds *commands) userAdd(c *cli.Context) error {
	email := strings.TrimSpace(c.Args().First())
	if email == "" {
		return errors.New("email is required")
	}

	engine, err := cmds.open(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.CreateUser(context.Background(), &core.User{Email: email, Name: c.String("name")}); err != nil {
		return fmt.Errorf("failed to add user %s: %w", email, err)
	}
	fmt.Fprintf(c.App.Writer, "added user %s\n", email)
	return nil
}

func (cmds *commands) userShow(c *cli.Context) error {
	email := strings.TrimSpace(c.Args().First())
	if email == "" {
		return errors.New("email is required")
	}

	engine, err := cmds.open(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	user, err := engine.User(context.Background(), email)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s %s\n", user.Email, user.Name)
	for _, repo := range user.IngestedRepositories {
		fmt.Fprintf(c.App.Writer, "  %s\n", repo)
	}
	return nil
}

func (cmds *commands) reindex(c *cli.Context) error {
	fullName := c.Args().First()
	if c.Int("batch-size") <= 0 {
		return errors.New("batch-size must be greater than 0")
	}
	if c.Int("max-retries") <= 0 {
		return errors.New("max-retries must be greater than 0")
	}

	engine, err := cmds.open(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signalContext()
	defer stop()

	res, err := engine.Reindex(ctx, fullName, c.App.ErrWriter,
		reindex.WithBatchSize(c.Int("batch-size")),
		reindex.WithRetryPolicy(reindex.RetryPolicy{
			MaxAttempts: c.Int("max-retries"),
			BaseDelay:   c.Duration("retry-delay"),
		}),
	)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "reindexed %d chunks in %d batches (%s)\n",
		res.Chunks, res.Batches, res.Elapsed.Round(time.Millisecond))
	return nil
}

func (cmds *commands) health(c *cli.Context) error {
	engine, err := cmds.open(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Health(context.Background()); err != nil {
		return cli.Exit(fmt.Sprintf("unhealthy: %v", err), 1)
	}
	fmt.Fprintln(c.App.Writer, "ok")
	return nil
}
