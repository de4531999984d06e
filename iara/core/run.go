package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"iara.com/iarasync/config"
	"iara.com/iarasync/core"
	"iara.com/iarasync/infrastructure/communication"
	"iara.com/iarasync/infrastructure/devops"
	"iara.com/iarasync/infrastructure/filesystem"
	"iara.com/iarasync/logging"
	"iara.com/iarasync/metrics"
	"iara.com/iarasync/report"
)

const workbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Notifier interface {
	Info(ctx context.Context, message string) error
	Error(ctx context.Context, message string) error
}

type Mailer interface {
	Send(ctx context.Context, info *communication.EmailInfo) (string, error)
}

type Uploader interface {
	WriteFile(ctx context.Context, name, contentType string, content []byte) (string, error)
}

// WorkbookFunc renders the run workbook.
type WorkbookFunc func(result *core.RunReport) ([]byte, error)

// Runner wires a configuration to the stores, the pipeline and the run
// publishers. Nil publishers are skipped.
type Runner struct {
	Config   config.Config
	Provider devops.Provider
	Metrics  *metrics.Recorder

	Notifier Notifier
	Mailer   Mailer
	Uploader Uploader

	// Workbook defaults to report.Bytes.
	Workbook WorkbookFunc
}

// NewRunner builds the provider and the publishers enabled in cfg.
func NewRunner(ctx context.Context, cfg *config.Config) (*Runner, error) {
	provider, err := devops.NewProvider(cfg.Provider, cfg.Dialect)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		Config:   *cfg,
		Provider: provider,
		Metrics:  metrics.NewRecorder(),
	}

	if cfg.Notify.SlackChannel != "" || os.Getenv("SLACK_INFO_CHANNEL") != "" {
		r.Notifier = communication.ConnectSlack(cfg.Notify.SlackChannel)
	}
	if len(cfg.Notify.EmailTo) > 0 {
		mailer, err := communication.ConnectSES(ctx)
		if err != nil {
			return nil, err
		}
		r.Mailer = mailer
	}
	if cfg.Report.Bucket != "" {
		bucket, prefix, _ := strings.Cut(cfg.Report.Bucket, "/")
		uploader, err := filesystem.OpenBucket(ctx, bucket, prefix)
		if err != nil {
			return nil, err
		}
		r.Uploader = uploader
	}
	return r, nil
}

// With returns a copy of the runner aimed at other stores. Empty names keep
// the configured ones.
func (r *Runner) With(source, target string, dryRun bool) *Runner {
	cp := *r
	if source != "" {
		cp.Config.Source = source
	}
	if target != "" {
		cp.Config.Target = target
	}
	cp.Config.DryRun = cp.Config.DryRun || dryRun
	return &cp
}

// Open looks name up through the provider and pins one connection.
func (r *Runner) Open(ctx context.Context, name string, readOnly bool) (*core.Store, error) {
	entry, err := r.Provider.Lookup(ctx, name)
	if err != nil {
		return nil, core.NewFatal("connect", fmt.Errorf("lookup %s: %w", name, err))
	}
	store, err := core.OpenStore(ctx, core.Dialect(entry.Dialect), entry.DSN(), readOnly, core.ParseLogLevel(r.Config.LogLevel))
	if err != nil {
		return nil, core.NewFatal("connect", fmt.Errorf("open %s: %w", name, err))
	}
	return store, nil
}

// Check opens and pings both stores.
func (r *Runner) Check(ctx context.Context) error {
	for _, s := range []struct {
		name     string
		readOnly bool
	}{{r.Config.Source, true}, {r.Config.Target, false}} {
		store, err := r.Open(ctx, s.name, s.readOnly)
		if err != nil {
			return err
		}
		err = store.Ping(ctx)
		store.Close()
		if err != nil {
			return fmt.Errorf("ping %s: %w", s.name, err)
		}
		logging.FromContext(ctx).Info().Str("store", s.name).Bool("readOnly", s.readOnly).Msg("connection ok")
	}
	return nil
}

// Run opens the source read-only and the target read-write, synchronizes and
// publishes the outcome. Both stores are closed on every path.
func (r *Runner) Run(ctx context.Context) (*core.RunReport, error) {
	source, err := r.Open(ctx, r.Config.Source, true)
	if err != nil {
		r.abort(ctx, err)
		return nil, err
	}
	defer source.Close()

	target, err := r.Open(ctx, r.Config.Target, false)
	if err != nil {
		r.abort(ctx, err)
		return nil, err
	}
	defer target.Close()

	return r.Execute(ctx, source.DB, target.DB)
}

// Execute runs the pipeline over already opened stores.
func (r *Runner) Execute(ctx context.Context, source, target *gorm.DB) (*core.RunReport, error) {
	policy, err := ParseGenderPolicy(r.Config.GenderIDs)
	if err != nil {
		r.abort(ctx, err)
		return nil, err
	}

	opts := SyncOptions{
		DryRun:       r.Config.DryRun,
		GenderPolicy: policy,
		Audit:        r.Config.Audit,
	}
	if r.Metrics != nil {
		opts.OnStage = r.Metrics.ObserveStage
	}

	result, runErr := Synchronize(ctx, source, target, opts)
	r.observe(ctx, result)

	if result != nil {
		if err := r.Publish(context.WithoutCancel(ctx), result); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Msg("failed to publish run report")
		}
	}
	return result, runErr
}

// observe counts the run, nil meaning it failed before any stage, and
// pushes the registry when a pushgateway is configured.
func (r *Runner) observe(ctx context.Context, result *core.RunReport) {
	if r.Metrics == nil {
		return
	}
	r.Metrics.ObserveRun(result)
	if r.Config.Pushgateway != "" {
		if err := r.Metrics.Push(context.WithoutCancel(ctx), r.Config.Pushgateway); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Msg("failed to push metrics")
		}
	}
}

// abort records a run that failed before the pipeline started.
func (r *Runner) abort(ctx context.Context, err error) {
	r.observe(ctx, nil)
	r.notifyFailure(ctx, err)
}

// Publish saves, uploads, mails and announces the run report. Every
// publisher is attempted and their errors are joined. Without a workbook
// the mail goes out bare and the file publishers are skipped.
func (r *Runner) Publish(ctx context.Context, result *core.RunReport) error {
	var errs []error

	var workbook []byte
	if r.Config.Report.XLSX != "" || r.Uploader != nil || r.Mailer != nil {
		data, err := r.buildWorkbook(result)
		if err != nil {
			errs = append(errs, fmt.Errorf("build workbook: %w", err))
		}
		workbook = data
	}

	if path := r.Config.Report.XLSX; path != "" && workbook != nil {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, report.FileName(result))
		}
		if err := os.WriteFile(path, workbook, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("save workbook: %w", err))
		} else {
			logging.FromContext(ctx).Info().Str("path", path).Msg("workbook saved")
		}
	}

	if r.Uploader != nil && workbook != nil {
		key, err := r.Uploader.WriteFile(ctx, report.FileName(result), workbookContentType, workbook)
		if err != nil {
			errs = append(errs, err)
		} else {
			logging.FromContext(ctx).Info().Str("key", key).Msg("workbook uploaded")
		}
	}

	if r.Mailer != nil {
		info := &communication.EmailInfo{
			From:    r.Config.Notify.EmailFrom,
			To:      r.Config.Notify.EmailTo,
			Subject: Subject(result),
			Text:    Summary(result),
		}
		if workbook != nil {
			info.Attachments = []communication.Attachment{
				{Filename: report.FileName(result), ContentType: workbookContentType, Content: workbook},
			}
		}
		if _, err := r.Mailer.Send(ctx, info); err != nil {
			errs = append(errs, err)
		}
	}

	if r.Notifier != nil {
		var err error
		if result.Succeeded() {
			err = r.Notifier.Info(ctx, Summary(result))
		} else {
			err = r.Notifier.Error(ctx, Summary(result))
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (r *Runner) buildWorkbook(result *core.RunReport) ([]byte, error) {
	if r.Workbook != nil {
		return r.Workbook(result)
	}
	return report.Bytes(result)
}

func (r *Runner) notifyFailure(ctx context.Context, err error) {
	if r.Notifier == nil {
		return
	}
	msg := fmt.Sprintf("Critical error during synchronization: %v", err)
	if nErr := r.Notifier.Error(context.WithoutCancel(ctx), msg); nErr != nil {
		logging.FromContext(ctx).Warn().Err(nErr).Msg("failed to notify")
	}
}

// Subject is the one line title of a run, used for mail.
func Subject(result *core.RunReport) string {
	status := "succeeded"
	if !result.Succeeded() {
		status = "failed"
	}
	subject := fmt.Sprintf("iarasync run %s %s", result.RunID.String()[:8], status)
	if result.DryRun {
		subject += " (dry run)"
	}
	return subject
}

// Summary renders the stage lines followed by the final outcome line.
func Summary(result *core.RunReport) string {
	var b strings.Builder
	if result.DryRun {
		b.WriteString("Dry run, nothing was committed.\n")
	}
	for _, s := range result.Stages {
		b.WriteString(s.Summary())
		b.WriteByte('\n')
	}
	if result.Succeeded() {
		b.WriteString("Synchronization complete for all tables!")
	} else {
		b.WriteString("Critical error during synchronization: ")
		b.WriteString(result.Error)
	}
	return b.String()
}
