package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iara.com/iarasync/config"
	"iara.com/iarasync/core"
	"iara.com/iarasync/infrastructure/communication"
	"iara.com/iarasync/infrastructure/devops"
	"iara.com/iarasync/metrics"
)

type fakeNotifier struct {
	info, errs []string
}

func (f *fakeNotifier) Info(ctx context.Context, message string) error {
	f.info = append(f.info, message)
	return nil
}

func (f *fakeNotifier) Error(ctx context.Context, message string) error {
	f.errs = append(f.errs, message)
	return nil
}

type fakeMailer struct {
	sent []*communication.EmailInfo
}

func (f *fakeMailer) Send(ctx context.Context, info *communication.EmailInfo) (string, error) {
	f.sent = append(f.sent, info)
	return "id", nil
}

type fakeUploader struct {
	names []string
	err   error
}

func (f *fakeUploader) WriteFile(ctx context.Context, name, contentType string, content []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, name)
	return "reports/" + name, nil
}

type failingProvider struct{}

func (failingProvider) Lookup(ctx context.Context, name string) (devops.DBEntry, error) {
	return devops.DBEntry{}, errors.New("DB_HOST is not set")
}

func testRunner(t *testing.T) *Runner {
	return &Runner{
		Config: config.Config{
			GenderIDs: "fixed",
			Report:    config.ReportConfig{XLSX: t.TempDir()},
			Notify:    config.NotifyConfig{EmailFrom: "sync@iara.com", EmailTo: []string{"ops@iara.com"}},
		},
		Metrics:  metrics.NewRecorder(),
		Notifier: &fakeNotifier{},
		Mailer:   &fakeMailer{},
		Uploader: &fakeUploader{},
	}
}

func TestRunnerExecutePublishes(t *testing.T) {
	source, target := openStores(t)
	seedOrigin(t, source)
	runner := testRunner(t)

	result, err := runner.Execute(context.Background(), source, target)
	require.NoError(t, err)
	require.True(t, result.Succeeded())

	files, err := os.ReadDir(runner.Config.Report.XLSX)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0].Name(), ".xlsx"))

	uploader := runner.Uploader.(*fakeUploader)
	assert.Equal(t, []string{files[0].Name()}, uploader.names)

	mailer := runner.Mailer.(*fakeMailer)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"ops@iara.com"}, mailer.sent[0].To)
	require.Len(t, mailer.sent[0].Attachments, 1)
	assert.NotEmpty(t, mailer.sent[0].Attachments[0].Content)

	notifier := runner.Notifier.(*fakeNotifier)
	require.Len(t, notifier.info, 1)
	assert.Contains(t, notifier.info[0], "Factory: 3 synchronized, 0 skipped, 0 ignored.")
	assert.Empty(t, notifier.errs)

	assert.Equal(t, 1.0, testutil.ToFloat64(runner.Metrics.Runs.WithLabelValues("succeeded")))
	assert.Equal(t, 3.0, testutil.ToFloat64(runner.Metrics.Records.WithLabelValues(StageFactory, "applied")))
}

func TestRunnerPublishJoinsErrors(t *testing.T) {
	runner := testRunner(t)
	runner.Config.Report.XLSX = ""
	runner.Uploader = &fakeUploader{err: errors.New("access denied")}

	result := &core.RunReport{RunID: uuid.New(), Stages: []core.StageReport{{Name: StageFactory, Applied: 1}}}
	err := runner.Publish(context.Background(), result)
	assert.ErrorContains(t, err, "access denied")

	// the other publishers still ran
	assert.Len(t, runner.Mailer.(*fakeMailer).sent, 1)
	assert.Len(t, runner.Notifier.(*fakeNotifier).info, 1)
}

func TestRunnerExecuteRejectsUnknownGenderPolicy(t *testing.T) {
	source, target := openStores(t)
	runner := testRunner(t)
	runner.Config.GenderIDs = "random"

	_, err := runner.Execute(context.Background(), source, target)
	assert.Error(t, err)
}

func TestRunnerWith(t *testing.T) {
	base := &Runner{Config: config.Config{Source: "origin", Target: "target"}}

	r := base.With("", "staging", true)
	assert.Equal(t, "origin", r.Config.Source)
	assert.Equal(t, "staging", r.Config.Target)
	assert.True(t, r.Config.DryRun)
	assert.Equal(t, "target", base.Config.Target)
	assert.False(t, base.Config.DryRun)
}

func TestSummary(t *testing.T) {
	ok := &core.RunReport{
		RunID: uuid.MustParse("abcdef12-0000-0000-0000-000000000000"),
		Stages: []core.StageReport{
			{Name: StageFactory, Applied: 10, Failed: 1},
			{Name: StageAddress, Applied: 4, Skipped: 2},
		},
	}
	assert.Equal(t, "Factory: 10 synchronized, 0 skipped, 1 ignored.\n"+
		"Address: 4 synchronized, 2 skipped, 0 ignored.\n"+
		"Synchronization complete for all tables!", Summary(ok))
	assert.Equal(t, "iarasync run abcdef12 succeeded", Subject(ok))

	failed := &core.RunReport{RunID: ok.RunID, DryRun: true, Error: "stage Address: connection reset"}
	assert.Equal(t, "Dry run, nothing was committed.\nCritical error during synchronization: stage Address: connection reset", Summary(failed))
	assert.Equal(t, "iarasync run abcdef12 failed (dry run)", Subject(failed))
}

func TestRunnerSavesWorkbookToFile(t *testing.T) {
	runner := &Runner{Config: config.Config{Report: config.ReportConfig{XLSX: filepath.Join(t.TempDir(), "out.xlsx")}}}
	require.NoError(t, runner.Publish(context.Background(), &core.RunReport{RunID: uuid.New()}))
	assert.FileExists(t, runner.Config.Report.XLSX)
}

func TestRunnerRunCountsConnectFailure(t *testing.T) {
	runner := testRunner(t)
	runner.Config.Source = "origin"
	runner.Config.Target = "target"
	runner.Provider = failingProvider{}

	result, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, core.IsFatal(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(runner.Metrics.Runs.WithLabelValues("failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(runner.Metrics.Runs.WithLabelValues("succeeded")))

	notifier := runner.Notifier.(*fakeNotifier)
	require.Len(t, notifier.errs, 1)
	assert.Contains(t, notifier.errs[0], "DB_HOST is not set")
}

func TestRunnerPublishWithoutWorkbook(t *testing.T) {
	runner := testRunner(t)
	runner.Workbook = func(*core.RunReport) ([]byte, error) {
		return nil, errors.New("disk full")
	}

	result := &core.RunReport{RunID: uuid.New(), Stages: []core.StageReport{{Name: StageFactory, Applied: 1}}}
	err := runner.Publish(context.Background(), result)
	assert.ErrorContains(t, err, "build workbook: disk full")

	files, readErr := os.ReadDir(runner.Config.Report.XLSX)
	require.NoError(t, readErr)
	assert.Empty(t, files)
	assert.Empty(t, runner.Uploader.(*fakeUploader).names)

	mailer := runner.Mailer.(*fakeMailer)
	require.Len(t, mailer.sent, 1)
	assert.Empty(t, mailer.sent[0].Attachments)
	assert.Contains(t, mailer.sent[0].Text, "Factory: 1 synchronized")

	assert.Len(t, runner.Notifier.(*fakeNotifier).info, 1)
}
