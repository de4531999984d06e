package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"iara.com/iarasync/config"
	"iara.com/iarasync/core"
	iara "iara.com/iarasync/iara/core"
	"iara.com/iarasync/logging"
)

// SyncEvent overrides the configured stores for one invocation. Scheduled
// events carry none of these fields.
type SyncEvent struct {
	Source string `json:"source"`
	Target string `json:"target"`
	DryRun bool   `json:"dryRun"`
}

type SyncResult struct {
	RunID   string             `json:"runId"`
	DryRun  bool               `json:"dryRun"`
	Stages  []core.StageReport `json:"stages"`
	Summary string             `json:"summary"`
}

func newResult(report *core.RunReport) *SyncResult {
	return &SyncResult{
		RunID:   report.RunID.String(),
		DryRun:  report.DryRun,
		Stages:  report.Stages,
		Summary: iara.Summary(report),
	}
}

// ParseEvent accepts a SyncEvent or any other payload, e.g. an EventBridge
// schedule, which means "use the configured stores".
func ParseEvent(raw json.RawMessage) (SyncEvent, error) {
	var event SyncEvent
	if len(raw) == 0 || string(raw) == "null" {
		return event, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return event, fmt.Errorf("failed to unmarshal sync event: %w", err)
	}
	if _, ok := probe["detail-type"]; ok {
		return event, nil
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal sync event: %w", err)
	}
	return event, nil
}

func Sync(ctx context.Context, event SyncEvent) (*SyncResult, error) {
	cfg, err := config.Load(os.Getenv("IARA_CONFIG"))
	if err != nil {
		return nil, err
	}
	logging.Configure(&logging.Config{Level: cfg.LogLevel, Format: "json", Output: "stdout"})

	runner, err := iara.NewRunner(ctx, cfg)
	if err != nil {
		return nil, err
	}

	report, err := runner.With(event.Source, event.Target, event.DryRun).Run(ctx)
	if err != nil {
		return nil, err
	}
	return newResult(report), nil
}

func HandleRequest(ctx context.Context, raw json.RawMessage) (*SyncResult, error) {
	logging.Default().Info().RawJSON("event", raw).Msg("invoked")

	event, err := ParseEvent(raw)
	if err != nil {
		return nil, err
	}
	return Sync(ctx, event)
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(HandleRequest)
		return
	}

	// local run, dry by default
	result, err := Sync(context.Background(), SyncEvent{DryRun: os.Getenv("IARA_DRY_RUN") != "false"})
	if err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		os.Exit(1)
	}
	resJson, _ := json.MarshalIndent(result, "", "  ")
	fmt.Printf("[SUCCESS] Results:\n%s\n", string(resJson))
}
