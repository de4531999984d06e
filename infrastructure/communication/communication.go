package communication

import (
	"context"
	"fmt"
	"os"

	"github.com/slack-go/slack"
)

// SlackPoster is the part of the slack client used here.
type SlackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

type Slack struct {
	client  SlackPoster
	options SlackOption
}

type SlackOption struct {
	InfoChannelID  string
	ErrorChannelID string
}

// ConnectSlack reads SLACK_BOT_TOKEN. channel overrides SLACK_INFO_CHANNEL
// when set; failures go to SLACK_ERROR_CHANNEL or the info channel.
func ConnectSlack(channel string) *Slack {
	token := os.Getenv("SLACK_BOT_TOKEN")
	infoCh := os.Getenv("SLACK_INFO_CHANNEL")
	if channel != "" {
		infoCh = channel
	}
	errorCh := os.Getenv("SLACK_ERROR_CHANNEL")
	if errorCh == "" {
		errorCh = infoCh
	}

	return NewSlack(slack.New(token), SlackOption{InfoChannelID: infoCh, ErrorChannelID: errorCh})
}

func NewSlack(client SlackPoster, options SlackOption) *Slack {
	return &Slack{client: client, options: options}
}

func (s *Slack) postMessage(ctx context.Context, channelID, message string) error {
	if channelID == "" {
		return fmt.Errorf("slack channel is not configured")
	}
	_, _, err := s.client.PostMessageContext(
		ctx,
		channelID,
		slack.MsgOptionText(message, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}
	return nil
}

func (s *Slack) Info(ctx context.Context, message string) error {
	return s.postMessage(ctx, s.options.InfoChannelID, message)
}

func (s *Slack) Error(ctx context.Context, message string) error {
	return s.postMessage(ctx, s.options.ErrorChannelID, message)
}
