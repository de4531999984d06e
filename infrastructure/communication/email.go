package communication

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type EmailInfo struct {
	From        string
	To          []string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

type SESClient interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

type Mailer struct {
	client SESClient
}

func NewMailer(client SESClient) *Mailer {
	return &Mailer{client: client}
}

// ConnectSES builds a mailer from the default AWS configuration.
func ConnectSES(ctx context.Context) (*Mailer, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewMailer(ses.NewFromConfig(cfg)), nil
}

// Send delivers info as a raw MIME message and returns the SES message id.
func (m *Mailer) Send(ctx context.Context, info *EmailInfo) (string, error) {
	emailRaw, err := BuildEmailBuffer(info)
	if err != nil {
		return "", err
	}

	res, err := m.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage: &types.RawMessage{Data: emailRaw.Bytes()},
	})
	if err != nil {
		return "", fmt.Errorf("send raw email: %w", err)
	}
	if res.MessageId == nil {
		return "", nil
	}
	return *res.MessageId, nil
}

func BuildEmailBuffer(info *EmailInfo) (*bytes.Buffer, error) {
	if info.From == "" || len(info.To) == 0 {
		return nil, fmt.Errorf("email needs a sender and at least one recipient")
	}

	var emailRaw bytes.Buffer
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	headers := fmt.Sprintf("From: %s\r\n", info.From)
	headers += fmt.Sprintf("To: %s\r\n", strings.Join(info.To, ", "))
	headers += fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", info.Subject))
	headers += "MIME-Version: 1.0\r\n"
	headers += fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", writer.Boundary())
	headers += "\r\n"
	emailRaw.WriteString(headers)

	// text/plain + text/html
	altBuf := &bytes.Buffer{}
	altWriter := multipart.NewWriter(altBuf)

	altHeaders := textproto.MIMEHeader{}
	altHeaders.Set("Content-Type", "multipart/alternative; boundary="+altWriter.Boundary())
	altPart, err := writer.CreatePart(altHeaders)
	if err != nil {
		return nil, err
	}

	if info.Text != "" {
		if err := writeQuotedPrintable(altWriter, "text/plain; charset=UTF-8", info.Text); err != nil {
			return nil, err
		}
	}
	if info.HTML != "" {
		if err := writeQuotedPrintable(altWriter, "text/html; charset=UTF-8", info.HTML); err != nil {
			return nil, err
		}
	}
	if err := altWriter.Close(); err != nil {
		return nil, err
	}
	if _, err := altPart.Write(altBuf.Bytes()); err != nil {
		return nil, err
	}

	for _, att := range info.Attachments {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", fmt.Sprintf("%s; name=\"%s\"", att.ContentType, att.Filename))
		h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", att.Filename))
		h.Set("Content-Transfer-Encoding", "base64")

		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, err
		}
		b := make([]byte, base64.StdEncoding.EncodedLen(len(att.Content)))
		base64.StdEncoding.Encode(b, att.Content)

		// wrap lines at 76 chars
		for i := 0; i < len(b); i += 76 {
			end := min(i+76, len(b))
			part.Write(b[i:end])
			part.Write([]byte("\r\n"))
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	emailRaw.Write(body.Bytes())
	return &emailRaw, nil
}

func writeQuotedPrintable(w *multipart.Writer, contentType, content string) error {
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(content)); err != nil {
		return err
	}
	return qp.Close()
}
