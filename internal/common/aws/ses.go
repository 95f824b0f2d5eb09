// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the subset of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailMessage is a plain email with optional HTML alternative.
type EmailMessage struct {
	From    string
	To      []string
	ReplyTo []string
	Subject string
	Text    string
	HTML    string
}

type SESClient struct {
	api SESAPI
}

func NewSESClient(cfg awssdk.Config) *SESClient {
	return &SESClient{api: ses.NewFromConfig(cfg)}
}

// NewSESClientWithAPI wraps an existing SES implementation.
func NewSESClientWithAPI(api SESAPI) *SESClient {
	return &SESClient{api: api}
}

// Send delivers msg and returns the SES message id.
func (s *SESClient) Send(ctx context.Context, msg EmailMessage) (string, error) {
	if msg.From == "" || len(msg.To) == 0 {
		return "", fmt.Errorf("email requires a sender and at least one recipient")
	}

	body := &types.Body{
		Text: &types.Content{Data: awssdk.String(msg.Text), Charset: awssdk.String("UTF-8")},
	}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: awssdk.String(msg.HTML), Charset: awssdk.String("UTF-8")}
	}

	out, err := s.api.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: msg.To},
		Message: &types.Message{
			Subject: &types.Content{Data: awssdk.String(msg.Subject), Charset: awssdk.String("UTF-8")},
			Body:    body,
		},
		Source:           awssdk.String(msg.From),
		ReplyToAddresses: msg.ReplyTo,
	})
	if err != nil {
		return "", err
	}

	return awssdk.ToString(out.MessageId), nil
}
