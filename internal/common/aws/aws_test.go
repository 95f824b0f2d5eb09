package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSES struct{ mock.Mock }

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*ses.SendEmailOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSNS struct{ mock.Mock }

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*sns.PublishOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

// ==========================
// SES
// ==========================

func TestSESClient_Send(t *testing.T) {
	api := &mockSES{}
	api.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return awssdk.ToString(in.Source) == "noreply@example.com" &&
			in.Destination.ToAddresses[0] == "sales@example.com" &&
			awssdk.ToString(in.Message.Subject.Data) == "New lead" &&
			in.Message.Body.Html == nil
	})).Return(&ses.SendEmailOutput{MessageId: awssdk.String("msg-1")}, nil)

	client := NewSESClientWithAPI(api)
	id, err := client.Send(context.Background(), EmailMessage{
		From:    "noreply@example.com",
		To:      []string{"sales@example.com"},
		Subject: "New lead",
		Text:    "body",
	})

	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	api.AssertExpectations(t)
}

func TestSESClient_SendRequiresAddresses(t *testing.T) {
	client := NewSESClientWithAPI(&mockSES{})
	_, err := client.Send(context.Background(), EmailMessage{Subject: "x"})
	assert.Error(t, err)
}

func TestSESClient_SendPropagatesError(t *testing.T) {
	api := &mockSES{}
	api.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	_, err := NewSESClientWithAPI(api).Send(context.Background(), EmailMessage{
		From: "a@example.com", To: []string{"b@example.com"},
	})
	assert.EqualError(t, err, "throttled")
}

// ==========================
// SNS
// ==========================

func TestSNSClient_PublishEvent(t *testing.T) {
	api := &mockSNS{}
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		attr := in.MessageAttributes["eventType"]
		return awssdk.ToString(in.TopicArn) == "arn:aws:sns:us-east-1:123:leads" &&
			awssdk.ToString(attr.StringValue) == "assessment.submitted" &&
			awssdk.ToString(in.Message) == `{"assessmentId":"a-1"}`
	})).Return(&sns.PublishOutput{MessageId: awssdk.String("evt-1")}, nil)

	id, err := NewSNSClientWithAPI(api).PublishEvent(
		context.Background(),
		"arn:aws:sns:us-east-1:123:leads",
		"assessment.submitted",
		map[string]string{"assessmentId": "a-1"},
	)

	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)
	api.AssertExpectations(t)
}
