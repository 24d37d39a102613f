// internal/workers/lead/notify-hot-lead/handler_test.go
package notifyhotlead

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lead-qualifier-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "alerts@agency.example.com",
		AgentEmail:   "agent@agency.example.com",
		AgentPhone:   "+19045550100",
		MinSMSScore:  0.85,
		AWSRegion:    "us-east-1",
		Timeout:      30 * time.Second,
	}
}

func createTestInput() *Input {
	return &Input{
		LeadID:    "lead-001",
		Name:      "Maria Alvarez",
		Email:     "maria@example.com",
		Inquiry:   "Looking to buy a 4 bedroom home",
		Location:  "Saint Johns, FL 32259",
		Timeframe: "ASAP",
		Intent:    "High Intent",
		Score:     0.96,
	}
}

func newTestHandler(t *testing.T, cfg *Config, sesMock SESService, snsMock SNSService) *Handler {
	return &Handler{
		config:    cfg,
		logger:    logger.NewTestLogger(t),
		sesClient: sesMock,
		snsClient: snsMock,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_EmailAndSMS(t *testing.T) {
	emailCalls := 0
	smsCalls := 0

	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			emailCalls++
			assert.Equal(t, []string{"agent@agency.example.com"}, params.Destination.ToAddresses)
			assert.Contains(t, *params.Message.Subject.Data, "High Intent")
			assert.Contains(t, *params.Message.Body.Text.Data, "Maria Alvarez")
			return &ses.SendEmailOutput{}, nil
		},
	}
	snsMock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			smsCalls++
			assert.Equal(t, "+19045550100", *params.PhoneNumber)
			assert.True(t, strings.Contains(*params.Message, "lead-001"))
			return &sns.PublishOutput{}, nil
		},
	}

	handler := newTestHandler(t, createTestConfig(), sesMock, snsMock)

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, 1, emailCalls)
	assert.Equal(t, 1, smsCalls)
	assert.NotEmpty(t, output.NotificationID)

	_, parseErr := time.Parse(time.RFC3339, output.SentAt)
	assert.NoError(t, parseErr)
}

func TestHandler_Execute_SMSSkippedBelowThreshold(t *testing.T) {
	smsCalls := 0

	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return &ses.SendEmailOutput{}, nil
		},
	}
	snsMock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			smsCalls++
			return &sns.PublishOutput{}, nil
		},
	}

	handler := newTestHandler(t, createTestConfig(), sesMock, snsMock)

	input := createTestInput()
	input.Score = 0.72

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, 0, smsCalls)
}

func TestHandler_Execute_EmailFailure(t *testing.T) {
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("ses throttled")
		},
	}

	handler := newTestHandler(t, createTestConfig(), sesMock, nil)

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, StatusFailed, output.Status)
}

func TestHandler_Execute_SMSFailure(t *testing.T) {
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return &ses.SendEmailOutput{}, nil
		},
	}
	snsMock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("sns unavailable")
		},
	}

	handler := newTestHandler(t, createTestConfig(), sesMock, snsMock)

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Status)
}

func TestHandler_Execute_AllChannelsDisabled(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false

	handler := newTestHandler(t, cfg, nil, nil)

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
}

func TestHandler_Execute_EmailOnlyWhenNoPhone(t *testing.T) {
	cfg := createTestConfig()
	cfg.AgentPhone = ""

	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return &ses.SendEmailOutput{}, nil
		},
	}

	handler := newTestHandler(t, cfg, sesMock, nil)

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
}
