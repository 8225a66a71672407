// Package notify emails staff about work handed to them.
package notify

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"cityfix-be/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type Notifier interface {
	StaffAssigned(ctx context.Context, staffEmail string, issue *models.Issue) error
}

// SESAPI is the slice of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SES struct {
	client SESAPI
	sender string
}

var _ Notifier = (*SES)(nil)

var assignedBody = template.Must(template.New("assigned").Parse(
	`<p>You have been assigned a new issue.</p>` +
		`<p><b>{{.Title}}</b><br/>{{.Description}}<br/>Location: {{.Location}}<br/>Priority: {{.Priority}}</p>` +
		`<p>Issue ID: {{.ID.Hex}}</p>`))

func NewSES(client SESAPI, sender string) *SES {
	return &SES{client: client, sender: sender}
}

func (s *SES) StaffAssigned(ctx context.Context, staffEmail string, issue *models.Issue) error {
	subject := fmt.Sprintf("New issue assigned: %s", issue.Title)
	var body strings.Builder
	if err := assignedBody.Execute(&body, issue); err != nil {
		return fmt.Errorf("render assignment email: %w", err)
	}

	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{staffEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(body.String())},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send assignment email to %s: %w", staffEmail, err)
	}
	return nil
}

// Nop drops every notification.
type Nop struct{}

func (Nop) StaffAssigned(context.Context, string, *models.Issue) error { return nil }
