package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/appraisily/appraisals-backend/internal/config"
	"github.com/appraisily/appraisals-backend/internal/pkg/logger"
	"github.com/appraisily/appraisals-backend/internal/platform/sendgrid"
)

// EmailService sends the two customer notifications this system knows
// about. Both are dynamic-template sends.
type EmailService interface {
	SendAppraisalUpdate(ctx context.Context, to, customerName, description, aiDescription string) error
	SendAppraisalCompleted(ctx context.Context, to, customerName, value, description string) error
}

type emailService struct {
	log                 *logger.Logger
	sg                  sendgrid.Client
	fromEmail           string
	updateTemplateID    string
	completedTemplateID string
}

func NewEmailService(log *logger.Logger, sg sendgrid.Client, cfg *config.Config) EmailService {
	return &emailService{
		log:                 log.With("service", "EmailService"),
		sg:                  sg,
		fromEmail:           cfg.SendGridFromEmail,
		updateTemplateID:    cfg.TemplateAppraisalUpdate,
		completedTemplateID: cfg.TemplateAppraisalComplete,
	}
}

func (es *emailService) SendAppraisalUpdate(ctx context.Context, to, customerName, description, aiDescription string) error {
	return es.send(ctx, to, es.updateTemplateID, map[string]any{
		"customer_name":           fallbackName(customerName),
		"customer_description":    description,
		"preliminary_description": aiDescription,
	})
}

func (es *emailService) SendAppraisalCompleted(ctx context.Context, to, customerName, value, description string) error {
	return es.send(ctx, to, es.completedTemplateID, map[string]any{
		"customer_name":   fallbackName(customerName),
		"appraisal_value": value,
		"description":     description,
	})
}

func (es *emailService) send(ctx context.Context, to, templateID string, data map[string]any) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("email: recipient required")
	}
	res, err := es.sg.Send(ctx, sendgrid.SendEmailRequest{
		From:                sendgrid.EmailAddress{Email: es.fromEmail, Name: "Appraisily"},
		To:                  []sendgrid.EmailAddress{{Email: strings.TrimSpace(to)}},
		TemplateID:          templateID,
		DynamicTemplateData: data,
		Categories:          []string{"appraisal"},
	})
	if err != nil {
		return err
	}
	es.log.Debug("Notification sent", "template_id", templateID, "status", res.StatusCode)
	return nil
}

func fallbackName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Customer"
	}
	return strings.TrimSpace(name)
}
