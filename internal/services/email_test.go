package services

import (
	"context"
	"testing"

	"github.com/appraisily/appraisals-backend/internal/config"
	"github.com/appraisily/appraisals-backend/internal/platform/sendgrid"
)

type fakeSendGrid struct {
	sent []sendgrid.SendEmailRequest
}

func (f *fakeSendGrid) Send(_ context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	f.sent = append(f.sent, req)
	return &sendgrid.SendEmailResult{StatusCode: 202}, nil
}

func emailFixture() (*fakeSendGrid, EmailService) {
	sg := &fakeSendGrid{}
	cfg := &config.Config{
		SendGridFromEmail:         "noreply@appraisily.com",
		TemplateAppraisalUpdate:   "d-update",
		TemplateAppraisalComplete: "d-complete",
	}
	return sg, NewEmailService(testLogger(), sg, cfg)
}

func TestSendAppraisalUpdate(t *testing.T) {
	sg, es := emailFixture()

	err := es.SendAppraisalUpdate(context.Background(), "cust@example.com", "Alice", "customer notes", "AI notes")
	if err != nil {
		t.Fatalf("SendAppraisalUpdate: %v", err)
	}
	if len(sg.sent) != 1 {
		t.Fatalf("sends: want=1 got=%d", len(sg.sent))
	}
	req := sg.sent[0]
	if req.TemplateID != "d-update" {
		t.Fatalf("template: got=%q", req.TemplateID)
	}
	if req.To[0].Email != "cust@example.com" {
		t.Fatalf("recipient: got=%q", req.To[0].Email)
	}
	data := req.DynamicTemplateData
	if data["customer_name"] != "Alice" ||
		data["customer_description"] != "customer notes" ||
		data["preliminary_description"] != "AI notes" {
		t.Fatalf("template data: %v", data)
	}
}

func TestSendAppraisalCompleted(t *testing.T) {
	sg, es := emailFixture()

	err := es.SendAppraisalCompleted(context.Background(), "cust@example.com", "", "1200", "merged text")
	if err != nil {
		t.Fatalf("SendAppraisalCompleted: %v", err)
	}
	req := sg.sent[0]
	if req.TemplateID != "d-complete" {
		t.Fatalf("template: got=%q", req.TemplateID)
	}
	data := req.DynamicTemplateData
	if data["customer_name"] != "Customer" {
		t.Fatalf("empty name should fall back: %v", data["customer_name"])
	}
	if data["appraisal_value"] != "1200" || data["description"] != "merged text" {
		t.Fatalf("template data: %v", data)
	}
}

func TestSendRequiresRecipient(t *testing.T) {
	sg, es := emailFixture()
	if err := es.SendAppraisalUpdate(context.Background(), "  ", "Alice", "a", "b"); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
	if len(sg.sent) != 0 {
		t.Fatalf("send attempted without recipient")
	}
}
