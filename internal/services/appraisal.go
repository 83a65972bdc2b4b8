package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/appraisily/appraisals-backend/internal/pkg/logger"
	"github.com/appraisily/appraisals-backend/internal/platform/pubsub"
	"github.com/appraisily/appraisals-backend/internal/platform/sheets"
	"github.com/appraisily/appraisals-backend/internal/platform/wordpress"
	"github.com/appraisily/appraisals-backend/internal/types"
)

// AppraisalService covers the operator-facing record operations: list,
// inspect, update and complete. Completion is the flow that injects
// rendering directives into the customer-facing document.
type AppraisalService interface {
	List(ctx context.Context) ([]types.Appraisal, error)
	Get(ctx context.Context, row int) (*types.Appraisal, error)
	SetValue(ctx context.Context, row int, value, description string) error
	Complete(ctx context.Context, row int, value, description string) error
}

type appraisalService struct {
	log        *logger.Logger
	caps       Capabilities
	sheets     sheets.Client
	wp         wordpress.Client
	resolver   ResolverService
	shortcodes ShortcodeService
	merger     DescriptionMerger
	email      EmailService
	events     pubsub.Publisher
	sheetName  string
}

// DescriptionMerger combines the generated and appraiser descriptions.
// Satisfied by the OpenAI client; a plain concatenation stands in when
// enrichment is gated off.
type DescriptionMerger interface {
	MergeDescriptions(ctx context.Context, aiDescription, appraiserDescription string) (string, error)
}

func NewAppraisalService(
	log *logger.Logger,
	caps Capabilities,
	sheetsClient sheets.Client,
	wp wordpress.Client,
	resolver ResolverService,
	shortcodes ShortcodeService,
	merger DescriptionMerger,
	email EmailService,
	events pubsub.Publisher,
	sheetName string,
) AppraisalService {
	return &appraisalService{
		log:        log.With("service", "AppraisalService"),
		caps:       caps,
		sheets:     sheetsClient,
		wp:         wp,
		resolver:   resolver,
		shortcodes: shortcodes,
		merger:     merger,
		email:      email,
		events:     events,
		sheetName:  sheetName,
	}
}

func (s *appraisalService) List(ctx context.Context) ([]types.Appraisal, error) {
	return s.resolver.ListAll(ctx)
}

func (s *appraisalService) Get(ctx context.Context, row int) (*types.Appraisal, error) {
	return s.resolver.GetRow(ctx, row)
}

func (s *appraisalService) SetValue(ctx context.Context, row int, value, description string) error {
	rangeRef := fmt.Sprintf("%s!%s%d:%s%d",
		s.sheetName,
		types.ColumnLetter(types.ColCustomerDescription), row,
		types.ColumnLetter(types.ColValue), row,
	)
	if err := s.sheets.UpdateValues(ctx, rangeRef, [][]any{{description, value}}); err != nil {
		return fmt.Errorf("set value for row %d: %w", row, err)
	}
	return nil
}

// Complete runs the appraisal completion flow. Required steps run
// first and in order; status flips to Completed only after every
// required write landed. Notification and the completion event are
// best-effort.
func (s *appraisalService) Complete(ctx context.Context, row int, value, description string) error {
	record, err := s.resolver.GetRow(ctx, row)
	if err != nil {
		return fmt.Errorf("load row %d: %w", row, err)
	}
	if record.Status == types.StatusCompleted {
		s.log.Info("Appraisal already completed", "row", row)
		return nil
	}

	postID, err := types.ExtractPostID(record.PostURL)
	if err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}

	if err := s.SetValue(ctx, row, value, description); err != nil {
		return err
	}

	merged := s.mergeDescriptions(ctx, record.AIDescription, description)
	mergedCell := types.Cell(s.sheetName, types.ColMergedDescription, row)
	if err := s.sheets.UpdateValues(ctx, mergedCell, [][]any{{merged}}); err != nil {
		return fmt.Errorf("write merged description for row %d: %w", row, err)
	}

	if err := s.wp.UpdatePost(ctx, postID, wordpress.Patch{
		ACF: map[string]any{"value": value},
	}); err != nil {
		return fmt.Errorf("write value to post %d: %w", postID, err)
	}

	outcome, err := s.shortcodes.EnsureInserted(ctx, postID)
	if err != nil {
		return fmt.Errorf("insert shortcodes for post %d: %w", postID, err)
	}

	statusCell := types.Cell(s.sheetName, types.ColStatus, row)
	if err := s.sheets.UpdateValues(ctx, statusCell, [][]any{{string(types.StatusCompleted)}}); err != nil {
		return fmt.Errorf("mark row %d completed: %w", row, err)
	}

	if s.caps.Email() {
		if err := s.email.SendAppraisalCompleted(ctx, record.CustomerEmail, record.CustomerName, value, merged); err != nil {
			s.log.Error("Failed to send completion notification", "row", row, "error", err)
		}
	}
	if s.caps.Events() {
		if err := s.events.PublishCompleted(ctx, pubsub.CompletedEvent{
			SessionID:     record.SessionID,
			Row:           row,
			PostID:        postID,
			CustomerEmail: record.CustomerEmail,
			CompletedAt:   time.Now().UTC(),
		}); err != nil {
			s.log.Error("Failed to publish completion event", "row", row, "error", err)
		}
	}

	s.log.Info("Appraisal completed", "row", row, "post_id", postID, "shortcodes", string(outcome))
	return nil
}

func (s *appraisalService) mergeDescriptions(ctx context.Context, aiDescription, appraiserDescription string) string {
	ai := strings.TrimSpace(aiDescription)
	human := strings.TrimSpace(appraiserDescription)
	if s.caps.AI() && s.merger != nil {
		merged, err := s.merger.MergeDescriptions(ctx, ai, human)
		if err == nil && strings.TrimSpace(merged) != "" {
			return strings.TrimSpace(merged)
		}
		if err != nil {
			s.log.Warn("Description merge failed, falling back to concatenation", "error", err)
		}
	}
	switch {
	case ai == "":
		return human
	case human == "":
		return ai
	default:
		return human + "\n\n" + ai
	}
}
