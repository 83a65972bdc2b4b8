package services

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/appraisily/appraisals-backend/internal/pkg/logger"
	"github.com/appraisily/appraisals-backend/internal/platform/openai"
	"github.com/appraisily/appraisals-backend/internal/platform/sheets"
	"github.com/appraisily/appraisals-backend/internal/platform/wordpress"
	"github.com/appraisily/appraisals-backend/internal/types"
)

// Placeholder descriptions written when the enrichment collaborator is
// gated off or fails. Optional steps never abort the pipeline.
const (
	descServiceUnavailable    = "AI service unavailable"
	descGenerationUnavailable = "AI description unavailable"
	titlePending              = "Pending Analysis"
	titlePrefix               = "Preliminary Analysis: "
)

// PipelineService runs the multi-system update for one trigger request.
// It executes detached from the request that queued it; the caller has
// already been acknowledged, so failures surface only through logs.
//
// Step order is fixed: enrichment, content-backend title, row
// resolution, tabular writes, notification. Enrichment and notification
// are best-effort; title, resolution and the tabular writes are
// required, and a required failure aborts the remaining steps without
// rolling back writes already applied.
type PipelineService interface {
	ProcessPendingUpdate(ctx context.Context, req types.UpdatePendingRequest) error
}

type pipelineService struct {
	log       *logger.Logger
	caps      Capabilities
	ai        openai.Client
	wp        wordpress.Client
	sheets    sheets.Client
	resolver  ResolverService
	email     EmailService
	sheetName string
}

func NewPipelineService(
	log *logger.Logger,
	caps Capabilities,
	ai openai.Client,
	wp wordpress.Client,
	sheetsClient sheets.Client,
	resolver ResolverService,
	email EmailService,
	sheetName string,
) PipelineService {
	return &pipelineService{
		log:       log.With("service", "PipelineService"),
		caps:      caps,
		ai:        ai,
		wp:        wp,
		sheets:    sheetsClient,
		resolver:  resolver,
		email:     email,
		sheetName: sheetName,
	}
}

func (ps *pipelineService) ProcessPendingUpdate(ctx context.Context, req types.UpdatePendingRequest) error {
	log := ps.log.With("session_id", req.SessionID, "post_id", req.PostID)

	// Step 1: enrichment, best-effort.
	aiDescription := ps.generateDescription(ctx, log, req.MainImage())

	// Step 2: content-backend title. The placeholder descriptions title
	// the post like any other enrichment result; only an empty one falls
	// back to the pending title.
	title := titlePending
	if aiDescription != "" {
		title = titlePrefix + aiDescription
	}
	if err := ps.wp.UpdatePost(ctx, req.PostID, wordpress.Patch{Title: &title}); err != nil {
		return fmt.Errorf("update post title: %w", err)
	}

	// Step 3: row resolution. Not found is terminal for this execution.
	row, customerName, err := ps.resolver.FindBySessionID(ctx, req.SessionID)
	if err != nil {
		return fmt.Errorf("resolve row: %w", err)
	}

	// Step 4: tabular writes. The three columns are disjoint, so the
	// writes run concurrently. One failing does not cancel its siblings;
	// each write completes or reports its own failure.
	imagesJSON, err := json.Marshal(req.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	var g errgroup.Group
	writes := []struct {
		col   int
		value string
	}{
		{types.ColAIDescription, aiDescription},
		{types.ColCustomerDescription, req.Description},
		{types.ColImages, string(imagesJSON)},
	}
	for _, w := range writes {
		cell := types.Cell(ps.sheetName, w.col, row)
		value := w.value
		g.Go(func() error {
			if err := ps.sheets.UpdateValues(ctx, cell, [][]any{{value}}); err != nil {
				log.Error("Failed to write column", "range", cell, "error", err)
				return fmt.Errorf("write %s: %w", cell, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("update row %d: %w", row, err)
	}

	// Step 5: notification, best-effort.
	if ps.caps.Email() {
		if err := ps.email.SendAppraisalUpdate(ctx, req.CustomerEmail, customerName, req.Description, aiDescription); err != nil {
			log.Error("Failed to send update notification", "error", err)
		}
	}

	log.Info("Pending appraisal update processed", "row", row)
	return nil
}

func (ps *pipelineService) generateDescription(ctx context.Context, log *logger.Logger, imageURL string) string {
	if !ps.caps.AI() {
		return descServiceUnavailable
	}
	desc, err := ps.ai.DescribeImage(ctx, imageURL)
	if err != nil {
		log.Error("Failed to generate AI description", "error", err)
		return descGenerationUnavailable
	}
	return desc
}
