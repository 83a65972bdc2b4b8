package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/appraisily/appraisals-backend/internal/pkg/logger"
	"github.com/appraisily/appraisals-backend/internal/platform/wordpress"
)

// Directive tokens the document template engine expands when the post
// renders. Insertion order is fixed.
var directiveTokens = []string{
	"[pdf_download]",
	"[appraisal_templates]",
}

// shortcodesFlagField is the ACF field recording that insertion
// completed. It only ever transitions false -> true.
const shortcodesFlagField = "shortcodes_inserted"

// InsertionOutcome reports which path EnsureInserted took.
type InsertionOutcome string

const (
	// OutcomeInserted: at least one missing token was appended and the
	// flag was set.
	OutcomeInserted InsertionOutcome = "inserted"
	// OutcomeFlagCorrected: every token was already in the content but
	// the flag was false, so only the flag was written. This happens
	// when an earlier run wrote content and then failed on the flag.
	OutcomeFlagCorrected InsertionOutcome = "flag_corrected"
	// OutcomeAlreadyInserted: the flag was already set; nothing written.
	OutcomeAlreadyInserted InsertionOutcome = "already_inserted"
)

// ShortcodeService inserts directive tokens into a post's content
// exactly once. Token presence in the content is checked independently
// of the completion flag, so a partial failure between the content
// write and the flag write never causes a duplicate insertion on retry.
type ShortcodeService interface {
	EnsureInserted(ctx context.Context, postID int) (InsertionOutcome, error)
}

type shortcodeService struct {
	log *logger.Logger
	wp  wordpress.Client
}

func NewShortcodeService(log *logger.Logger, wp wordpress.Client) ShortcodeService {
	return &shortcodeService{
		log: log.With("service", "ShortcodeService"),
		wp:  wp,
	}
}

func (ss *shortcodeService) EnsureInserted(ctx context.Context, postID int) (InsertionOutcome, error) {
	post, err := ss.wp.GetPost(ctx, postID)
	if err != nil {
		return "", fmt.Errorf("read post %d: %w", postID, err)
	}

	if acfBool(post.ACF[shortcodesFlagField]) {
		ss.log.Debug("Shortcodes already inserted", "post_id", postID)
		return OutcomeAlreadyInserted, nil
	}

	missing := missingTokens(post.Content)
	if len(missing) == 0 {
		if err := ss.setFlag(ctx, postID); err != nil {
			return "", err
		}
		ss.log.Info("Shortcodes present, flag corrected", "post_id", postID)
		return OutcomeFlagCorrected, nil
	}

	content := appendTokens(post.Content, missing)
	if err := ss.wp.UpdatePost(ctx, postID, wordpress.Patch{Content: &content}); err != nil {
		return "", fmt.Errorf("write content for post %d: %w", postID, err)
	}
	// Flag only after the content write succeeded, so the flag can never
	// claim an insertion that did not happen.
	if err := ss.setFlag(ctx, postID); err != nil {
		return "", err
	}
	ss.log.Info("Shortcodes inserted", "post_id", postID, "tokens", len(missing))
	return OutcomeInserted, nil
}

func (ss *shortcodeService) setFlag(ctx context.Context, postID int) error {
	err := ss.wp.UpdatePost(ctx, postID, wordpress.Patch{
		ACF: map[string]any{shortcodesFlagField: true},
	})
	if err != nil {
		return fmt.Errorf("set %s flag for post %d: %w", shortcodesFlagField, postID, err)
	}
	return nil
}

func missingTokens(content string) []string {
	var missing []string
	for _, tok := range directiveTokens {
		if !strings.Contains(content, tok) {
			missing = append(missing, tok)
		}
	}
	return missing
}

func appendTokens(content string, tokens []string) string {
	var b strings.Builder
	b.WriteString(content)
	for _, tok := range tokens {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
		b.WriteString(tok)
	}
	return b.String()
}

// acfBool tolerates the shapes the ACF REST layer returns for a
// boolean field: bool, numeric, or stringly-typed.
func acfBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes":
			return true
		}
	}
	return false
}
