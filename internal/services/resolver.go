package services

import (
	"context"
	"fmt"

	apperrors "github.com/appraisily/appraisals-backend/internal/pkg/errors"
	"github.com/appraisily/appraisals-backend/internal/pkg/logger"
	"github.com/appraisily/appraisals-backend/internal/platform/sheets"
	"github.com/appraisily/appraisals-backend/internal/types"
)

// ResolverService locates appraisal rows in the spreadsheet. Lookup by
// session id is a linear scan in natural row order (oldest first); the
// store has no index, which is acceptable at its scale.
type ResolverService interface {
	// FindBySessionID returns the sheet row number and customer name of
	// the first row whose session-id column matches. A missing key is a
	// normal outcome and comes back as errors.ErrNotFound.
	FindBySessionID(ctx context.Context, sessionID string) (int, string, error)
	// GetRow fetches one record by its sheet row number.
	GetRow(ctx context.Context, row int) (*types.Appraisal, error)
	// ListAll returns every data row in sheet order.
	ListAll(ctx context.Context) ([]types.Appraisal, error)
}

type resolverService struct {
	log       *logger.Logger
	sheets    sheets.Client
	sheetName string
}

func NewResolverService(log *logger.Logger, sheetsClient sheets.Client, sheetName string) ResolverService {
	return &resolverService{
		log:       log.With("service", "ResolverService"),
		sheets:    sheetsClient,
		sheetName: sheetName,
	}
}

func (rs *resolverService) FindBySessionID(ctx context.Context, sessionID string) (int, string, error) {
	if sessionID == "" {
		return 0, "", fmt.Errorf("session id: %w", apperrors.ErrInvalidArgument)
	}
	rows, err := rs.sheets.GetValues(ctx, types.ScanRange(rs.sheetName))
	if err != nil {
		return 0, "", fmt.Errorf("scan rows: %w", err)
	}
	for i, cells := range rows {
		if cellAt(cells, types.ColSessionID) != sessionID {
			continue
		}
		row := i + types.DataStartRow
		return row, cellAt(cells, types.ColCustomerName), nil
	}
	return 0, "", fmt.Errorf("session id %q: %w", sessionID, apperrors.ErrNotFound)
}

func (rs *resolverService) GetRow(ctx context.Context, row int) (*types.Appraisal, error) {
	if row < types.DataStartRow {
		return nil, fmt.Errorf("row %d: %w", row, apperrors.ErrInvalidArgument)
	}
	rows, err := rs.sheets.GetValues(ctx, types.RowRange(rs.sheetName, row))
	if err != nil {
		return nil, fmt.Errorf("get row %d: %w", row, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("row %d: %w", row, apperrors.ErrNotFound)
	}
	a := types.AppraisalFromRow(row, rows[0])
	return &a, nil
}

func (rs *resolverService) ListAll(ctx context.Context) ([]types.Appraisal, error) {
	rows, err := rs.sheets.GetValues(ctx, types.ScanRange(rs.sheetName))
	if err != nil {
		return nil, fmt.Errorf("scan rows: %w", err)
	}
	out := make([]types.Appraisal, 0, len(rows))
	for i, cells := range rows {
		out = append(out, types.AppraisalFromRow(i+types.DataStartRow, cells))
	}
	return out, nil
}

func cellAt(cells []string, idx int) string {
	if idx < len(cells) {
		return cells[idx]
	}
	return ""
}
