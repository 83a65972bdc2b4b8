package sheets

import (
	"context"
	"fmt"
	"strings"

	sheetsv4 "google.golang.org/api/sheets/v4"

	"github.com/appraisily/appraisals-backend/internal/pkg/ctxutil"
	"github.com/appraisily/appraisals-backend/internal/pkg/logger"
)

// Client is the tabular-store adapter. Ranges use A1 notation and are
// always resolved against the single configured spreadsheet.
type Client interface {
	GetValues(ctx context.Context, a1Range string) ([][]string, error)
	UpdateValues(ctx context.Context, a1Range string, values [][]any) error
}

type client struct {
	log           *logger.Logger
	svc           *sheetsv4.Service
	spreadsheetID string
}

func New(ctx context.Context, log *logger.Logger, spreadsheetID string) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, fmt.Errorf("missing spreadsheet id")
	}
	svc, err := sheetsv4.NewService(ctxutil.Default(ctx))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &client{
		log:           log.With("client", "SheetsClient"),
		svc:           svc,
		spreadsheetID: spreadsheetID,
	}, nil
}

func (c *client) GetValues(ctx context.Context, a1Range string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, a1Range).
		Context(ctxutil.Default(ctx)).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets get %q: %w", a1Range, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (c *client) UpdateValues(ctx context.Context, a1Range string, values [][]any) error {
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1Range, &sheetsv4.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctxutil.Default(ctx)).Do()
	if err != nil {
		return fmt.Errorf("sheets update %q: %w", a1Range, err)
	}
	return nil
}
