package types

import (
	"fmt"
	"strings"
)

// Status is the workflow state recorded in the status column.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
)

// Sheet column layout for the pending-appraisals spreadsheet. Row 1 is
// the header; data starts at row 2. Rows are append-only, so a row
// number stays valid for the record's lifetime and doubles as its id.
const (
	ColDate                = 0  // A
	ColAppraisalType       = 1  // B
	ColSessionID           = 2  // C
	ColCustomerEmail       = 3  // D
	ColCustomerName        = 4  // E
	ColStatus              = 5  // F
	ColPostURL             = 6  // G
	ColAIDescription       = 7  // H
	ColCustomerDescription = 8  // I
	ColValue               = 9  // J
	// K is reserved by the intake process.
	ColMergedDescription = 11 // L
	ColPDFLink           = 12 // M
	ColDocLink           = 13 // N
	ColImages            = 14 // O
)

// DataStartRow is the first sheet row holding a record.
const DataStartRow = 2

// ScanRange covers every data row across all record columns.
func ScanRange(sheetName string) string {
	return sheetName + "!A2:O"
}

// ColumnLetter converts a zero-based column index to its A1 letter.
// The layout never goes past column Z.
func ColumnLetter(idx int) string {
	return string(rune('A' + idx))
}

// Cell builds an A1 reference for a single cell.
func Cell(sheetName string, col, row int) string {
	return fmt.Sprintf("%s!%s%d", sheetName, ColumnLetter(col), row)
}

// RowRange builds an A1 reference covering one full record row.
func RowRange(sheetName string, row int) string {
	return fmt.Sprintf("%s!A%d:O%d", sheetName, row, row)
}

// Appraisal is one spreadsheet row. ID is the 1-based sheet row number.
type Appraisal struct {
	ID                  int    `json:"id"`
	Date                string `json:"date"`
	AppraisalType       string `json:"appraisalType"`
	SessionID           string `json:"identifier"`
	CustomerEmail       string `json:"email"`
	CustomerName        string `json:"customerName"`
	Status              Status `json:"status"`
	PostURL             string `json:"wordpressUrl"`
	AIDescription       string `json:"iaDescription"`
	CustomerDescription string `json:"customerDescription"`
	Value               string `json:"appraisalValue"`
	MergedDescription   string `json:"mergedDescription"`
	PDFLink             string `json:"pdfLink"`
	DocLink             string `json:"docLink"`
	ImagesJSON          string `json:"images"`
}

// AppraisalFromRow maps a sheet row onto an Appraisal. Short rows are
// tolerated; missing trailing cells read as empty strings.
func AppraisalFromRow(rowNumber int, cells []string) Appraisal {
	at := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	return Appraisal{
		ID:                  rowNumber,
		Date:                at(ColDate),
		AppraisalType:       at(ColAppraisalType),
		SessionID:           at(ColSessionID),
		CustomerEmail:       at(ColCustomerEmail),
		CustomerName:        at(ColCustomerName),
		Status:              Status(at(ColStatus)),
		PostURL:             at(ColPostURL),
		AIDescription:       at(ColAIDescription),
		CustomerDescription: at(ColCustomerDescription),
		Value:               at(ColValue),
		MergedDescription:   at(ColMergedDescription),
		PDFLink:             at(ColPDFLink),
		DocLink:             at(ColDocLink),
		ImagesJSON:          at(ColImages),
	}
}

// UpdatePendingRequest is the machine-caller trigger payload.
type UpdatePendingRequest struct {
	Description   string            `json:"description"`
	Images        map[string]string `json:"images"`
	PostID        int               `json:"post_id"`
	PostEditURL   string            `json:"post_edit_url"`
	CustomerEmail string            `json:"customer_email"`
	SessionID     string            `json:"session_id"`
}

// MainImage normalizes the primary image reference and returns its
// URL. Enrichment needs a fetchable address, so references that
// resolve to a bare media id (or not at all) read as absent.
func (r UpdatePendingRequest) MainImage() string {
	src, err := ResolveImageRef(r.Images["main"])
	if err != nil || src.URL == "" {
		return ""
	}
	return src.URL
}
