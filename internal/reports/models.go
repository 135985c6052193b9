package reports

import (
	"github.com/fdg312/nutrition-ledger/internal/datekey"
	"github.com/fdg312/nutrition-ledger/internal/status"
)

// Constants for validation
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

// ExportRequest describes an inclusive date range to export.
type ExportRequest struct {
	From   string `json:"from"`   // DD.MM.YYYY or YYYY-MM-DD
	To     string `json:"to"`     // DD.MM.YYYY or YYYY-MM-DD
	Format string `json:"format"` // "pdf" or "csv"
}

// DayRow is one exported day. Days without a ledger appear with zero values.
type DayRow struct {
	Date         datekey.Key
	Calories     float64
	Protein      float64
	Fat          float64
	Carbs        float64
	Sugar        float64
	Fiber        float64
	SaturatedFat float64
	EntryCount   int
	Goal         float64
	Status       status.Status
}

// Export is a rendered document.
type Export struct {
	Format      string
	From        datekey.Key
	To          datekey.Key
	Data        []byte
	ContentType string
	Filename    string
}

// PublishResponse is returned by POST /v1/reports/publish.
type PublishResponse struct {
	Format      string `json:"format"`
	From        string `json:"from"`
	To          string `json:"to"`
	ObjectKey   string `json:"object_key"`
	DownloadURL string `json:"download_url"`
	SizeBytes   int64  `json:"size_bytes"`
	ExpiresIn   int    `json:"expires_in"`
}

func contentTypeFor(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}
