// Package report renders the print-ready HTML compliance report.
package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tradeguard/platform/services/consignment-service/compliance"
	"github.com/tradeguard/platform/services/consignment-service/shipment"
)

//go:embed report.html.tmpl
var templates embed.FS

var page = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.UTC().Format("January 2, 2006 15:04 MST") },
	"upper": func(s compliance.Severity) string { return strings.ToUpper(string(s)) },
	"statusClass": func(s compliance.Status) string {
		return "status-" + strings.ToLower(string(s))
	},
	"riskClass": func(r compliance.RiskLevel) string {
		switch r {
		case compliance.RiskLow:
			return "status-compliant"
		case compliance.RiskHigh:
			return "status-flagged"
		default:
			return "status-pending"
		}
	},
	"severityClass": func(s compliance.Severity) string {
		if s == compliance.SeverityError {
			return "status-flagged"
		}
		return "status-pending"
	},
	"scoreClass": func(score int) string {
		switch {
		case score >= 90:
			return "score-fill-high"
		case score >= 70:
			return "score-fill-medium"
		default:
			return "score-fill-low"
		}
	},
	// negative scores are possible; the bar is not
	"barWidth": func(score int) int { return max(0, min(score, 100)) },
}).ParseFS(templates, "report.html.tmpl"))

type Details struct {
	Origin          string
	Destination     string
	HSCode          string
	ItemDescription string
	PackageCount    int
	TotalWeight     float64
}

type Report struct {
	ID          string
	ShipmentID  string
	GeneratedAt time.Time
	Type        string
	Result      compliance.Result
	Details     Details
	// AutoPrint opens the browser print dialog on load.
	AutoPrint bool
}

// New assembles a report for record r scored as result. id is the
// consignment id when the record is stored, uuid.Nil otherwise.
func New(id uuid.UUID, r shipment.Record, result compliance.Result, now time.Time) Report {
	reportID := "REP-DRAFT"
	if id != uuid.Nil {
		reportID = "REP-" + strings.ToUpper(id.String()[:8])
	}
	hs := shipment.HSCode(r.Classification)
	if c, ok := r.Classification.(shipment.CategoryClassification); ok {
		hs = fmt.Sprintf("%s / %s", c.MainCategory, c.SubCategory)
	}
	return Report{
		ID:          reportID,
		ShipmentID:  r.ShipmentID,
		GeneratedAt: now,
		Type:        "Export",
		Result:      result,
		Details: Details{
			Origin:          r.Origin.Name(),
			Destination:     r.Destination.Name(),
			HSCode:          hs,
			ItemDescription: r.ItemDescription,
			PackageCount:    r.PackageCount,
			TotalWeight:     r.TotalWeight,
		},
		AutoPrint: true,
	}
}

// Render writes the HTML document. Field values are escaped.
func Render(w io.Writer, rep Report) error {
	if err := page.Execute(w, rep); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
