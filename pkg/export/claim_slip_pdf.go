package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// ClaimSlipContent is the printable content of a claim slip.
type ClaimSlipContent struct {
	Office       string
	ClaimNumber  string
	StudentName  string
	StudentID    string
	DocumentType string
	Copies       int
	DateReady    string
	Estimated    bool
	Instructions []string
	GeneratedAt  string
}

// ClaimSlipPDF renders claim slips on a half-letter page.
type ClaimSlipPDF struct{}

// NewClaimSlipPDF constructs the claim slip renderer.
func NewClaimSlipPDF() *ClaimSlipPDF {
	return &ClaimSlipPDF{}
}

// Render produces the PDF bytes of one claim slip.
func (r *ClaimSlipPDF) Render(slip ClaimSlipContent) ([]byte, error) {
	if slip.ClaimNumber == "" {
		return nil, fmt.Errorf("claim slip requires a claim number")
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: 139.7, Ht: 215.9},
	})
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	office := slip.Office
	if office == "" {
		office = "Office of the Registrar"
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, office, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, "DOCUMENT CLAIM SLIP", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	dateReady := slip.DateReady
	if slip.Estimated {
		dateReady += " (estimated)"
	}
	rows := [][2]string{
		{"Claim No.", slip.ClaimNumber},
		{"Student Name", slip.StudentName},
		{"Student ID", slip.StudentID},
		{"Document", slip.DocumentType},
		{"Copies", fmt.Sprintf("%d", slip.Copies)},
		{"Date Ready", dateReady},
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 7, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, row[1], "1", 1, "", false, 0, "")
	}

	if len(slip.Instructions) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 6, "Instructions", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 8)
		for i, line := range slip.Instructions {
			pdf.MultiCell(0, 4.5, fmt.Sprintf("%d. %s", i+1, line), "", "", false)
		}
	}

	if slip.GeneratedAt != "" {
		pdf.Ln(3)
		pdf.SetFont("Arial", "I", 7)
		pdf.CellFormat(0, 4, "Generated "+slip.GeneratedAt, "", 1, "R", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render claim slip: %w", err)
	}
	return buf.Bytes(), nil
}
