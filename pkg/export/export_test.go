package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerDataset() Dataset {
	return Dataset{
		Headers: []string{"Request", "Student", "Status"},
		Rows: []map[string]string{
			{"Request": "REQ-2", "Student": "Ana, Cruz", "Status": "APPROVED"},
			{"Request": "REQ-1", "Status": "PENDING"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(registerDataset())
	require.NoError(t, err)
	assert.Equal(t, "Request,Student,Status\nREQ-2,\"Ana, Cruz\",APPROVED\nREQ-1,,PENDING\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestCSVExporterNeutralisesFormulas(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"Request", "Remarks"},
		Rows: []map[string]string{
			{"Request": "REQ-3", "Remarks": "=HYPERLINK(\"x\")"},
			{"Request": "REQ-4", "Remarks": "@SUM(A1)"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Request,Remarks\nREQ-3,\"'=HYPERLINK(\"\"x\"\")\"\nREQ-4,'@SUM(A1)\n", string(out))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(registerDataset(), "Request register")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestClaimSlipPDFRender(t *testing.T) {
	out, err := NewClaimSlipPDF().Render(ClaimSlipContent{
		ClaimNumber:  "REQ-42",
		StudentName:  "Ana Cruz",
		StudentID:    "2021-0042",
		DocumentType: "Transcript of Records",
		Copies:       2,
		DateReady:    "05/22/2024",
		Estimated:    true,
		Instructions: []string{"Bring your ID."},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewClaimSlipPDF().Render(ClaimSlipContent{})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 60))
	assert.Equal(t, "abcde...", truncate("abcdefghijklmnop", 16))
}
