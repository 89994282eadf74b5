package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/pkg/client"
	"github.com/noah-isme/citedocs-api/pkg/response"
)

func TestParseRequestID(t *testing.T) {
	id, err := parseRequestID("REQ-42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = parseRequestID(" 7 ")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = parseRequestID("REQ-")
	assert.Error(t, err)
	_, err = parseRequestID("-3")
	assert.Error(t, err)
}

func TestRenderRows(t *testing.T) {
	ready := models.NewDate(time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))
	rows := []client.Row{{
		Request: models.Request{
			RequestID:    12,
			StudentName:  "Ana Cruz",
			StudentID:    "2021-001",
			DocumentType: models.DocumentType{Name: "Transcript of Records"},
			Copies:       2,
			DateNeeded:   models.NewDate(time.Date(2024, 5, 25, 0, 0, 0, 0, time.UTC)),
			Status:       models.RequestStatusApproved,
			DateReady:    &ready,
		},
		Payment: &models.Payment{OriginalName: "receipt.png"},
	}}

	var out bytes.Buffer
	require.NoError(t, renderRows(&out, rows))
	text := out.String()
	assert.Contains(t, text, "REQ-12")
	assert.Contains(t, text, "Ana Cruz (2021-001)")
	assert.Contains(t, text, "2024-05-20")
	assert.Contains(t, text, "receipt.png")

	out.Reset()
	require.NoError(t, renderRows(&out, nil))
	assert.Equal(t, "No requests found.\n", out.String())
}

func TestRenderSlipMarksEstimate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, renderSlip(&out, &models.ClaimSlip{
		ClaimNumber:        "REQ-5",
		DateReady:          models.NewDate(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)),
		DateReadyEstimated: true,
		Instructions:       []string{"Bring a valid ID."},
	}))
	assert.Contains(t, out.String(), "CLAIM SLIP REQ-5")
	assert.Contains(t, out.String(), "2024-05-10 (estimated)")
	assert.Contains(t, out.String(), "- Bring a valid ID.")
}

func TestListCommandAgainstBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/requests", func(c *gin.Context) {
		response.JSON(c, http.StatusOK, []models.Request{{RequestID: 3, StudentName: "Ben", Status: models.RequestStatusPending}}, nil)
	})
	r.GET("/api/payments/request/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "no proof of payment for request", "status": 404}})
	})
	server := httptest.NewServer(r)
	defer server.Close()

	var out bytes.Buffer
	cmd := rootCmd(&out)
	cmd.SetArgs([]string{"list", "--base-url", server.URL + "/api", "--token", "tok", "--status", "pending"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "REQ-3")
	assert.Contains(t, out.String(), "none")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "registrarctl version "+version+"\n", out.String())
}
