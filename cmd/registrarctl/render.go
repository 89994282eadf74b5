package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/noah-isme/citedocs-api/internal/models"
	"github.com/noah-isme/citedocs-api/internal/workflow"
	"github.com/noah-isme/citedocs-api/pkg/client"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func renderRows(out io.Writer, rows []client.Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, "No requests found.")
		return err
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tSTUDENT\tDOCUMENT\tCOPIES\tNEEDED\tSTATUS\tREADY\tPAYMENT")
	for _, row := range rows {
		req := row.Request
		ready := "-"
		if req.DateReady != nil {
			ready = req.DateReady.String()
		}
		payment := "none"
		if row.Payment != nil {
			payment = row.Payment.OriginalName
		}
		fmt.Fprintf(tw, "%s\t%s (%s)\t%s\t%d\t%s\t%s\t%s\t%s\n",
			workflow.FormatRequestID(req.RequestID), req.StudentName, req.StudentID, req.DocumentType.Name,
			req.Copies, req.DateNeeded.String(), req.Status, ready, payment)
	}
	return tw.Flush()
}

func renderLogs(out io.Writer, entries []models.StatusLogEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "No status changes recorded.")
		return err
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "WHEN\tREQUEST\tFROM\tTO\tBY\tREMARKS")
	for _, e := range entries {
		from := "-"
		if e.OldStatus != nil {
			from = string(*e.OldStatus)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ChangedAt.Format(workflow.AbsoluteDateLayout), workflow.FormatRequestID(e.RequestID),
			from, e.NewStatus, deref(e.ChangedByName), deref(e.Remarks))
	}
	return tw.Flush()
}

func renderActivity(out io.Writer, items []models.ActivityItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "No recent activity.")
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(out, "[%s] %s: %s\n", item.RelativeTime, item.Title, item.Message); err != nil {
			return err
		}
	}
	return nil
}

func renderDocuments(out io.Writer, docs []models.DocumentType) error {
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tNAME\tFEE\tACTIVE")
	for _, d := range docs {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%t\n", d.DocumentID, d.Name, d.Fee, d.Active)
	}
	return tw.Flush()
}

func renderSlip(out io.Writer, slip *models.ClaimSlip) error {
	ready := slip.DateReady.String()
	if slip.DateReadyEstimated {
		ready += " (estimated)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "CLAIM SLIP %s\n", slip.ClaimNumber)
	fmt.Fprintf(&b, "Student:  %s (%s)\n", slip.StudentName, slip.StudentID)
	fmt.Fprintf(&b, "Document: %s x%d\n", slip.DocumentType, slip.Copies)
	fmt.Fprintf(&b, "Status:   %s\n", slip.Status)
	fmt.Fprintf(&b, "Ready:    %s\n", ready)
	for _, line := range slip.Instructions {
		fmt.Fprintf(&b, "  - %s\n", line)
	}
	_, err := io.WriteString(out, b.String())
	return err
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
