package workflow

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/citedocs-api/internal/models"
)

// FeedLimit caps the number of activity items rendered.
const FeedLimit = 10

// AbsoluteDateLayout is used once an entry is a week old.
const AbsoluteDateLayout = "01/02/2006"

const fallbackDocumentName = "document"

// FormatActivity renders the newest entries as feed items worded for audience.
// Relative times are measured against now on every call.
func FormatActivity(entries []models.StatusLogEntry, audience models.Audience, now time.Time) []models.ActivityItem {
	sorted := make([]models.StatusLogEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].ChangedAt.Equal(sorted[j].ChangedAt) {
			return sorted[i].ChangedAt.After(sorted[j].ChangedAt)
		}
		return sorted[i].LogID > sorted[j].LogID
	})
	if len(sorted) > FeedLimit {
		sorted = sorted[:FeedLimit]
	}

	items := make([]models.ActivityItem, 0, len(sorted))
	for _, entry := range sorted {
		title, message := DescribeEntry(entry, audience)
		items = append(items, models.ActivityItem{
			LogID:        entry.LogID,
			RequestID:    entry.RequestID,
			Title:        title,
			Message:      message,
			Status:       entry.NewStatus,
			ChangedAt:    entry.ChangedAt,
			RelativeTime: RelativeTime(entry.ChangedAt, now),
		})
	}
	return items
}

// DescribeEntry picks the title and message template for one log entry.
func DescribeEntry(entry models.StatusLogEntry, audience models.Audience) (string, string) {
	subject := fmt.Sprintf("%s (%s)", FormatRequestID(entry.RequestID), documentName(entry))
	by := ""
	if entry.ChangedByName != nil && *entry.ChangedByName != "" {
		by = " by Staff " + *entry.ChangedByName
	}

	student := audience != models.AudienceRegistrar
	owner := subject
	if student {
		owner = "Your " + subject
	}

	if entry.IsSubmission() {
		if student {
			return "Request Submitted", "You submitted " + subject
		}
		return "Request Submitted", subject + " was submitted"
	}

	status, _ := models.ParseRequestStatus(string(entry.NewStatus))
	switch status {
	case models.RequestStatusProcessing:
		return "Request Processing", owner + " is now being processed" + by + "."
	case models.RequestStatusApproved:
		return "Request Approved", owner + " has been approved" + by + ". It is now ready for pick up."
	case models.RequestStatusCompleted:
		return "Request Completed", owner + " has been picked up" + by + "."
	case models.RequestStatusRejected:
		return "Request Rejected", owner + " has been rejected" + by + "."
	default:
		return "Request Status Changed", owner + " status updated to " + string(entry.NewStatus) + by
	}
}

// RelativeTime renders the age of t at now in minute, hour and day buckets.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		return plural(int(diff/time.Minute), "minute")
	}
	if diff < 24*time.Hour {
		return plural(int(diff/time.Hour), "hour")
	}
	if diff < 7*24*time.Hour {
		return plural(int(diff/(24*time.Hour)), "day")
	}
	return t.Format(AbsoluteDateLayout)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func documentName(entry models.StatusLogEntry) string {
	if entry.DocumentName == "" {
		return fallbackDocumentName
	}
	return entry.DocumentName
}
