package workflow

import (
	"sort"
	"strings"

	"github.com/noah-isme/citedocs-api/internal/models"
)

// FilterAll disables the status or document type filter.
const FilterAll = "all"

// RecentLimit caps the "recent" view.
const RecentLimit = 10

// MinSearchLength is the shortest search string that filters anything.
const MinSearchLength = 2

// View selects between the dashboard's recent list and the full list.
type View string

const (
	ViewRecent View = "recent"
	ViewAll    View = "all"
)

// ProjectionQuery describes one rendering of the request list.
type ProjectionQuery struct {
	StatusFilter       string
	DocumentTypeFilter string
	Search             string
	View               View
}

// Project filters, searches, sorts and truncates rows. rows itself is never reordered or mutated.
func Project(rows []models.Request, q ProjectionQuery) []models.Request {
	statusFilter, filterStatus := statusFilterOf(q.StatusFilter)
	docFilter := strings.TrimSpace(q.DocumentTypeFilter)
	filterDoc := docFilter != "" && !strings.EqualFold(docFilter, FilterAll)
	search := strings.ToLower(q.Search)
	filterSearch := len([]rune(q.Search)) >= MinSearchLength

	out := make([]models.Request, 0, len(rows))
	for _, row := range rows {
		if filterStatus && canonicalStatus(row.Status) != statusFilter {
			continue
		}
		if filterDoc && row.DocumentType.Name != docFilter {
			continue
		}
		if filterSearch && !matchesSearch(row, search) {
			continue
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RequestID > out[j].RequestID
	})

	if q.View == ViewRecent && len(out) > RecentLimit {
		out = out[:RecentLimit]
	}
	return out
}

func statusFilterOf(raw string) (models.RequestStatus, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, FilterAll) {
		return "", false
	}
	status, ok := models.ParseRequestStatus(raw)
	if !ok {
		// unknown filters match nothing rather than everything
		return models.RequestStatus(strings.ToUpper(raw)), true
	}
	return status, true
}

func canonicalStatus(status models.RequestStatus) models.RequestStatus {
	if parsed, ok := models.ParseRequestStatus(string(status)); ok {
		return parsed
	}
	return status
}

func matchesSearch(row models.Request, needle string) bool {
	fields := []string{
		row.StudentName,
		row.StudentID,
		row.DocumentType.Name,
		FormatRequestID(row.RequestID),
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
