package persistence

import (
	"strconv"
	"strings"
	"time"

	"github.com/sheetplan/backend/internal/domain/planning"
)

// Sheet titles and fixed header rows. Data rows are positional: column order
// must match the header exactly.
const (
	ProjectSheet = "projects"
	TaskSheet    = "tasks"
)

var (
	ProjectHeaders = []string{"id", "name", "owner", "description", "start_date", "end_date", "status", "created_at"}
	TaskHeaders    = []string{"id", "project_id", "depends_on_task_id", "title", "description", "start_date", "end_date", "progress", "status", "priority", "created_at"}
)

// DateLayout is the cell format for calendar dates
const DateLayout = "2006-01-02"

// UntitledTask is the placeholder applied to tasks whose stored title is blank
const UntitledTask = planning.UntitledTitle

// decodeProject normalizes one raw data row into a typed project record.
// Malformed integers fall back to 0, blank optional fields collapse to absent,
// unknown enum values fall back to their default, and a missing or unparsable
// created_at defaults to now.
func decodeProject(row []string, now time.Time) planning.Project {
	row = padRow(row, len(ProjectHeaders))
	return planning.Project{
		ID:          coerceInt(row[0], 0),
		Name:        strings.TrimSpace(row[1]),
		Owner:       optionalText(row[2]),
		Description: optionalText(row[3]),
		StartDate:   optionalDate(row[4]),
		EndDate:     optionalDate(row[5]),
		Status:      planning.ParseProjectStatus(row[6]),
		CreatedAt:   coerceTimestamp(row[7], now),
	}
}

// encodeProject serializes a project into cell strings in header order.
// Absent values become empty strings.
func encodeProject(p planning.Project) []string {
	return []string{
		strconv.Itoa(p.ID),
		strings.TrimSpace(p.Name),
		textOrEmpty(p.Owner),
		textOrEmpty(p.Description),
		dateOrEmpty(p.StartDate),
		dateOrEmpty(p.EndDate),
		string(p.Status),
		p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// decodeTask normalizes one raw data row into a typed task record. A stored
// depends_on_task_id of 0 or blank means no dependency; a blank title decodes
// to the placeholder.
func decodeTask(row []string, now time.Time) planning.Task {
	row = padRow(row, len(TaskHeaders))
	title := strings.TrimSpace(row[3])
	if title == "" {
		title = UntitledTask
	}
	return planning.Task{
		ID:              coerceInt(row[0], 0),
		ProjectID:       coerceInt(row[1], 0),
		DependsOnTaskID: optionalID(row[2]),
		Title:           title,
		Description:     optionalText(row[4]),
		StartDate:       optionalDate(row[5]),
		EndDate:         optionalDate(row[6]),
		Progress:        planning.ClampProgress(coerceInt(row[7], 0)),
		Status:          planning.ParseTaskStatus(row[8]),
		Priority:        planning.ParseTaskPriority(row[9]),
		CreatedAt:       coerceTimestamp(row[10], now),
	}
}

// encodeTask serializes a task into cell strings in header order
func encodeTask(t planning.Task) []string {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = UntitledTask
	}
	dependsOn := ""
	if t.DependsOnTaskID != nil {
		dependsOn = strconv.Itoa(*t.DependsOnTaskID)
	}
	return []string{
		strconv.Itoa(t.ID),
		strconv.Itoa(t.ProjectID),
		dependsOn,
		title,
		textOrEmpty(t.Description),
		dateOrEmpty(t.StartDate),
		dateOrEmpty(t.EndDate),
		strconv.Itoa(t.Progress),
		string(t.Status),
		string(t.Priority),
		t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// padRow extends a short row with empty cells so positional access is safe
func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

func coerceInt(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}

// optionalID treats blank, malformed and non-positive cells as absent
func optionalID(raw string) *int {
	v := coerceInt(raw, 0)
	if v <= 0 {
		return nil
	}
	return &v
}

// optionalText collapses blank or whitespace-only cells to absent
func optionalText(raw string) *string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	return &text
}

func textOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optionalDate(raw string) *time.Time {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	d, err := time.Parse(DateLayout, text)
	if err != nil {
		return nil
	}
	return &d
}

func dateOrEmpty(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(DateLayout)
}

func coerceTimestamp(raw string, now time.Time) time.Time {
	text := strings.TrimSpace(raw)
	if text == "" {
		return now.UTC().Truncate(time.Second)
	}
	t, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return now.UTC().Truncate(time.Second)
	}
	return t
}
