package looker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"looker-content-cleanup/internal/domain/models"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// lookerError is an error row returned by run_query in place of results.
type lookerError struct {
	message string
}

func (e *lookerError) Error() string { return "looker error: " + e.message }

// mentionsFolder reports whether the error is about the optional folder fields.
func (e *lookerError) mentionsFolder() bool {
	return strings.Contains(e.message, fieldFolderID) || strings.Contains(e.message, fieldFolderName)
}

// decodeRows parses a run_query JSON result into content items. Rows for
// unsupported content types or without an id are dropped; the second return
// value counts them.
func decodeRows(raw string) ([]models.ContentItem, int, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var rows []map[string]interface{}
	if err := dec.Decode(&rows); err != nil {
		return nil, 0, fmt.Errorf("failed to parse query result: %w", err)
	}

	items := make([]models.ContentItem, 0, len(rows))
	dropped := 0
	for i, row := range rows {
		if msg, ok := row[fieldLookerError]; ok {
			return nil, 0, &lookerError{message: stringValue(msg)}
		}

		item, ok, err := decodeRow(row)
		if err != nil {
			return nil, 0, fmt.Errorf("row %d: %w", i, err)
		}
		if !ok {
			dropped++
			continue
		}
		items = append(items, item)
	}
	return items, dropped, nil
}

func decodeRow(row map[string]interface{}) (models.ContentItem, bool, error) {
	kind, err := models.ParseKind(stringValue(row[fieldContentType]))
	if err != nil {
		return models.ContentItem{}, false, nil
	}

	idField, deletedField := fieldDashboardID, fieldDashboardDeleted
	if kind == models.KindLook {
		idField, deletedField = fieldLookID, fieldLookDeleted
	}

	id := stringValue(row[idField])
	if id == "" {
		return models.ContentItem{}, false, nil
	}

	item := models.ContentItem{
		ID:         id,
		Kind:       kind,
		Title:      stringValue(row[fieldTitle]),
		FolderID:   stringValue(row[fieldFolderID]),
		FolderName: stringValue(row[fieldFolderName]),
	}

	if item.LastAccessedAt, err = parseDate(row[fieldLastAccessed]); err != nil {
		return models.ContentItem{}, false, fmt.Errorf("%s: %w", fieldLastAccessed, err)
	}

	deletedAt, err := parseDate(row[deletedField])
	if err != nil {
		return models.ContentItem{}, false, fmt.Errorf("%s: %w", deletedField, err)
	}
	if !deletedAt.IsZero() {
		item.DeletedAt = &deletedAt
	}

	if v := stringValue(row[fieldDaysInTrash]); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return models.ContentItem{}, false, fmt.Errorf("%s: %w", fieldDaysInTrash, err)
		}
		days := int(f)
		item.DaysInTrash = &days
	}

	return item, true, nil
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func parseDate(v interface{}) (time.Time, error) {
	s := stringValue(v)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date " + strconv.Quote(s))
}
