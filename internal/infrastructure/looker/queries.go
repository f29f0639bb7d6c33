package looker

import (
	"fmt"

	v4 "github.com/looker-open-source/sdk-codegen/go/sdk/v4"

	"looker-content-cleanup/internal/domain/models"
)

// Field names of the System Activity content_usage explore.
const (
	fieldDashboardID      = "dashboard.id"
	fieldLookID           = "look.id"
	fieldTitle            = "content_usage.content_title"
	fieldContentType      = "content_usage.content_type"
	fieldLastAccessed     = "content_usage.last_accessed_date"
	fieldDashboardDeleted = "dashboard.deleted_date"
	fieldLookDeleted      = "look.deleted_date"
	fieldFolderID         = "folder.id"
	fieldFolderName       = "folder.name"
	fieldDaysInTrash      = "days_since_moved_to_trash"
	fieldLookerError      = "looker_error"
)

const (
	systemActivityModel = "system__activity"
	contentUsageView    = "content_usage"
	queryRowLimit       = "50000"

	notDeletedExpression = "if(is_null(${dashboard.deleted_date}) = no OR is_null(${look.deleted_date}) = no,no,yes)"
	deletedExpression    = "if(is_null(${dashboard.deleted_date}) = no OR is_null(${look.deleted_date}) = no,yes,no)"

	daysInTrashDynamicField = `[{"category":"dimension","expression":"diff_days(coalesce(${dashboard.deleted_date},${look.deleted_date}), now())","label":"Days Since Moved to Trash","value_format":null,"value_format_name":null,"dimension":"days_since_moved_to_trash","_kind_hint":"dimension","_type_hint":"number"}]`
)

// unusedContentQuery selects dashboards and Looks not accessed for more than
// days, excluding trashed, public and dashboard-linked content.
func unusedContentQuery(days int, withFolders bool) v4.WriteQuery {
	fields := []string{
		fieldDashboardID,
		fieldLookID,
		fieldTitle,
		fieldContentType,
		fieldLastAccessed,
	}
	if withFolders {
		fields = append(fields, fieldFolderID, fieldFolderName)
	}
	filters := map[string]interface{}{
		fieldContentType: "dashboard,look",
		"look.public":    "No",
	}
	filters["content_usage.days_since_last_accessed"] = fmt.Sprintf(">%d", days)
	filters["_dashboard_linked_looks.is_used_on_dashboard"] = "No"
	return v4.WriteQuery{
		Model:            systemActivityModel,
		View:             contentUsageView,
		Fields:           &fields,
		Filters:          &filters,
		FilterExpression: ptr(notDeletedExpression),
		Sorts:            &[]string{fieldLastAccessed},
		Limit:            ptr(queryRowLimit),
	}
}

// deletedContentQuery selects dashboards and Looks that have sat in the trash
// for more than days.
func deletedContentQuery(days int, withFolders bool) v4.WriteQuery {
	fields := []string{
		fieldDashboardID,
		fieldLookID,
		fieldTitle,
		fieldContentType,
		fieldLastAccessed,
		fieldDashboardDeleted,
		fieldLookDeleted,
	}
	if withFolders {
		fields = append(fields, fieldFolderID, fieldFolderName)
	}
	filters := map[string]interface{}{
		fieldContentType: "dashboard,look",
		fieldDaysInTrash: fmt.Sprintf(">%d", days),
	}
	return v4.WriteQuery{
		Model:            systemActivityModel,
		View:             contentUsageView,
		Fields:           &fields,
		DynamicFields:    ptr(daysInTrashDynamicField),
		Filters:          &filters,
		FilterExpression: ptr(deletedExpression),
		Sorts:            &[]string{fieldLastAccessed},
		Limit:            ptr(queryRowLimit),
	}
}

// builtinQuery builds the System Activity query for ref. Folder columns are
// optional: notifications fall back to "-" without them.
func builtinQuery(ref models.ReportRef, withFolders bool) (v4.WriteQuery, error) {
	switch ref.Kind {
	case models.ReportUnusedContent:
		return unusedContentQuery(ref.Days, withFolders), nil
	case models.ReportDeletedContent:
		return deletedContentQuery(ref.Days, withFolders), nil
	}
	return v4.WriteQuery{}, fmt.Errorf("unknown report kind %q", ref.Kind)
}
