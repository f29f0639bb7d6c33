// pkg/helper/message.go
package helper

import (
	"fmt"
	"strings"
	"time"

	"looker-content-cleanup/internal/domain/models"
)

const lookMLCaveat = "Note, LookML dashboards are unaffected by this automation, the dashboard lkml file has to be deleted from its LookML project."

// FormatRunMessage builds the notification subject and body for one
// transition of a run. It always produces a message, also for an empty set.
func FormatRunMessage(result *models.RunResult, t models.Transition, now time.Time) (string, string) {
	date := now.Format("2006-01-02")

	label := "Soft"
	if t == models.TransitionHardDelete {
		label = "Hard"
	}
	subject := fmt.Sprintf("[Looker Automation] %s deleted content (%s).", label, date)
	if result.DryRun {
		subject = "[DRY RUN] " + subject
	}

	var b strings.Builder
	fmt.Fprintf(&b, "List of dashboards and Looks that were %s on %s.\n", t.Verb(), date)
	if result.DryRun {
		b.WriteString("Dry run: no content was changed, the items below would have been.\n")
	}
	fmt.Fprintf(&b, "Run: %s (started %s)\n", result.RunID, FormatTime(result.StartedAt, now.Location()))

	succeeded := result.Succeeded(t)
	failed := result.Failed(t)

	fmt.Fprintf(&b, "\n%s (%d):\n", capitalize(t.Verb()), len(succeeded))
	if len(succeeded) == 0 {
		b.WriteString("No content met the threshold.\n")
	}
	for _, item := range succeeded {
		b.WriteString(formatItem(item))
	}

	if len(failed) > 0 {
		fmt.Fprintf(&b, "\nFailed (%d):\n", len(failed))
		for _, o := range result.Outcomes(t) {
			if o.Status == models.StatusFailed {
				fmt.Fprintf(&b, "%s    error: %s\n", formatItem(o.Item), o.Reason)
			}
		}
	}

	if skipped := result.Count(t, models.StatusSkipped); skipped > 0 {
		fmt.Fprintf(&b, "\nSkipped (%d):\n", skipped)
		for _, o := range result.Outcomes(t) {
			if o.Status == models.StatusSkipped {
				fmt.Fprintf(&b, "%s    reason: %s\n", formatItem(o.Item), o.Reason)
			}
		}
	}

	b.WriteString("\n" + lookMLCaveat + "\n")
	return subject, b.String()
}

func formatItem(item models.ContentItem) string {
	return fmt.Sprintf("- %s %s: %q (folder: %s)\n", item.Kind.Title(), item.ID, item.Title, item.Folder())
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
