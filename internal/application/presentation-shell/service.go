// internal/application/presentation-shell/service.go
package presentationshell

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	fileencoder "applicant-portal/internal/application/file-encoder"
	perrors "applicant-portal/internal/common/errors"
	"applicant-portal/internal/models"
	"applicant-portal/pkg/registry"
)

const timeLayout = "2006-01-02 15:04"

// RenderProgress shows the step indicator, e.g. "[✓] [●] [ ] [ ] [ ]  Step 2 of 5: Documents".
func RenderProgress(session models.WizardSession, reg *registry.Registry) string {
	var b strings.Builder
	for i := 1; i <= session.TotalSteps; i++ {
		switch {
		case i < session.CurrentStep || session.Submitted:
			b.WriteString("[✓] ")
		case i == session.CurrentStep:
			b.WriteString("[●] ")
		default:
			b.WriteString("[ ] ")
		}
	}
	title := ""
	if step, ok := reg.Step(session.CurrentStep); ok {
		title = step.Title
	}
	fmt.Fprintf(&b, " Step %d of %d: %s", session.CurrentStep, session.TotalSteps, title)
	if session.Submitting {
		b.WriteString(" (submitting...)")
	}
	return b.String()
}

// RenderErrors lists field errors in name order, one per line.
func RenderErrors(errs models.ErrorMap) string {
	if errs.IsEmpty() {
		return ""
	}
	var b strings.Builder
	for _, name := range errs.Keys() {
		fmt.Fprintf(&b, "  ✗ %s: %s\n", name, errs[name])
	}
	return b.String()
}

// RenderReview summarizes the draft before the agreement step.
func RenderReview(draft *models.Draft, reg *registry.Registry) string {
	var b strings.Builder

	b.WriteString("Personal details\n")
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Full name\t%s\n", orDash(draft.Personal.FullName))
	fmt.Fprintf(w, "  Email\t%s\n", orDash(draft.Personal.Email))
	fmt.Fprintf(w, "  Phone\t%s\n", orDash(draft.Personal.Phone))
	fmt.Fprintf(w, "  WhatsApp\t%s\n", orDash(draft.Personal.WhatsappNumber))
	fmt.Fprintf(w, "  Passport number\t%s\n", orDash(draft.Personal.PassportNumber))
	w.Flush()

	b.WriteString("\nDocuments\n")
	w = tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, slot := range reg.Slots {
		fmt.Fprintf(w, "  %s\t%s\n", slot.Label, documentState(draft, slot))
	}
	w.Flush()

	b.WriteString("\nAgreements\n")
	fmt.Fprintf(&b, "  %s Terms and conditions\n", check(draft.Agreements.TermsAccepted))
	fmt.Fprintf(&b, "  %s Privacy policy\n", check(draft.Agreements.PrivacyAccepted))
	fmt.Fprintf(&b, "  %s Data processing\n", check(draft.Agreements.DataProcessingAccepted))
	return b.String()
}

func documentState(draft *models.Draft, slot registry.Slot) string {
	if att := draft.Attachments[slot.Name]; att != nil {
		return fmt.Sprintf("%s (%s, %s)", att.Name, att.MimeType, humanSize(att.Size))
	}
	if stored, ok := draft.Stored[slot.Name]; ok {
		if draft.Removed[slot.Name] {
			return "removed"
		}
		name := stored.Name
		if name == "" {
			name = "on file"
		}
		return name + " (unchanged)"
	}
	if slot.Required {
		return "missing"
	}
	return "-"
}

// RenderApplications renders the dashboard list.
func RenderApplications(apps []models.Application) string {
	if len(apps) == 0 {
		return "No applications yet.\n"
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tNAME\tSTATUS\tUPDATED")
	for _, app := range apps {
		updated := "-"
		if !app.UpdatedAt.IsZero() {
			updated = app.UpdatedAt.Format(timeLayout)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", app.ID, orDash(app.ApplicationNumber), orDash(app.FullName), statusLabel(app.Status), updated)
	}
	w.Flush()
	return b.String()
}

// RenderApplication renders a single application with its documents.
func RenderApplication(app *models.Application) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Application %s (%s)\n", orDash(app.ApplicationNumber), app.ID)
	fmt.Fprintf(&b, "Status: %s\n", statusLabel(app.Status))
	if app.Remarks != "" {
		fmt.Fprintf(&b, "Remarks: %s\n", app.Remarks)
	}
	if !app.Editable() {
		b.WriteString("This application can no longer be edited.\n")
	}

	draft := models.NewDraft()
	draft.Personal = app.PersonalDetails
	draft.Agreements = app.Agreements
	for _, doc := range app.Documents {
		draft.Stored[doc.Slot] = doc
	}
	reg := registry.EditApplication()
	b.WriteString("\n")
	b.WriteString(RenderReview(draft, reg))
	return b.String()
}

// RenderStatus renders the per-status counts.
func RenderStatus(summary *models.StatusSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total applications: %d\n", summary.Total)

	statuses := make([]string, 0, len(summary.ByStatus))
	for s := range summary.ByStatus {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(&b, "  %-14s %d\n", statusLabel(models.ApplicationStatus(s)), summary.ByStatus[models.ApplicationStatus(s)])
	}
	if summary.LastUpdated != nil {
		fmt.Fprintf(&b, "Last updated: %s\n", summary.LastUpdated.Format(timeLayout))
	}
	return b.String()
}

// RenderFileError explains a rejected file and, for oversize files, where to
// compress it.
func RenderFileError(fe *fileencoder.FileError) string {
	msg := fe.Error()
	if url := fe.RemediationURL(); url != "" {
		msg += "\nCompress the file and try again: " + url
	}
	return msg
}

// RenderProfile renders the signed-in applicant.
func RenderProfile(p *models.Profile) string {
	verified := "not verified"
	if p.EmailVerified {
		verified = "verified"
	}
	return fmt.Sprintf("%s <%s> (%s)\nPhone: %s\n", p.Name, p.Email, verified, orDash(p.Phone))
}

// RenderError turns any error into the message shown to the user.
func RenderError(err error) string {
	var fe *fileencoder.FileError
	if errors.As(err, &fe) {
		return RenderFileError(fe)
	}
	std := perrors.Normalize(err)
	switch std.Code {
	case perrors.ErrCodeUnauthorized:
		return std.Message + ". Run `portal login`."
	case perrors.ErrCodeFieldValidation:
		fields, _ := std.Metadata["fields"].([]string)
		return fmt.Sprintf("%s: %s", std.Message, strings.Join(fields, ", "))
	case "INTERNAL_ERROR":
		return std.Details
	}
	return std.Message
}

func statusLabel(s models.ApplicationStatus) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

func check(ok bool) string {
	if ok {
		return "[x]"
	}
	return "[ ]"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMG"[exp])
}
