// cmd/portal/commands.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	draftstore "applicant-portal/internal/application/draft-store"
	fileencoder "applicant-portal/internal/application/file-encoder"
	presentationshell "applicant-portal/internal/application/presentation-shell"
	wizardcontroller "applicant-portal/internal/application/wizard-controller"
	perrors "applicant-portal/internal/common/errors"
	"applicant-portal/internal/models"
	"applicant-portal/pkg/registry"
)

var renderErr = presentationshell.RenderError

// required takes flag name/value pairs and reports the first empty one.
func required(fs *flag.FlagSet, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			fs.Usage()
			return fmt.Errorf("-%s is required", pairs[i])
		}
	}
	return nil
}

func passwordFrom(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("PORTAL_PASSWORD")
}

func (a *app) printAck(ack *models.Ack, fallback string) {
	if ack.Message != "" {
		fmt.Fprintln(a.out, ack.Message)
		return
	}
	fmt.Fprintln(a.out, fallback)
}

// ==========================
// Auth
// ==========================

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Password (or set PORTAL_PASSWORD)")
	fs.Parse(args)

	pw := passwordFrom(*password)
	if err := required(fs, "email", *email, "password", pw); err != nil {
		return err
	}
	res, err := a.auth.Login(ctx, models.Credentials{Email: *email, Password: pw})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", res.User.Name)
	return nil
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func runSignup(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	name := fs.String("name", "", "Full name")
	email := fs.String("email", "", "Email")
	phone := fs.String("phone", "", "Phone number")
	password := fs.String("password", "", "Password (or set PORTAL_PASSWORD)")
	fs.Parse(args)

	pw := passwordFrom(*password)
	if err := required(fs, "name", *name, "email", *email, "password", pw); err != nil {
		return err
	}
	ack, err := a.auth.Signup(ctx, models.SignupRequest{Name: *name, Email: *email, Phone: *phone, Password: pw})
	if err != nil {
		return err
	}
	a.printAck(ack, "Account created. Check your email to verify it.")
	return nil
}

func runVerifyEmail(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("verify-email", flag.ExitOnError)
	token := fs.String("token", "", "Verification token from the email")
	fs.Parse(args)

	if err := required(fs, "token", *token); err != nil {
		return err
	}
	ack, err := a.auth.VerifyEmail(ctx, *token)
	if err != nil {
		return err
	}
	a.printAck(ack, "Email verified.")
	return nil
}

func runResendVerification(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("resend-verification", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	fs.Parse(args)

	if err := required(fs, "email", *email); err != nil {
		return err
	}
	ack, err := a.auth.ResendVerificationEmail(ctx, *email)
	if err != nil {
		return err
	}
	a.printAck(ack, "Verification email sent.")
	return nil
}

func runForgotPassword(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("forgot-password", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	fs.Parse(args)

	if err := required(fs, "email", *email); err != nil {
		return err
	}
	ack, err := a.auth.ForgotPassword(ctx, *email)
	if err != nil {
		return err
	}
	a.printAck(ack, "If the account exists, a reset email is on its way.")
	return nil
}

func runResetPassword(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
	token := fs.String("token", "", "Reset token from the email")
	password := fs.String("password", "", "New password (or set PORTAL_PASSWORD)")
	fs.Parse(args)

	pw := passwordFrom(*password)
	if err := required(fs, "token", *token, "password", pw); err != nil {
		return err
	}
	ack, err := a.auth.ResetPassword(ctx, *token, pw)
	if err != nil {
		return err
	}
	a.printAck(ack, "Password reset. You can now log in.")
	return nil
}

func runChangePassword(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("change-password", flag.ExitOnError)
	current := fs.String("current", "", "Current password")
	next := fs.String("new", "", "New password")
	fs.Parse(args)

	if err := required(fs, "current", *current, "new", *next); err != nil {
		return err
	}
	ack, err := a.auth.ChangePassword(ctx, *current, *next)
	if err != nil {
		return err
	}
	a.printAck(ack, "Password changed.")
	return nil
}

func runMe(ctx context.Context, a *app, _ []string) error {
	profile, err := a.auth.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, presentationshell.RenderProfile(profile))
	return nil
}

func runProfile(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	name := fs.String("name", "", "New display name")
	phone := fs.String("phone", "", "New phone number")
	fs.Parse(args)

	if *name == "" && *phone == "" {
		fs.Usage()
		return errors.New("nothing to update: pass -name and/or -phone")
	}
	profile, err := a.auth.UpdateProfile(ctx, models.ProfileUpdate{Name: *name, Phone: *phone})
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, presentationshell.RenderProfile(profile))
	return nil
}

// ==========================
// Wizard
// ==========================

func runSubmit(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	draftPath := fs.String("draft", "", "Draft file (yaml/json) with personal details, agreements and document paths")
	registryPath := fs.String("registry", "", "Optional step registry JSON replacing the built-in flow")
	dryRun := fs.Bool("dry-run", false, "Validate every step and print the review without submitting")
	fs.Parse(args)

	if err := required(fs, "draft", *draftPath); err != nil {
		return err
	}
	reg, err := a.flowRegistry(*registryPath, registry.NewApplication(), a.cfg.Uploads.ApplicationMaxBytes)
	if err != nil {
		return err
	}
	return a.runWizard(ctx, reg, *draftPath, nil, *dryRun)
}

func runEdit(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	id := fs.String("id", "", "Application ID")
	draftPath := fs.String("draft", "", "Draft file with the changes; keys left out keep their stored values")
	registryPath := fs.String("registry", "", "Optional step registry JSON replacing the built-in flow")
	dryRun := fs.Bool("dry-run", false, "Validate every step and print the review without submitting")
	fs.Parse(args)

	if err := required(fs, "id", *id, "draft", *draftPath); err != nil {
		return err
	}
	reg, err := a.flowRegistry(*registryPath, registry.EditApplication(), a.cfg.Uploads.EditMaxBytes)
	if err != nil {
		return err
	}
	existing, err := a.gateway.FetchOne(ctx, *id)
	if err != nil {
		return err
	}
	return a.runWizard(ctx, reg, *draftPath, existing, *dryRun)
}

func (a *app) flowRegistry(path string, builtin *registry.Registry, maxBytes int64) (*registry.Registry, error) {
	reg := builtin
	if path != "" {
		loaded, err := registry.Load(path)
		if err != nil {
			return nil, err
		}
		reg = loaded
	}
	if maxBytes > 0 {
		reg = reg.WithMaxFileSize(maxBytes)
	}
	return reg, nil
}

// runWizard drives the controller exactly as the interactive flow would:
// attach files, advance step by step, review, then submit from the last step.
func (a *app) runWizard(ctx context.Context, reg *registry.Registry, draftPath string, existing *models.Application, dryRun bool) error {
	df, err := draftstore.ReadDraftFile(draftPath)
	if err != nil {
		return err
	}

	store := draftstore.New(a.log)
	ctrl := wizardcontroller.New(wizardcontroller.LoadConfig(a.cfg), reg, store, a.encoder, a.gateway, a.obs, a.log)
	if existing != nil {
		if err := ctrl.EditApplication(existing); err != nil {
			return err
		}
	}
	if err := store.ApplyDraftFile(df, reg); err != nil {
		return err
	}

	selections, err := openSelections(df.Documents)
	if err != nil {
		return err
	}
	if err := ctrl.AttachFiles(ctx, selections); err != nil {
		return err
	}

	for {
		session := ctrl.Session()
		fmt.Fprintln(a.out, presentationshell.RenderProgress(session, reg))
		if session.IsFinalStep() {
			break
		}
		if step, _ := reg.Step(session.CurrentStep); step.Kind == registry.StepReview {
			fmt.Fprintln(a.out, presentationshell.RenderReview(store.Snapshot(), reg))
		}
		if !ctrl.Next() {
			errs := ctrl.Errors()
			fmt.Fprint(a.errOut, presentationshell.RenderErrors(errs))
			step, _ := reg.Step(session.CurrentStep)
			return perrors.NewFieldValidationError(string(step.Kind), errs.Keys())
		}
	}

	if dryRun {
		fmt.Fprintln(a.out, "Dry run: nothing was submitted.")
		return nil
	}

	outcome, err := ctrl.Submit(ctx)
	if err != nil {
		if errs := ctrl.Errors(); !errs.IsEmpty() {
			fmt.Fprint(a.errOut, presentationshell.RenderErrors(errs))
		}
		return err
	}
	if outcome.Updated {
		fmt.Fprintf(a.out, "Application %s updated. %s\n", outcome.ApplicationID, outcome.Message)
		return nil
	}
	fmt.Fprintf(a.out, "Application submitted. Your application number is %s.\n", outcome.ApplicationNumber)
	return nil
}

func openSelections(documents map[string]string) ([]wizardcontroller.Selection, error) {
	slots := make([]string, 0, len(documents))
	for slot := range documents {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	selections := make([]wizardcontroller.Selection, 0, len(slots))
	for _, slot := range slots {
		file, err := fileencoder.OpenFile(documents[slot])
		if err != nil {
			for _, s := range selections {
				if c, ok := s.File.Reader.(io.Closer); ok {
					c.Close()
				}
			}
			return nil, fmt.Errorf("document %s: %w", slot, err)
		}
		selections = append(selections, wizardcontroller.Selection{Slot: models.SlotName(slot), File: file})
	}
	return selections, nil
}

// ==========================
// Applications
// ==========================

func runWithdraw(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("withdraw", flag.ExitOnError)
	id := fs.String("id", "", "Application ID")
	yes := fs.Bool("yes", false, "Confirm the withdrawal; it cannot be undone")
	fs.Parse(args)

	if err := required(fs, "id", *id); err != nil {
		return err
	}
	if !*yes {
		return errors.New("withdrawing cannot be undone; re-run with -yes to confirm")
	}
	ack, err := a.gateway.Withdraw(ctx, *id)
	if err != nil {
		return err
	}
	a.printAck(ack, "Application withdrawn.")
	return nil
}

func runList(ctx context.Context, a *app, _ []string) error {
	apps, err := a.gateway.FetchAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, presentationshell.RenderApplications(apps))
	return nil
}

func runShow(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	id := fs.String("id", "", "Application ID")
	fs.Parse(args)

	if err := required(fs, "id", *id); err != nil {
		return err
	}
	application, err := a.gateway.FetchOne(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, presentationshell.RenderApplication(application))
	return nil
}

func runStatus(ctx context.Context, a *app, _ []string) error {
	summary, err := a.gateway.FetchStatusSummary(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, presentationshell.RenderStatus(summary))
	return nil
}

func runDownload(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	id := fs.String("id", "", "Application ID")
	doc := fs.String("doc", "", "Document slot, e.g. passport_front")
	outDir := fs.String("out", ".", "Directory to write the file to")
	view := fs.Bool("view", false, "Use the inline view endpoint instead of the download endpoint")
	fs.Parse(args)

	if err := required(fs, "id", *id, "doc", *doc); err != nil {
		return err
	}

	fetch := a.gateway.DownloadDocument
	if *view {
		fetch = a.gateway.ViewDocument
	}
	document, err := fetch(ctx, *id, models.SlotName(*doc))
	if err != nil {
		return err
	}

	path := filepath.Join(*outDir, filepath.Base(document.FileName))
	if err := os.WriteFile(path, document.Content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if document.Pages > 0 {
		fmt.Fprintf(a.out, "Saved %s (%s, %d bytes, %d pages)\n", path, document.ContentType, len(document.Content), document.Pages)
		return nil
	}
	fmt.Fprintf(a.out, "Saved %s (%s, %d bytes)\n", path, document.ContentType, len(document.Content))
	return nil
}
