// internal/application/wizard-controller/service.go
package wizardcontroller

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	draftstore "applicant-portal/internal/application/draft-store"
	fileencoder "applicant-portal/internal/application/file-encoder"
	stepvalidator "applicant-portal/internal/application/step-validator"
	perrors "applicant-portal/internal/common/errors"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/common/metrics"
	"applicant-portal/internal/common/observability"
	"applicant-portal/internal/models"
	"applicant-portal/pkg/registry"
)

// Controller is the wizard state machine. One controller drives one flow;
// the registry decides the steps.
type Controller struct {
	mu            sync.Mutex
	session       models.WizardSession
	applicationID string

	registry  *registry.Registry
	store     *draftstore.Store
	encoder   *fileencoder.Encoder
	submitter Submitter
	obs       *observability.Observability
	config    *Config
	logger    logger.Logger

	encodes      sync.WaitGroup
	encodeMu     sync.Mutex
	encodeErrors []error
}

func New(
	config *Config,
	reg *registry.Registry,
	store *draftstore.Store,
	encoder *fileencoder.Encoder,
	submitter Submitter,
	obs *observability.Observability,
	log logger.Logger,
) *Controller {
	if config == nil {
		config = LoadConfig(nil)
	}
	return &Controller{
		session:   models.WizardSession{CurrentStep: 1, TotalSteps: reg.TotalSteps()},
		registry:  reg,
		store:     store,
		encoder:   encoder,
		submitter: submitter,
		obs:       obs,
		config:    config,
		logger:    logger.ForComponent(log, "wizard-controller").With(map[string]interface{}{"flow": reg.Name}),
	}
}

// EditApplication switches the controller to editing app: the draft is
// seeded from it and Submit sends an update instead of a create.
func (c *Controller) EditApplication(app *models.Application) error {
	if !app.Editable() {
		return perrors.NewNotEditableError(app.ID, "")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Submitting {
		return perrors.NewSubmissionInProgressError()
	}

	c.store.LoadApplication(app)
	c.applicationID = app.ID
	c.session = models.WizardSession{CurrentStep: 1, TotalSteps: c.registry.TotalSteps()}
	return nil
}

// Session returns a copy of the navigation state.
func (c *Controller) Session() models.WizardSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Errors returns the current error map.
func (c *Controller) Errors() models.ErrorMap {
	return c.store.CurrentErrors()
}

// Next validates the current step and advances when it is clean. It reports
// whether the step index moved.
func (c *Controller) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Submitting || c.session.Submitted {
		return false
	}

	step, _ := c.registry.Step(c.session.CurrentStep)
	errs := stepvalidator.Validate(step, c.registry, c.store.Snapshot())
	c.store.ReplaceErrors(errs)

	if !errs.IsEmpty() {
		c.transition("next", "blocked")
		c.logger.Debug("step blocked by validation", map[string]interface{}{
			"step":   c.session.CurrentStep,
			"fields": errs.Keys(),
		})
		return false
	}
	if c.session.CurrentStep >= c.session.TotalSteps {
		return false
	}
	c.session.CurrentStep++
	c.transition("next", "ok")
	return true
}

// Previous moves back one step without validating.
func (c *Controller) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Submitting || c.session.Submitted || c.session.CurrentStep <= 1 {
		return
	}
	c.session.CurrentStep--
	c.transition("previous", "ok")
}

// JumpTo moves to any step in [1, N] without validating.
func (c *Controller) JumpTo(step int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Submitting {
		return perrors.NewSubmissionInProgressError()
	}
	if c.session.Submitted {
		return nil
	}
	if step < 1 || step > c.session.TotalSteps {
		c.transition("jump", "rejected")
		return perrors.NewStepOutOfRangeError(step, c.session.TotalSteps)
	}
	c.session.CurrentStep = step
	c.transition("jump", "ok")
	return nil
}

// Submit sends the draft from the final step. The agreement step is
// validated first; on failure nothing is sent and submitting stays false.
// The gateway call runs without holding the lock so Session stays readable.
func (c *Controller) Submit(ctx context.Context) (*Outcome, error) {
	if err := c.WaitForEncodes(); err != nil {
		c.logger.Warn("submitting with failed file encodes", map[string]interface{}{"error": err})
	}

	c.mu.Lock()
	if c.session.Submitting || c.session.Submitted {
		c.mu.Unlock()
		return nil, perrors.NewSubmissionInProgressError()
	}
	if !c.session.IsFinalStep() {
		current, total := c.session.CurrentStep, c.session.TotalSteps
		c.mu.Unlock()
		return nil, perrors.NewNotFinalStepError(current, total)
	}

	step, _ := c.registry.Step(c.session.TotalSteps)
	errs := stepvalidator.Validate(step, c.registry, c.store.Snapshot())
	c.store.ReplaceErrors(errs)
	if !errs.IsEmpty() {
		c.mu.Unlock()
		metrics.WizardSubmissions.WithLabelValues(c.registry.Name, "blocked").Inc()
		return nil, perrors.NewFieldValidationError(string(step.Kind), errs.Keys())
	}

	c.session.Submitting = true
	draft := c.store.Snapshot()
	appID := c.applicationID
	c.mu.Unlock()

	start := time.Now()
	outcome, err := c.send(ctx, appID, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Submitting = false

	status := "success"
	if err != nil {
		status = strings.ToLower(string(perrors.Normalize(err).Code))
	}
	metrics.WizardSubmissions.WithLabelValues(c.registry.Name, status).Inc()
	c.obs.RecordSubmission(ctx, c.registry.Name, status, time.Since(start))

	if err != nil {
		c.logger.Warn("submission failed", map[string]interface{}{"code": perrors.CodeOf(err)})
		return nil, err
	}

	c.session.Submitted = true
	c.store.Reset()
	c.logger.Info("submission accepted", map[string]interface{}{
		"applicationId":     outcome.ApplicationID,
		"applicationNumber": outcome.ApplicationNumber,
	})
	return outcome, nil
}

func (c *Controller) send(ctx context.Context, appID string, draft *models.Draft) (*Outcome, error) {
	if appID == "" {
		res, err := c.submitter.Create(ctx, draft)
		if err != nil {
			return nil, err
		}
		return &Outcome{ApplicationID: res.ID, ApplicationNumber: res.ApplicationNumber}, nil
	}
	ack, err := c.submitter.Update(ctx, appID, draft)
	if err != nil {
		return nil, err
	}
	return &Outcome{ApplicationID: appID, Message: ack.Message, Updated: true}, nil
}

// AttachFile checks the file synchronously and encodes it in the background.
// A rejected file leaves the slot untouched. Only the latest pick for a slot
// is ever applied.
func (c *Controller) AttachFile(ctx context.Context, slot models.SlotName, file fileencoder.File) error {
	slotDef, err := c.prepare(slot, file)
	if err != nil {
		return err
	}

	handle := c.store.BeginSelection(slot)
	c.encodes.Add(1)
	c.encoder.EncodeAsync(ctx, file, slotDef, func(res fileencoder.Result) {
		defer c.encodes.Done()
		c.finishEncode(slot, handle, res.Attachment, res.Err)
	})
	return nil
}

// AttachFiles encodes several picks with bounded concurrency and returns the
// first failure. Picks that succeed are applied regardless.
func (c *Controller) AttachFiles(ctx context.Context, selections []Selection) error {
	var g errgroup.Group
	g.SetLimit(max(c.config.MaxConcurrentEncode, 1))

	for _, sel := range selections {
		sel := sel
		g.Go(func() error {
			slotDef, err := c.prepare(sel.Slot, sel.File)
			if err != nil {
				return err
			}
			handle := c.store.BeginSelection(sel.Slot)
			att, err := c.encoder.Encode(ctx, sel.File, slotDef)
			if err != nil {
				c.store.CancelSelection(sel.Slot, handle)
				return err
			}
			c.store.ApplySelection(sel.Slot, handle, att)
			return nil
		})
	}
	return g.Wait()
}

// RemoveFile empties a slot. In the edit flow a stored document is marked
// for removal.
func (c *Controller) RemoveFile(slot models.SlotName) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Submitting {
		return perrors.NewSubmissionInProgressError()
	}
	if _, ok := c.registry.Slot(slot); !ok {
		return fmt.Errorf("unknown slot %q", slot)
	}
	c.store.SetAttachment(slot, nil)
	return nil
}

// WaitForEncodes blocks until background encodes finish and returns the
// failures collected since the previous call.
func (c *Controller) WaitForEncodes() error {
	c.encodes.Wait()

	c.encodeMu.Lock()
	defer c.encodeMu.Unlock()
	err := stderrors.Join(c.encodeErrors...)
	c.encodeErrors = nil
	return err
}

// Reset starts a fresh draft on step 1. Ignored while submitting.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Submitting {
		return
	}
	c.session = models.WizardSession{CurrentStep: 1, TotalSteps: c.registry.TotalSteps()}
	c.applicationID = ""
	c.store.Reset()
}

func (c *Controller) prepare(slot models.SlotName, file fileencoder.File) (registry.Slot, error) {
	slotDef, ok := c.registry.Slot(slot)
	if !ok {
		closeReader(file)
		return registry.Slot{}, fmt.Errorf("unknown slot %q", slot)
	}
	if c.Session().Submitting {
		closeReader(file)
		return registry.Slot{}, perrors.NewSubmissionInProgressError()
	}
	if err := c.encoder.Preflight(file, slotDef); err != nil {
		closeReader(file)
		return registry.Slot{}, err
	}
	return slotDef, nil
}

func (c *Controller) finishEncode(slot models.SlotName, handle string, att *models.Attachment, err error) {
	if err != nil {
		c.store.CancelSelection(slot, handle)
		c.encodeMu.Lock()
		c.encodeErrors = append(c.encodeErrors, err)
		c.encodeMu.Unlock()
		return
	}
	if !c.store.ApplySelection(slot, handle, att) {
		c.logger.Debug("stale encode discarded", map[string]interface{}{"slot": slot})
	}
}

func (c *Controller) transition(direction, result string) {
	metrics.WizardTransitions.WithLabelValues(c.registry.Name, direction, result).Inc()
}

func closeReader(file fileencoder.File) {
	if closer, ok := file.Reader.(io.Closer); ok {
		closer.Close()
	}
}
