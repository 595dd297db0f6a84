// internal/application/submission-gateway/service.go
package submissiongateway

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	perrors "applicant-portal/internal/common/errors"
	portalhttp "applicant-portal/internal/common/http"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/common/validation"
	"applicant-portal/internal/models"
)

// Gateway performs the application REST calls. It never retries; the user
// re-triggers failed operations.
type Gateway struct {
	api    *portalhttp.Client
	logger logger.Logger
}

func NewGateway(api *portalhttp.Client, log logger.Logger) *Gateway {
	return &Gateway{
		api:    api,
		logger: logger.ForComponent(log, "submission-gateway"),
	}
}

// BuildCreatePayload serializes a draft for creation: personal fields,
// flags and every filled slot's encoded attachment.
func BuildCreatePayload(draft *models.Draft) CreatePayload {
	docs := make(map[models.SlotName]*models.Attachment, len(draft.Attachments))
	for slot, att := range draft.Attachments {
		if att != nil {
			docs[slot] = att
		}
	}
	return CreatePayload{
		PersonalDetails: draft.Personal,
		Agreements:      draft.Agreements,
		Documents:       docs,
	}
}

// BuildUpdatePayload serializes an edited draft. Replaced slots carry their
// new content, removed stored slots are sent as null, everything else is
// left out.
func BuildUpdatePayload(draft *models.Draft) UpdatePayload {
	docs := make(map[models.SlotName]*models.Attachment)
	for slot, att := range draft.Attachments {
		if att != nil {
			docs[slot] = att
		}
	}
	for slot, removed := range draft.Removed {
		if !removed {
			continue
		}
		if _, replaced := docs[slot]; replaced {
			continue
		}
		if _, stored := draft.Stored[slot]; stored {
			docs[slot] = nil
		}
	}
	if len(docs) == 0 {
		docs = nil
	}
	return UpdatePayload{
		PersonalDetails: draft.Personal,
		Agreements:      draft.Agreements,
		Documents:       docs,
	}
}

func (g *Gateway) Create(ctx context.Context, draft *models.Draft) (*models.SubmissionResult, error) {
	payload := BuildCreatePayload(draft)
	if err := checkPayload(createSchema, payload); err != nil {
		return nil, err
	}

	var result models.SubmissionResult
	err := g.api.DoJSON(ctx, portalhttp.Request{
		Method:        http.MethodPost,
		Path:          "/applications",
		Body:          payload,
		Endpoint:      "applications.create",
		Authenticated: true,
	}, &result)
	if err != nil {
		g.logFailure("create", "", err)
		return nil, err
	}

	g.logger.Info("application created", map[string]interface{}{
		"applicationId":     result.ID,
		"applicationNumber": result.ApplicationNumber,
		"documents":         len(payload.Documents),
	})
	return &result, nil
}

func (g *Gateway) Update(ctx context.Context, id string, draft *models.Draft) (*models.Ack, error) {
	payload := BuildUpdatePayload(draft)
	if err := checkPayload(updateSchema, payload); err != nil {
		return nil, err
	}

	resp, err := g.api.Do(ctx, portalhttp.Request{
		Method:        http.MethodPut,
		Path:          "/applications/" + url.PathEscape(id),
		Body:          payload,
		Endpoint:      "applications.update",
		Authenticated: true,
		Mutation:      true,
		ApplicationID: id,
	})
	if err != nil {
		g.logFailure("update", id, err)
		return nil, err
	}

	g.logger.Info("application updated", map[string]interface{}{
		"applicationId":    id,
		"changedDocuments": len(payload.Documents),
	})
	return ackFrom(resp.Body), nil
}

// Withdraw is irreversible; callers confirm with the user first.
func (g *Gateway) Withdraw(ctx context.Context, id string) (*models.Ack, error) {
	resp, err := g.api.Do(ctx, portalhttp.Request{
		Method:        http.MethodPut,
		Path:          "/applications/" + url.PathEscape(id) + "/withdraw",
		Endpoint:      "applications.withdraw",
		Authenticated: true,
		Mutation:      true,
		ApplicationID: id,
	})
	if err != nil {
		g.logFailure("withdraw", id, err)
		return nil, err
	}
	g.logger.Info("application withdrawn", map[string]interface{}{"applicationId": id})
	return ackFrom(resp.Body), nil
}

func (g *Gateway) FetchOne(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application
	err := g.api.DoJSON(ctx, portalhttp.Request{
		Method:        http.MethodGet,
		Path:          "/applications/" + url.PathEscape(id),
		Endpoint:      "applications.get",
		Authenticated: true,
	}, &app)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (g *Gateway) FetchAll(ctx context.Context) ([]models.Application, error) {
	var apps []models.Application
	err := g.api.DoJSON(ctx, portalhttp.Request{
		Method:        http.MethodGet,
		Path:          "/applications",
		Endpoint:      "applications.list",
		Authenticated: true,
	}, &apps)
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (g *Gateway) FetchStatusSummary(ctx context.Context) (*models.StatusSummary, error) {
	var summary models.StatusSummary
	err := g.api.DoJSON(ctx, portalhttp.Request{
		Method:        http.MethodGet,
		Path:          "/applications/status",
		Endpoint:      "applications.status",
		Authenticated: true,
	}, &summary)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// DownloadDocument fetches a stored document as an attachment download.
func (g *Gateway) DownloadDocument(ctx context.Context, id string, slot models.SlotName) (*models.Document, error) {
	return g.fetchDocument(ctx, id, slot, "download")
}

// ViewDocument fetches a stored document for inline display.
func (g *Gateway) ViewDocument(ctx context.Context, id string, slot models.SlotName) (*models.Document, error) {
	return g.fetchDocument(ctx, id, slot, "view")
}

func (g *Gateway) fetchDocument(ctx context.Context, id string, slot models.SlotName, mode string) (*models.Document, error) {
	resp, err := g.api.Do(ctx, portalhttp.Request{
		Method:        http.MethodGet,
		Path:          fmt.Sprintf("/applications/%s/%s/%s", url.PathEscape(id), mode, url.PathEscape(string(slot))),
		Endpoint:      "applications." + mode,
		Authenticated: true,
		Accept:        "*/*",
	})
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if base, _, perr := mime.ParseMediaType(contentType); perr == nil {
		contentType = base
	}
	doc := &models.Document{
		Slot:        slot,
		FileName:    documentFileName(resp.Header.Get("Content-Disposition"), slot, contentType),
		ContentType: contentType,
		Content:     resp.Body,
	}
	if contentType == "application/pdf" {
		doc.Pages = g.pageCount(doc)
	}
	return doc, nil
}

// pageCount reads the PDF leniently; an unreadable file counts as 0 pages.
func (g *Gateway) pageCount(doc *models.Document) (pages int) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Debug("pdf parser panicked", map[string]interface{}{"slot": doc.Slot, "panic": r})
			pages = 0
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(doc.Content), conf)
	if err != nil {
		g.logger.Debug("could not read pdf page count", map[string]interface{}{
			"slot":  doc.Slot,
			"error": err,
		})
		return 0
	}
	return n
}

func documentFileName(disposition string, slot models.SlotName, contentType string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
		return params["filename"]
	}
	ext := ""
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return string(slot) + ext
}

func checkPayload(schema string, payload interface{}) error {
	result, err := validation.ValidateDocument(schema, payload)
	if err != nil {
		return perrors.NewInvalidPayloadError(err.Error())
	}
	if !result.Valid {
		return perrors.NewInvalidPayloadError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

func ackFrom(body []byte) *models.Ack {
	return &models.Ack{Success: true, Message: portalhttp.ServerMessage(body)}
}

func (g *Gateway) logFailure(op, id string, err error) {
	std := perrors.Normalize(err)
	g.logger.WithError(err).Warn("application call failed", map[string]interface{}{
		"operation":     op,
		"applicationId": id,
		"code":          std.Code,
		"category":      perrors.GetErrorCategory(std.Code),
	})
}
