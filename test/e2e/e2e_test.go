// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	draftstore "applicant-portal/internal/application/draft-store"
	fileencoder "applicant-portal/internal/application/file-encoder"
	presentationshell "applicant-portal/internal/application/presentation-shell"
	stepvalidator "applicant-portal/internal/application/step-validator"
	submissiongateway "applicant-portal/internal/application/submission-gateway"
	wizardcontroller "applicant-portal/internal/application/wizard-controller"
	"applicant-portal/internal/common/auth"
	"applicant-portal/internal/common/config"
	"applicant-portal/internal/common/database"
	perrors "applicant-portal/internal/common/errors"
	portalhttp "applicant-portal/internal/common/http"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/models"
	"applicant-portal/pkg/registry"
)

const e2eToken = "e2e-token"

// ==========================
// Fake backend
// ==========================

type submitted struct {
	models.PersonalDetails
	models.Agreements
	Documents map[models.SlotName]*models.Attachment `json:"documents"`
}

type backend struct {
	mu      sync.Mutex
	apps    map[string]*models.Application
	updates []map[string]json.RawMessage
	revoked atomic.Bool
	seq     int
}

func newBackend() *backend {
	return &backend{apps: make(map[string]*models.Application)}
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/auth/login" {
		writeData(w, http.StatusOK, map[string]interface{}{
			"token": e2eToken,
			"user":  map[string]string{"id": "u1", "name": "Ram Shrestha", "email": "ram@example.com"},
		})
		return
	}
	if b.revoked.Load() || r.Header.Get("Authorization") != "Bearer "+e2eToken {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Token expired"}`))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/applications":
		var body submitted
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeMessage(w, http.StatusBadRequest, "malformed body")
			return
		}
		b.seq++
		app := &models.Application{
			ID:                fmt.Sprintf("app-%d", b.seq),
			ApplicationNumber: fmt.Sprintf("APP-2026-%04d", b.seq),
			Status:            models.StatusPending,
			PersonalDetails:   body.PersonalDetails,
			Agreements:        body.Agreements,
			CreatedAt:         time.Now(),
			UpdatedAt:         time.Now(),
		}
		for slot, att := range body.Documents {
			if att != nil {
				app.Documents = append(app.Documents, models.StoredDocument{Slot: slot, Name: att.Name, MimeType: att.MimeType, Size: att.Size})
			}
		}
		b.apps[app.ID] = app
		writeData(w, http.StatusCreated, models.SubmissionResult{ID: app.ID, ApplicationNumber: app.ApplicationNumber})

	case r.Method == http.MethodGet && r.URL.Path == "/applications":
		list := make([]models.Application, 0, len(b.apps))
		for _, app := range b.apps {
			list = append(list, *app)
		}
		writeData(w, http.StatusOK, list)

	case r.Method == http.MethodGet && len(parts) == 2:
		app, ok := b.apps[parts[1]]
		if !ok {
			writeMessage(w, http.StatusNotFound, "Application not found")
			return
		}
		writeData(w, http.StatusOK, app)

	case r.Method == http.MethodPut && len(parts) == 3 && parts[2] == "withdraw":
		app, ok := b.apps[parts[1]]
		if !ok {
			writeMessage(w, http.StatusNotFound, "Application not found")
			return
		}
		app.Status = models.StatusWithdrawn
		writeMessage(w, http.StatusOK, "Application withdrawn")

	case r.Method == http.MethodPut && len(parts) == 2:
		app, ok := b.apps[parts[1]]
		if !ok {
			writeMessage(w, http.StatusNotFound, "Application not found")
			return
		}
		if !app.Editable() {
			writeMessage(w, http.StatusConflict, "Application can no longer be edited")
			return
		}
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			writeMessage(w, http.StatusBadRequest, "malformed body")
			return
		}
		b.updates = append(b.updates, raw)
		if p, ok := raw["phone"]; ok {
			_ = json.Unmarshal(p, &app.Phone)
		}
		writeMessage(w, http.StatusOK, "Application updated successfully")

	default:
		writeMessage(w, http.StatusNotFound, "no route")
	}
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": status < 400, "message": message})
}

// ==========================
// Portal wiring
// ==========================

type portal struct {
	backend      *backend
	redis        *miniredis.Miniredis
	session      *auth.Session
	auth         *auth.Client
	gateway      *submissiongateway.Gateway
	encoder      *fileencoder.Encoder
	log          logger.Logger
	unauthorized atomic.Int32
}

func startPortal(t *testing.T) *portal {
	t.Helper()

	p := &portal{backend: newBackend(), redis: miniredis.RunT(t), log: logger.NewTestLogger(t)}
	srv := httptest.NewServer(p.backend)
	t.Cleanup(srv.Close)

	rdb := database.NewRedis(config.RedisConfig{Address: p.redis.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := auth.NewRedisTokenStore(rdb, "portal:e2e:token", time.Hour)
	p.session = auth.NewSession(store, func() { p.unauthorized.Add(1) }, p.log)
	api := portalhttp.NewClient(srv.URL, 5*time.Second, p.session, p.log)
	p.auth = auth.NewClient(api, p.session, p.log)
	p.gateway = submissiongateway.NewGateway(api, p.log)
	p.encoder = fileencoder.NewEncoder(nil, p.log)
	return p
}

func (p *portal) wizard(reg *registry.Registry) (*wizardcontroller.Controller, *draftstore.Store) {
	store := draftstore.New(p.log)
	cfg := &wizardcontroller.Config{MaxConcurrentEncode: 3}
	return wizardcontroller.New(cfg, reg, store, p.encoder, p.gateway, nil, p.log), store
}

func writeFiles(t *testing.T, dir string, names ...string) map[string]string {
	t.Helper()
	paths := make(map[string]string, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("content of "+name), 0o600))
		paths[name] = path
	}
	return paths
}

func attach(t *testing.T, ctrl *wizardcontroller.Controller, docs map[models.SlotName]string) {
	t.Helper()
	var selections []wizardcontroller.Selection
	for slot, path := range docs {
		file, err := fileencoder.OpenFile(path)
		require.NoError(t, err)
		selections = append(selections, wizardcontroller.Selection{Slot: slot, File: file})
	}
	require.NoError(t, ctrl.AttachFiles(context.Background(), selections))
}

func advanceToLastStep(t *testing.T, ctrl *wizardcontroller.Controller) {
	t.Helper()
	for !ctrl.Session().IsFinalStep() {
		require.True(t, ctrl.Next(), "blocked on step %d: %v", ctrl.Session().CurrentStep, ctrl.Errors())
	}
}

// ==========================
// Flows
// ==========================

func TestFullE2E(t *testing.T) {
	ctx := context.Background()
	p := startPortal(t)

	// 1. Sign in; the token lands in redis
	login, err := p.auth.Login(ctx, models.Credentials{Email: "ram@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "Ram Shrestha", login.User.Name)
	stored, err := p.redis.Get("portal:e2e:token")
	require.NoError(t, err)
	assert.Equal(t, e2eToken, stored)

	// 2. Fill the new-application wizard from a draft file
	dir := t.TempDir()
	files := writeFiles(t, dir, "pf.pdf", "pb.pdf", "visa.png", "photo.jpg", "agreement.pdf", "police.pdf", "receipt.jpeg")
	draftPath := filepath.Join(dir, "draft.yaml")
	require.NoError(t, os.WriteFile(draftPath, []byte(`
personal:
  full_name: Ram Shrestha
  email: ram@example.com
  phone: "9800000000"
  passport_number: PA1234567
agreements:
  terms_accepted: true
  privacy_accepted: true
  data_processing_accepted: true
`), 0o600))

	df, err := draftstore.ReadDraftFile(draftPath)
	require.NoError(t, err)

	reg := registry.NewApplication()
	ctrl, store := p.wizard(reg)
	require.NoError(t, store.ApplyDraftFile(df, reg))
	attach(t, ctrl, map[models.SlotName]string{
		models.SlotPassportFront:   files["pf.pdf"],
		models.SlotPassportBack:    files["pb.pdf"],
		models.SlotLaborVisaFront:  files["visa.png"],
		models.SlotPhoto:           files["photo.jpg"],
		models.SlotAgreementPaper:  files["agreement.pdf"],
		models.SlotPoliceClearance: files["police.pdf"],
		models.SlotPaymentProof:    files["receipt.jpeg"],
	})

	assert.Empty(t, stepvalidator.ValidateAll(reg, store.Snapshot()))
	advanceToLastStep(t, ctrl)
	assert.Contains(t, presentationshell.RenderProgress(ctrl.Session(), reg), "Step 5 of 5")

	outcome, err := ctrl.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "APP-2026-0001", outcome.ApplicationNumber)
	assert.True(t, ctrl.Session().Submitted)

	app, err := p.gateway.FetchOne(ctx, outcome.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.Len(t, app.Documents, 7)

	// 3. Edit: change the phone, replace the photo, drop police clearance
	editReg := registry.EditApplication()
	edit, editStore := p.wizard(editReg)
	require.NoError(t, edit.EditApplication(app))
	require.NoError(t, editStore.SetField(models.FieldPhone, "9811111111"))
	newPhoto := writeFiles(t, dir, "photo-2.png")["photo-2.png"]
	attach(t, edit, map[models.SlotName]string{models.SlotPhoto: newPhoto})
	require.NoError(t, edit.RemoveFile(models.SlotPoliceClearance))

	advanceToLastStep(t, edit)
	updated, err := edit.Submit(ctx)
	require.NoError(t, err)
	assert.True(t, updated.Updated)
	assert.Equal(t, "Application updated successfully", updated.Message)

	require.Len(t, p.backend.updates, 1)
	var docs map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(p.backend.updates[0]["documents"], &docs))
	assert.Len(t, docs, 2, "only changed slots are sent")
	assert.JSONEq(t, "null", string(docs[string(models.SlotPoliceClearance)]))
	assert.Contains(t, string(docs[string(models.SlotPhoto)]), `"name":"photo-2.png"`)

	// 4. List and withdraw; a withdrawn application cannot be edited
	apps, err := p.gateway.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "9811111111", apps[0].Phone)

	_, err = p.gateway.Withdraw(ctx, app.ID)
	require.NoError(t, err)
	app, err = p.gateway.FetchOne(ctx, app.ID)
	require.NoError(t, err)

	again, _ := p.wizard(editReg)
	err = again.EditApplication(app)
	assert.Equal(t, perrors.ErrCodeNotEditable, perrors.CodeOf(err))

	assert.Zero(t, p.unauthorized.Load())
}

func TestE2E_RevokedTokenEndsSession(t *testing.T) {
	ctx := context.Background()
	p := startPortal(t)

	_, err := p.auth.Login(ctx, models.Credentials{Email: "ram@example.com", Password: "secret"})
	require.NoError(t, err)

	p.backend.revoked.Store(true)
	_, err = p.gateway.FetchAll(ctx)
	assert.True(t, perrors.IsUnauthorized(err))
	assert.Equal(t, int32(1), p.unauthorized.Load())
	assert.False(t, p.redis.Exists("portal:e2e:token"))

	// without a token the backend is never reached
	p.backend.revoked.Store(false)
	_, err = p.gateway.FetchAll(ctx)
	assert.True(t, perrors.IsUnauthorized(err))
	assert.Equal(t, int32(2), p.unauthorized.Load())
}

func TestE2E_OversizedFileNeverReachesBackend(t *testing.T) {
	ctx := context.Background()
	p := startPortal(t)
	_, err := p.auth.Login(ctx, models.Credentials{Email: "ram@example.com", Password: "secret"})
	require.NoError(t, err)

	reg := registry.NewApplication()
	ctrl, store := p.wizard(reg)

	path := filepath.Join(t.TempDir(), "passport.pdf")
	require.NoError(t, os.WriteFile(path, make([]byte, 2*1024*1024+1), 0o600))
	file, err := fileencoder.OpenFile(path)
	require.NoError(t, err)

	err = ctrl.AttachFile(ctx, models.SlotPassportFront, file)
	var fe *fileencoder.FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fileencoder.TooLarge, fe.Kind)
	assert.Contains(t, presentationshell.RenderFileError(fe), "ilovepdf")
	assert.False(t, store.Snapshot().HasDocument(models.SlotPassportFront))

	_, err = ctrl.Submit(ctx)
	assert.Equal(t, perrors.ErrCodeNotFinalStep, perrors.CodeOf(err))
	assert.Empty(t, p.backend.apps)
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkEncode_TwoMiB(b *testing.B) {
	encoder := fileencoder.NewEncoder(nil, logger.NewNoOpLogger())
	slot, _ := registry.NewApplication().Slot(models.SlotPassportFront)
	data := make([]byte, 2*1024*1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		file := fileencoder.File{Name: "p.pdf", Size: int64(len(data)), MimeType: "application/pdf", Reader: bytes.NewReader(data)}
		if _, err := encoder.Encode(context.Background(), file, slot); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkValidateAll(b *testing.B) {
	reg := registry.NewApplication()
	draft := models.NewDraft()
	draft.Personal = models.PersonalDetails{FullName: "Ram", Email: "ram@example.com", Phone: "98", PassportNumber: "PA1"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = stepvalidator.ValidateAll(reg, draft)
	}
}
