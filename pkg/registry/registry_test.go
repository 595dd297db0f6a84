package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"applicant-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInFlows(t *testing.T) {
	newFlow := NewApplication()
	require.NoError(t, newFlow.Validate())
	assert.Equal(t, 5, newFlow.TotalSteps())
	assert.Equal(t, int64(2*1024*1024), newFlow.MaxFileSize)
	assert.Equal(t, 3, newFlow.StepOf(models.SlotPaymentProof))

	editFlow := EditApplication()
	require.NoError(t, editFlow.Validate())
	assert.Equal(t, 4, editFlow.TotalSteps())
	assert.Equal(t, int64(5*1024*1024), editFlow.MaxFileSize)
	assert.Equal(t, 2, editFlow.StepOf(models.SlotPaymentProof))

	last, ok := editFlow.Step(4)
	require.True(t, ok)
	assert.Equal(t, StepAgreement, last.Kind)

	_, ok = editFlow.Step(0)
	assert.False(t, ok)
	_, ok = editFlow.Step(5)
	assert.False(t, ok)
}

func TestSlot_FillsDefaults(t *testing.T) {
	reg := NewApplication().WithMaxFileSize(1024)
	slot, ok := reg.Slot(models.SlotPassportFront)
	require.True(t, ok)
	assert.Equal(t, int64(1024), slot.MaxSize)
	assert.Equal(t, DefaultAcceptedTypes, slot.AcceptedTypes)
	assert.True(t, slot.Required)

	_, ok = reg.Slot("driving_license")
	assert.False(t, ok)

	// the original registry is untouched
	assert.Equal(t, int64(2*1024*1024), NewApplication().MaxFileSize)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		reg    Registry
		errMsg string
	}{
		{"no steps", Registry{Name: "x"}, "has no steps"},
		{
			"agreement not last",
			Registry{Name: "x", Steps: []Step{{Kind: StepAgreement}, {Kind: StepReview}}},
			"must end with the agreement step",
		},
		{
			"unknown slot",
			Registry{Name: "x", Steps: []Step{{Kind: StepDocuments, Slots: []models.SlotName{"ghost"}}, {Kind: StepAgreement}}},
			"unknown slot",
		},
		{
			"duplicate slot",
			Registry{
				Name:  "x",
				Steps: []Step{{Kind: StepAgreement}},
				Slots: []Slot{{Name: models.SlotPhoto}, {Name: models.SlotPhoto}},
			},
			"twice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_FromJSON(t *testing.T) {
	data, err := json.Marshal(EditApplication())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "flow.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	reg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, FlowEditApplication, reg.Name)
	assert.Equal(t, 4, reg.TotalSteps())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
