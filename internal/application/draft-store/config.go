// internal/application/draft-store/config.go
package draftstore

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"

	"applicant-portal/internal/models"
	"applicant-portal/pkg/registry"
)

// DraftFile is a draft described on disk (YAML, JSON or TOML), used to drive
// the wizard non-interactively. Documents map slot names to file paths.
type DraftFile struct {
	Personal   map[string]string `mapstructure:"personal"`
	Agreements map[string]bool   `mapstructure:"agreements"`
	Documents  map[string]string `mapstructure:"documents"`
	Remove     []string          `mapstructure:"remove"`
}

var draftFileFields = map[string]string{
	"full_name":       models.FieldFullName,
	"email":           models.FieldEmail,
	"phone":           models.FieldPhone,
	"whatsapp_number": models.FieldWhatsappNumber,
	"passport_number": models.FieldPassportNumber,
}

var draftFileFlags = map[string]string{
	"terms_accepted":           models.FlagTermsAccepted,
	"privacy_accepted":         models.FlagPrivacyAccepted,
	"data_processing_accepted": models.FlagDataProcessingAccepted,
}

// ReadDraftFile loads a draft file. Relative document paths resolve against
// the file's directory. Unknown top-level keys are rejected.
func ReadDraftFile(path string) (*DraftFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read draft file %s: %w", path, err)
	}

	var df DraftFile
	if err := v.UnmarshalExact(&df); err != nil {
		return nil, fmt.Errorf("failed to parse draft file %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for slot, p := range df.Documents {
		if p != "" && !filepath.IsAbs(p) {
			df.Documents[slot] = filepath.Join(base, p)
		}
	}
	return &df, nil
}

// ApplyDraftFile copies the file's fields and flags into the store. Keys the
// file leaves out keep their current values. Every key and slot name is
// checked against reg before the store is touched.
func (s *Store) ApplyDraftFile(df *DraftFile, reg *registry.Registry) error {
	if err := checkDraftFile(df, reg); err != nil {
		return err
	}

	for _, key := range sortedKeys(df.Personal) {
		if err := s.SetField(draftFileFields[key], df.Personal[key]); err != nil {
			return err
		}
	}
	for key, value := range df.Agreements {
		if err := s.SetFlag(draftFileFlags[key], value); err != nil {
			return err
		}
	}
	for _, slot := range df.Remove {
		s.SetAttachment(models.SlotName(slot), nil)
	}
	return nil
}

func checkDraftFile(df *DraftFile, reg *registry.Registry) error {
	for _, key := range sortedKeys(df.Personal) {
		if _, ok := draftFileFields[key]; !ok {
			return fmt.Errorf("unknown personal field %q", key)
		}
	}
	for key := range df.Agreements {
		if _, ok := draftFileFlags[key]; !ok {
			return fmt.Errorf("unknown agreement %q", key)
		}
	}
	for _, slot := range sortedKeys(df.Documents) {
		if _, ok := reg.Slot(models.SlotName(slot)); !ok {
			return fmt.Errorf("unknown document slot %q", slot)
		}
	}
	for _, slot := range df.Remove {
		if _, ok := reg.Slot(models.SlotName(slot)); !ok {
			return fmt.Errorf("unknown document slot %q in remove", slot)
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
