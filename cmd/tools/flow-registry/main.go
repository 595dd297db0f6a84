// cmd/tools/flow-registry/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"applicant-portal/internal/models"
	"applicant-portal/pkg/registry"
)

var registryPath string

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	addSlotCmd := flag.NewFlagSet("add-slot", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	// Export command flags
	flow := exportCmd.String("flow", registry.FlowNewApplication, "Built-in flow to export (new-application, edit-application)")
	exportCmd.StringVar(&registryPath, "path", "configs/flow-registry.json", "Path to write the registry to")

	// Add-slot command flags
	slotName := addSlotCmd.String("name", "", "Slot name (e.g., birth_certificate)")
	label := addSlotCmd.String("label", "", "Label shown to the applicant (e.g., Birth certificate)")
	step := addSlotCmd.Int("step", 2, "1-based step the slot belongs to")
	optional := addSlotCmd.Bool("optional", false, "Slot may be left empty")
	maxSize := addSlotCmd.Int64("maxSize", 0, "Per-slot size ceiling in bytes (0 uses the registry default)")
	types := addSlotCmd.String("types", "", "Comma-separated accepted MIME types (empty uses pdf, jpeg, png)")
	addSlotCmd.StringVar(&registryPath, "path", "configs/flow-registry.json", "Path to registry file")

	// Update command flags
	field := updateCmd.String("field", "", "Field to update (name, version, maxFileSize)")
	value := updateCmd.String("value", "", "New value for the field")
	updateCmd.StringVar(&registryPath, "path", "configs/flow-registry.json", "Path to registry file")

	// Validate command flags
	validateCmd.StringVar(&registryPath, "path", "configs/flow-registry.json", "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		reg, err := builtinFlow(*flow)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if err := saveRegistry(reg, registryPath); err != nil {
			fmt.Printf("Error exporting registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported %s (%d steps) to %s\n", reg.Name, reg.TotalSteps(), registryPath)

	case "add-slot":
		addSlotCmd.Parse(os.Args[2:])
		if *slotName == "" || *label == "" {
			fmt.Println("Error: name and label are required for add-slot.")
			addSlotCmd.Usage()
			os.Exit(1)
		}
		slot := registry.Slot{
			Name:     models.SlotName(*slotName),
			Label:    *label,
			Required: !*optional,
			MaxSize:  *maxSize,
		}
		if *types != "" {
			slot.AcceptedTypes = strings.Split(*types, ",")
		}
		if err := addSlot(slot, *step); err != nil {
			fmt.Printf("Error adding slot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added slot %s to step %d\n", *slotName, *step)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *field == "" || *value == "" {
			fmt.Println("Error: field and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateRegistry(*field, *value); err != nil {
			fmt.Printf("Error updating registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated %s to %s\n", *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg, err := registry.Load(registryPath)
		if err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. %s has %d steps and %d slots.\n", reg.Name, reg.TotalSteps(), len(reg.Slots))

	case "help":
		fallthrough
	default:
		help()
	}
}

func builtinFlow(name string) (*registry.Registry, error) {
	switch name {
	case registry.FlowNewApplication:
		return registry.NewApplication(), nil
	case registry.FlowEditApplication:
		return registry.EditApplication(), nil
	default:
		return nil, fmt.Errorf("unknown flow: %s", name)
	}
}

func addSlot(slot registry.Slot, step int) error {
	reg, err := registry.Load(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	for _, existing := range reg.Slots {
		if existing.Name == slot.Name {
			return fmt.Errorf("slot %s already exists", slot.Name)
		}
	}
	if step < 1 || step > reg.TotalSteps() {
		return fmt.Errorf("step %d is outside 1..%d", step, reg.TotalSteps())
	}
	switch kind := reg.Steps[step-1].Kind; kind {
	case registry.StepDocuments, registry.StepPaymentProof:
	default:
		return fmt.Errorf("step %d is a %s step and cannot hold documents", step, kind)
	}

	reg.Slots = append(reg.Slots, slot)
	reg.Steps[step-1].Slots = append(reg.Steps[step-1].Slots, slot.Name)
	return saveRegistry(reg, registryPath)
}

func updateRegistry(field, value string) error {
	reg, err := registry.Load(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	switch field {
	case "name":
		reg.Name = value
	case "version":
		reg.Version = value
	case "maxFileSize":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid maxFileSize value: %s", value)
		}
		reg.MaxFileSize = n
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	return saveRegistry(reg, registryPath)
}

// saveRegistry validates reg before writing it.
func saveRegistry(reg *registry.Registry, path string) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Println(`
Usage: flow-registry <command> [flags]

Commands:
  export    Write a built-in wizard flow to a JSON registry file
  add-slot  Add a document slot to a step
  update    Update a registry-wide field
  validate  Validate a registry file
  help      Show this help message

Examples:
  flow-registry export -flow new-application -path configs/flow-registry.json
  flow-registry add-slot -name birth_certificate -label "Birth certificate" -step 2 -optional
  flow-registry update -field maxFileSize -value 5242880
  flow-registry validate -path configs/flow-registry.json

The resulting file is passed to 'portal submit -registry <file>'.
Use 'flow-registry <command> -h' for more information about a command.`)
}
