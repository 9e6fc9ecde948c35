package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/flyberryhq/auditpipe/internal/logging"
	"github.com/flyberryhq/auditpipe/internal/model"
	apperrors "github.com/flyberryhq/auditpipe/pkg/errors"
)

// Mode selects how canonical-run schema validation behaves.
type Mode string

const (
	// ModeOff disables validation entirely.
	ModeOff Mode = "off"
	// ModeSoft validates and logs a warning on failure.
	ModeSoft Mode = "soft"
	// ModeStrict validates and fails the run on violation.
	ModeStrict Mode = "strict"
)

// SchemaFile is the canonical-run schema document, resolved under the
// project's schemas tree.
const SchemaFile = "audit_run.v1.json"

// Validator checks canonical runs against the audit_run JSON schema. When the
// schema document is absent any non-off mode degrades to a single warning.
type Validator struct {
	root string
	mode Mode
	log  logging.Logger
}

// NewValidator builds a schema validator rooted at the project directory.
func NewValidator(projectRoot string, mode Mode, log logging.Logger) *Validator {
	if log == nil {
		log = logging.NoOpLogger{}
	}
	return &Validator{root: projectRoot, mode: mode, log: log}
}

// Mode exposes the configured validation mode.
func (v *Validator) Mode() Mode { return v.mode }

// Validate checks the run record. The returned error is non-nil only under
// strict mode; soft-mode violations are logged and swallowed.
func (v *Validator) Validate(ctx context.Context, run *model.CanonicalRun) error {
	if v.mode == ModeOff {
		return nil
	}

	schemaPath := filepath.Join(v.root, "schemas", SchemaFile)
	if _, err := os.Stat(schemaPath); err != nil {
		v.log.Warn(ctx, fmt.Sprintf("%s schema not found; skipping validation", SchemaFile), "path", schemaPath)
		return nil
	}

	sch, err := jsonschema.Compile(schemaPath)
	if err != nil {
		v.log.Warn(ctx, "schema document failed to compile; skipping validation", "path", schemaPath, "error", err)
		return nil
	}

	instance, err := toInstance(run)
	if err != nil {
		if v.mode == ModeStrict {
			return apperrors.NewSchemaError(schemaPath, err)
		}
		v.log.Warn(ctx, "run record could not be encoded for validation", "error", err)
		return nil
	}

	if err := sch.Validate(instance); err != nil {
		location, message := violationDetail(err)
		violation := apperrors.NewSchemaError(location, fmt.Errorf("%s", message))
		if v.mode == ModeStrict {
			return violation
		}
		v.log.Warn(ctx, "schema validation failed", "location", location, "detail", message)
		return nil
	}

	v.log.Info(ctx, "schema validation passed")
	return nil
}

// toInstance round-trips the typed record through JSON so the schema engine
// sees exactly what would be persisted.
func toInstance(run *model.CanonicalRun) (interface{}, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var instance interface{}
	if err := dec.Decode(&instance); err != nil {
		return nil, err
	}
	return instance, nil
}

// violationDetail digs out the most specific cause so the error names the
// violated instance path.
func violationDetail(err error) (string, string) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return "", err.Error()
	}

	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	location := leaf.InstanceLocation
	if location == "" {
		location = "/"
	}
	return location, leaf.Message
}
