package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/flyberryhq/auditpipe/internal/model"
	apperrors "github.com/flyberryhq/auditpipe/pkg/errors"
)

// Profile names the closed set of projections.
const (
	ProfileDeveloperJSON = "developer.json"
	ProfileExecCSV       = "exec.csv"
	ProfileBrandGuide    = "brand-guide.html"
)

// Profiles lists every renderable projection in presentation order.
var Profiles = []string{ProfileDeveloperJSON, ProfileExecCSV, ProfileBrandGuide}

// KnownProfile reports whether the profile is renderable.
func KnownProfile(profile string) bool {
	for _, p := range Profiles {
		if p == profile {
			return true
		}
	}
	return false
}

// Render projects a finalized canonical run into the given profile. The
// output is a pure function of (run, profile): two invocations over the same
// record produce byte-identical content.
func Render(run *model.CanonicalRun, profile string) ([]byte, error) {
	switch profile {
	case ProfileDeveloperJSON:
		return renderDeveloperJSON(run)
	case ProfileExecCSV:
		return renderExecCSV(run)
	case ProfileBrandGuide:
		return renderBrandGuide(run)
	default:
		return nil, apperrors.NewValidationError("profile", fmt.Sprintf("unknown profile '%s'", profile), nil)
	}
}

// WriteFile renders the profile and persists it at outPath, creating parent
// directories as needed.
func WriteFile(run *model.CanonicalRun, profile, outPath string) error {
	content, err := Render(run, profile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, content, 0o644)
}

// DefaultFileName is the conventional file name for a profile, used when no
// explicit output path is given; it matches the profile identifier.
func DefaultFileName(profile string) string {
	return profile
}
