package validation

import (
	"net/url"
	"strings"

	apperrors "go-realtone/internal/errors"
)

// DefaultSchemes are the image reference schemes accepted out of the box
var DefaultSchemes = []string{"http", "https", "file", "azblob"}

// ReferenceValidator checks image references before any storage is touched
type ReferenceValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewReferenceValidator accepts every default scheme and any host
func NewReferenceValidator() *ReferenceValidator {
	return &ReferenceValidator{
		allowedSchemes: DefaultSchemes,
	}
}

// NewReferenceValidatorWithOptions restricts schemes and, for network
// schemes, hosts. An empty host list allows every host.
func NewReferenceValidatorWithOptions(schemes []string, hosts []string) *ReferenceValidator {
	return &ReferenceValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// Scheme returns the storage scheme of a reference; bare paths are "file"
func Scheme(ref string) string {
	if !strings.Contains(ref, "://") {
		return "file"
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// ValidateReference reports a validation AppError for unusable references
func (v *ReferenceValidator) ValidateReference(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return apperrors.NewValidationError("image reference cannot be empty", nil)
	}

	scheme := Scheme(ref)
	if !v.isSchemeAllowed(scheme) {
		return apperrors.NewValidationError("image reference scheme not allowed", nil).WithDetails(scheme)
	}
	if scheme == "file" {
		return nil
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return apperrors.NewValidationError("invalid image reference format", err)
	}
	if parsed.Host == "" {
		return apperrors.NewValidationError("image reference must have a host", nil)
	}
	if (scheme == "http" || scheme == "https") && !v.isHostAllowed(parsed.Host) {
		return apperrors.NewValidationError("image reference host not allowed", nil).WithDetails(parsed.Host)
	}
	return nil
}

func (v *ReferenceValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

func (v *ReferenceValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}
