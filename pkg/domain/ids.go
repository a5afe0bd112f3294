package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "veridoc/pkg/domain-errors"
)

// Record identifiers carry a short type prefix so log lines and audit entries
// stay readable without a schema lookup.
const (
	verificationIDPrefix = "ver_"
	disputeIDPrefix      = "disp_"
)

// NewVerificationID returns a fresh prefixed verification identifier.
func NewVerificationID() string {
	return verificationIDPrefix + uuid.NewString()
}

// NewDisputeID returns a fresh prefixed dispute identifier.
func NewDisputeID() string {
	return disputeIDPrefix + uuid.NewString()
}

// ValidateVerificationID checks a caller-supplied verification id at trust
// boundaries. Errors: CodeBadRequest on empty or wrongly prefixed values.
func ValidateVerificationID(id string) error {
	if id == "" {
		return dErrors.New(dErrors.CodeBadRequest, "verification id cannot be empty")
	}
	if !strings.HasPrefix(id, verificationIDPrefix) {
		return dErrors.New(dErrors.CodeBadRequest, "verification id must start with "+verificationIDPrefix)
	}
	return nil
}

// ValidateDisputeID checks a caller-supplied dispute id at trust boundaries.
func ValidateDisputeID(id string) error {
	if id == "" {
		return dErrors.New(dErrors.CodeBadRequest, "dispute id cannot be empty")
	}
	if !strings.HasPrefix(id, disputeIDPrefix) {
		return dErrors.New(dErrors.CodeBadRequest, "dispute id must start with "+disputeIDPrefix)
	}
	return nil
}
