package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRetrieval      = errors.New("retrieval failure")
	ErrExtraction     = errors.New("extraction failure")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrPathNotFound   = errors.New("path not found")
	ErrConfiguration  = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		return errors.New(detail)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to the short event type used in structured logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRetrieval):
		return "retrieval_failure"
	case errors.Is(err, ErrExtraction):
		return "extraction_failure"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, ErrPathNotFound):
		return "path_not_found"
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	default:
		return "unexpected_error"
	}
}

// Hint returns a short remediation suggestion for the error's kind.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrRetrieval):
		return "check network access and the remote URL"
	case errors.Is(err, ErrExtraction):
		return "delete the archive and download it again"
	case errors.Is(err, ErrSchemaMismatch):
		return "verify the annotation file is a COCO Human Parts export"
	case errors.Is(err, ErrPathNotFound):
		return "check the input paths"
	case errors.Is(err, ErrConfiguration):
		return "run 'humanparts config validate'"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "operation failure"
	}
	return strings.Join(parts, ": ")
}
