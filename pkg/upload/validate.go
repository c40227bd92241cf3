package upload

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	ErrMissingRequiredDocument = errors.New("required document is missing")
	ErrUnsupportedDocumentType = errors.New("unsupported document type")
	ErrDocumentTooLarge        = errors.New("document is too large")
	ErrEmptyDocument           = errors.New("document is empty")
	ErrUnreadableDocument      = errors.New("document could not be read")
)

var DefaultExtensions = []string{"txt", "csv", "text", "pdf", "xlsx"}

const DefaultMaxBytes = 10 * 1024 * 1024

// SlotError ties a validation failure to the slot that caused it.
type SlotError struct {
	Label string
	Err   error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("%s: %v", e.Label, e.Err)
}

func (e *SlotError) Unwrap() error {
	return e.Err
}

type ValidationResult struct {
	Errors []error
}

func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Err joins every failure, or returns nil when valid.
func (r ValidationResult) Err() error {
	return errors.Join(r.Errors...)
}

// Validator checks slots locally; it never touches the network.
type Validator struct {
	MaxBytes   int64
	Extensions []string
}

func NewValidator(maxBytes int64) Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return Validator{MaxBytes: maxBytes, Extensions: DefaultExtensions}
}

func (v Validator) Validate(slots Slots) ValidationResult {
	var res ValidationResult
	for _, slot := range slots {
		if slot.Empty() {
			if slot.Requirement == Required {
				res.Errors = append(res.Errors, &SlotError{Label: slot.Label, Err: ErrMissingRequiredDocument})
			}
			continue
		}
		if err := v.checkFile(slot.File); err != nil {
			res.Errors = append(res.Errors, &SlotError{Label: slot.Label, Err: err})
		}
	}
	return res
}

func (v Validator) checkFile(f *File) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
	if !v.allowed(ext) {
		return fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedDocumentType, f.Name, strings.Join(v.Extensions, ", "))
	}
	if len(f.Data) == 0 {
		return ErrEmptyDocument
	}
	if v.MaxBytes > 0 && int64(len(f.Data)) > v.MaxBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrDocumentTooLarge, len(f.Data), v.MaxBytes)
	}
	if ext == "pdf" {
		return checkPDF(f.Data)
	}
	return nil
}

func (v Validator) allowed(ext string) bool {
	for _, e := range v.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// checkPDF opens the document and requires at least one page. The parser
// panics on some corrupt inputs, so those are reported as unreadable too.
func checkPDF(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnreadableDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	if reader.NumPage() == 0 {
		return fmt.Errorf("%w: no pages", ErrUnreadableDocument)
	}
	return nil
}
