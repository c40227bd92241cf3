package upload

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Dhruv3sood/finq/pkg/backend"
)

type Requirement int

const (
	Required Requirement = iota
	Optional
)

func (r Requirement) String() string {
	if r == Optional {
		return "optional"
	}
	return "required"
}

// File is a document chosen by the user.
type File struct {
	Name string
	Data []byte
}

// LoadFile reads a document from disk.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &File{Name: filepath.Base(path), Data: data}, nil
}

// Slot is a named place for one document. File is nil while empty.
type Slot struct {
	Field       string
	Label       string
	Requirement Requirement
	File        *File
}

func (s Slot) Empty() bool {
	return s.File == nil
}

// Slots is ordered: the order is the multipart field order.
type Slots []Slot

const (
	FieldBalanceSheet   = "balance_sheet"
	FieldCompanyProfile = "company_profile"
)

// ChatSlots: the balance sheet is required, the company profile optional.
func ChatSlots(balanceSheet, companyProfile *File) Slots {
	return Slots{
		{Field: FieldBalanceSheet, Label: "Balance sheet", Requirement: Required, File: balanceSheet},
		{Field: FieldCompanyProfile, Label: "Company profile", Requirement: Optional, File: companyProfile},
	}
}

// PresentationSlots: both documents are required.
func PresentationSlots(balanceSheet, companyProfile *File) Slots {
	return Slots{
		{Field: FieldBalanceSheet, Label: "Balance sheet", Requirement: Required, File: balanceSheet},
		{Field: FieldCompanyProfile, Label: "Company profile", Requirement: Required, File: companyProfile},
	}
}

// request builds the multipart body; empty optional slots are left out.
func (s Slots) request() backend.UploadRequest {
	req := backend.UploadRequest{}
	for _, slot := range s {
		if slot.Empty() {
			continue
		}
		req.Parts = append(req.Parts, backend.Part{
			Field:    slot.Field,
			Filename: slot.File.Name,
			Data:     slot.File.Data,
		})
	}
	return req
}
