// Package domain contains core business types and interfaces.
//
// This file defines the Sample type: a single downloadable audio item that
// belongs to a pack and is priced in credits.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SampleType is the kind of audio content a sample holds.
type SampleType string

const (
	SampleTypeOneShot SampleType = "one_shot"
	SampleTypeLoop    SampleType = "loop"
)

// SampleTypes lists every known sample type in display order.
var SampleTypes = []SampleType{SampleTypeOneShot, SampleTypeLoop}

// ParseSampleType converts user input into a SampleType.
// Accepts "one_shot", "one-shot", "oneshot" and "loop" in any case.
func ParseSampleType(s string) (SampleType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one_shot", "one-shot", "oneshot":
		return SampleTypeOneShot, nil
	case "loop":
		return SampleTypeLoop, nil
	default:
		return "", fmt.Errorf("unknown sample type %q", s)
	}
}

// Valid reports whether t is one of the known sample types.
func (t SampleType) Valid() bool {
	return t == SampleTypeOneShot || t == SampleTypeLoop
}

// Sample is a single item from a sample pack.
type Sample struct {
	ID                 uuid.UUID
	PackID             uuid.UUID
	Name               string
	Type               SampleType
	IsPremium          bool
	HasStems           bool
	CreditCostOverride *int   // Admin-set price; only positive values take effect
	FileKey            string // Storage key of the audio file
	StemsKey           string // Storage key of the stems archive, empty when HasStems is false
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SampleQuote is the credit price breakdown for one sample.
type SampleQuote struct {
	SampleID   uuid.UUID `json:"sample_id,omitempty"`
	Base       int       `json:"base"`
	Stems      int       `json:"stems"`
	Total      int       `json:"total"`
	Overridden bool      `json:"overridden"`
}

// SampleDownload is the result of charging a customer for a sample.
type SampleDownload struct {
	SampleID     uuid.UUID `json:"sample_id"`
	Cost         int       `json:"cost"`
	BalanceAfter int       `json:"balance_after"`
	FileURL      string    `json:"file_url"`
	StemsURL     string    `json:"stems_url,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}
