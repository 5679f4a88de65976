package models

import (
	"bytes"
	"encoding/json"
)

// NotFound marks a field whose extraction was attempted but matched nothing.
const NotFound = "Not found"

// Report is the business-intelligence record produced once per run
type Report struct {
	Identity        Identity        `json:"identity" yaml:"identity"`
	BusinessSummary BusinessSummary `json:"business_summary" yaml:"business_summary"`
	EvidenceProof   EvidenceProof   `json:"evidence_proof" yaml:"evidence_proof"`
	ContactLocation ContactLocation `json:"contact_location" yaml:"contact_location"`
	TeamHiring      TeamHiring      `json:"team_hiring" yaml:"team_hiring"`
	Metadata        Metadata        `json:"metadata" yaml:"metadata"`
}

// Identity describes who the company is
type Identity struct {
	CompanyName string `json:"company_name" yaml:"company_name"`
	WebsiteURL  string `json:"website_url" yaml:"website_url"`
	Tagline     string `json:"tagline" yaml:"tagline"`
}

// BusinessSummary describes what the company does
type BusinessSummary struct {
	WhatTheyDo       string   `json:"what_they_do" yaml:"what_they_do"`
	PrimaryOfferings TextList `json:"primary_offerings" yaml:"primary_offerings"`
	TargetSegments   TextList `json:"target_segments" yaml:"target_segments"`
}

// EvidenceProof holds the signals backing the summary
type EvidenceProof struct {
	KeyPagesDetected []string          `json:"key_pages_detected" yaml:"key_pages_detected"`
	SignalsFound     []string          `json:"signals_found" yaml:"signals_found"`
	SocialLinks      map[string]string `json:"social_links" yaml:"social_links"`
}

// ContactLocation holds contact details found in page text
type ContactLocation struct {
	Emails         []string `json:"emails" yaml:"emails"`
	Phones         []string `json:"phones" yaml:"phones"`
	ContactPageURL string   `json:"contact_page_url" yaml:"contact_page_url"`
}

// TeamHiring holds hiring signals
type TeamHiring struct {
	CareersPageURL  string   `json:"careers_page_url" yaml:"careers_page_url"`
	OpenRolesSample TextList `json:"open_roles_sample" yaml:"open_roles_sample"`
}

// Metadata describes the crawl that produced the report
type Metadata struct {
	Timestamp    string   `json:"timestamp" yaml:"timestamp"`
	PagesCrawled []string `json:"pages_crawled" yaml:"pages_crawled"`
	TotalPages   int      `json:"total_pages" yaml:"total_pages"`
	Errors       []string `json:"errors" yaml:"errors"`
}

// TextList is a list extraction result. When Found is false it serialises
// as the NotFound sentinel instead of an empty list.
type TextList struct {
	Items []string
	Found bool
}

// Missing returns the sentinel list.
func Missing() TextList {
	return TextList{}
}

// Found wraps items, falling back to the sentinel when there are none.
func Found(items []string) TextList {
	if len(items) == 0 {
		return Missing()
	}
	return TextList{Items: items, Found: true}
}

// String renders the list for human-readable output.
func (l TextList) String() string {
	if !l.Found {
		return NotFound
	}
	var b bytes.Buffer
	for i, item := range l.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(item)
	}
	return b.String()
}

func (l TextList) MarshalJSON() ([]byte, error) {
	var v any = NotFound
	if l.Found {
		v = l.Items
	}
	// json.Marshal would escape <, > and &; the report keeps them literal.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (l *TextList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = Missing()
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = Found(items)
	return nil
}

func (l TextList) MarshalYAML() (any, error) {
	if !l.Found {
		return NotFound, nil
	}
	return l.Items, nil
}
