package server

import (
	"fmt"
	"time"

	"github.com/wncfund/proposalkit/internal/compose"
	"github.com/wncfund/proposalkit/internal/retrieval"
)

// generateRequest is the JSON body accepted by both generate routes. At
// least one of the two brief fields is required.
type generateRequest struct {
	CampaignBrief string `json:"campaign_brief"`
	OrgBrief      string `json:"org_brief"`

	Audience string `json:"audience"`
	Tone     string `json:"tone"`
	Ask      string `json:"ask"`
	Deadline string `json:"deadline"`

	K               int              `json:"k"`
	RetrieveFilters *retrieveFilters `json:"retrieve_filters"`
}

type retrieveFilters struct {
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

const filterDateLayout = "2006-01-02"

// filter converts the wire filters into retrieval bounds.
func (r generateRequest) filter() (retrieval.Filter, error) {
	var f retrieval.Filter
	if r.RetrieveFilters == nil {
		return f, nil
	}
	if r.RetrieveFilters.DateFrom != "" {
		t, err := time.Parse(filterDateLayout, r.RetrieveFilters.DateFrom)
		if err != nil {
			return f, fmt.Errorf("invalid date_from %q", r.RetrieveFilters.DateFrom)
		}
		f.DateFrom = &t
	}
	if r.RetrieveFilters.DateTo != "" {
		t, err := time.Parse(filterDateLayout, r.RetrieveFilters.DateTo)
		if err != nil {
			return f, fmt.Errorf("invalid date_to %q", r.RetrieveFilters.DateTo)
		}
		f.DateTo = &t
	}
	return f, nil
}

// emailView is the typed email shape, attached only when the generator
// produced structured output.
type emailView struct {
	SubjectLines []string         `json:"subject_lines"`
	BodyMD       string           `json:"body_md"`
	Sources      []compose.Source `json:"sources"`
}

// narrativeView is the typed narrative shape.
type narrativeView struct {
	BodyMD  string           `json:"body_md"`
	Sources []compose.Source `json:"sources"`
}
