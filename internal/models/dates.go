package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the plain calendar date the inspection forms send.
const DateLayout = "2006-01-02"

// ParseDate accepts an RFC 3339 timestamp or a YYYY-MM-DD date, which is
// read as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

// flexDate decodes either date form. Empty strings and null leave it unset.
type flexDate struct {
	set bool
	t   *time.Time
}

func (d *flexDate) UnmarshalJSON(b []byte) error {
	d.set = true
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	d.t = &t
	return nil
}

func (in *Inspection) UnmarshalJSON(b []byte) error {
	type inspectionAlias Inspection
	aux := struct {
		*inspectionAlias
		InspectionDate flexDate `json:"inspection_date"`
		FollowUpDate   flexDate `json:"follow_up_date"`
	}{inspectionAlias: (*inspectionAlias)(in)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.InspectionDate.set {
		in.InspectionDate = time.Time{}
		if aux.InspectionDate.t != nil {
			in.InspectionDate = *aux.InspectionDate.t
		}
	}
	if aux.FollowUpDate.set {
		in.FollowUpDate = aux.FollowUpDate.t
	}
	return nil
}

func (v *ViolationDetail) UnmarshalJSON(b []byte) error {
	type violationAlias ViolationDetail
	aux := struct {
		*violationAlias
		Deadline flexDate `json:"deadline"`
	}{violationAlias: (*violationAlias)(v)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Deadline.set {
		v.Deadline = aux.Deadline.t
	}
	return nil
}
