package model

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ProjectStatus is derived, never stored.
type ProjectStatus string

const (
	StatusSubmitted ProjectStatus = "Submitted"
	StatusOngoing   ProjectStatus = "Ongoing"
	StatusCancelled ProjectStatus = "Cancelled"
	StatusComplete  ProjectStatus = "Complete"
)

// Project is a tracked research project. Code is structured as
// lake_typeYY_sequence, e.g. LHA_IA12_111.
type Project struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	LeadID    int       `json:"lead_id"`
	DBAID     int       `json:"dba_id"`
	OwnerID   int       `json:"owner_id"`
	Lake      string    `json:"lake"`
	Type      string    `json:"type"`
	Year      int       `json:"year"`
	Cancelled bool      `json:"cancelled"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeriveStatus computes the lifecycle status from exactly three inputs,
// evaluated in order, first match wins:
//  1. cancelled              -> Cancelled
//  2. "Sign off" completed   -> Complete
//  3. "Approved" completed   -> Ongoing
//  4. otherwise              -> Submitted
func DeriveStatus(cancelled, approved, signedOff bool) ProjectStatus {
	switch {
	case cancelled:
		return StatusCancelled
	case signedOff:
		return StatusComplete
	case approved:
		return StatusOngoing
	default:
		return StatusSubmitted
	}
}

var codePattern = regexp.MustCompile(`^([A-Z]{2,3})_([A-Z]{2})(\d{2})_(\d{3})$`)

// ParseCode splits a project code into lake, project type, four-digit year
// and sequence number. Two-digit years at or above 60 fall in the 1900s; the
// oldest projects in the system date back to the sixties.
func ParseCode(code string) (lake, ptype string, year, seq int, err error) {
	m := codePattern.FindStringSubmatch(code)
	if m == nil {
		return "", "", 0, 0, fmt.Errorf("malformed project code %q", code)
	}

	yy, _ := strconv.Atoi(m[3])
	if yy >= 60 {
		year = 1900 + yy
	} else {
		year = 2000 + yy
	}
	seq, _ = strconv.Atoi(m[4])

	return m[1], m[2], year, seq, nil
}
