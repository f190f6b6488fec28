package model

import "time"

// Family gives a cluster of sister projects a shared identity. It exists only
// while it has at least two members.
type Family struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// SisterLink ties a project to its family. A project has zero or one link.
type SisterLink struct {
	ID        int `json:"id"`
	ProjectID int `json:"project_id"`
	FamilyID  int `json:"family_id"`
}
