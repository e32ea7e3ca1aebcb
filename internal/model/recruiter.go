package model

import "time"

// Permission codes embedded in recruiter JWTs.
type Permission string

const (
	PermissionAssessmentsRead    Permission = "assessments:read"
	PermissionAssessmentsWrite   Permission = "assessments:write"
	PermissionAssessmentsPublish Permission = "assessments:publish"
	PermissionCandidatesRead     Permission = "candidates:read"
	PermissionCandidatesWrite    Permission = "candidates:write"
	PermissionResultsRead        Permission = "results:read"
)

// AllPermissions is granted to recruiters created via the CLI.
var AllPermissions = []Permission{
	PermissionAssessmentsRead,
	PermissionAssessmentsWrite,
	PermissionAssessmentsPublish,
	PermissionCandidatesRead,
	PermissionCandidatesWrite,
	PermissionResultsRead,
}

// Recruiter is a back-office user who authors assessments and reviews results.
type Recruiter struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Permissions  []string  `json:"permissions"`
	CreatedAt    time.Time `json:"created_at"`
}

// RecruiterLoginRequest is the payload for recruiter login.
type RecruiterLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}
