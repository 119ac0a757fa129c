// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account. Two sign-up paths feed this struct:
// email/password (PasswordHash set, GitHubID zero) and GitHub OAuth
// (GitHubID set, PasswordHash empty). A UNIQUE constraint on email and on
// github_id keeps both paths collision-free.
//
// WHY GitHubID int64?
// GitHub user IDs are integers. int64 avoids overflow for large account
// numbers, and the zero value doubles as "no GitHub account linked" since
// GitHub never issues ID 0.
//
// PasswordHash is the full bcrypt output (salt included) and must never be
// serialized — hence `json:"-"`.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"githubId,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
