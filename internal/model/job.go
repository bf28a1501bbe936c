package model

import (
	"strings"
	"time"
)

// Job represents a single job listing returned by the jobs API.
type Job struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CompanyName string    `json:"companyName"`
	JobName     string    `json:"jobName"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Salary      string    `json:"salary"` // texto livre ex: "R$ 5.000 - R$ 8.000"
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

// Field returns the value of a searchable field by its wire name.
// An unknown name returns "".
func (j Job) Field(name string) string {
	switch name {
	case "name":
		return j.Name
	case "companyName":
		return j.CompanyName
	case "location":
		return j.Location
	case "jobName":
		return j.JobName
	case "salary":
		return j.Salary
	}
	return ""
}

// FullText returns the fields matched by an unscoped search, lowercased.
func (j Job) FullText() string {
	return strings.ToLower(
		j.Name + " " + j.CompanyName + " " + j.JobName + " " + j.Location,
	)
}

// User is the signed-in user as kept by the session store.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage"`
	// Token is forwarded to the jobs API as a bearer token. Never rendered.
	Token string `json:"token,omitempty"`
}

// Meta carries the pagination metadata of a result page.
type Meta struct {
	Total int `json:"total"`
}

// Page is one page of results from the jobs query endpoint.
type Page struct {
	Data []Job `json:"data"`
	Meta Meta  `json:"meta"`
}
