/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package models

import "github.com/suparena/recordstore/filter"

// ProjectQuery filters project listings. Name matches by substring.
type ProjectQuery struct {
	filter.Query `db:"-"`
	Name         string `db:"name"   json:"name,omitempty"`
	Code         string `db:"code"   json:"code,omitempty"`
	Status       *int   `db:"status" json:"status,omitempty"`
}

// UserQuery filters user listings. Username and nickname match by substring.
type UserQuery struct {
	filter.Query `db:"-"`
	Username     string `db:"username" json:"username,omitempty"`
	Nickname     string `db:"nickname" json:"nickname,omitempty"`
	Email        string `db:"email"    json:"email,omitempty"`
	Status       *int   `db:"status"   json:"status,omitempty"`
}

// APIKeyQuery filters API key listings. Key name matches by substring.
type APIKeyQuery struct {
	filter.Query `db:"-"`
	UserID       string `db:"user_id"   json:"userId,omitempty"`
	KeyType      string `db:"key_type"  json:"keyType,omitempty"`
	KeyName      string `db:"key_name"  json:"keyName,omitempty"`
	IsActive     *bool  `db:"is_active" json:"isActive,omitempty"`
}

// ProjectCreateReq carries the fields of a new project.
type ProjectCreateReq struct {
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description string  `json:"description,omitempty"`
	Budget      float64 `json:"budget,omitempty"`
}

// Project builds the draft project described by the request.
func (r ProjectCreateReq) Project() Project {
	return Project{
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		Budget:      r.Budget,
		Status:      ProjectDraft,
	}
}

// ReportGenerateReq asks for a report on one project.
type ReportGenerateReq struct {
	ProjectID int64  `json:"projectId"`
	Format    string `json:"format,omitempty"`
}
