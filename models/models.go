/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package models

import "time"

// Project statuses.
const (
	ProjectDraft = iota
	ProjectPending
	ProjectApproved
	ProjectInProgress
	ProjectCompleted
	ProjectSuspended
	ProjectCancelled
	ProjectRejected
)

var projectStatusNames = []string{
	"draft", "pending", "approved", "in_progress",
	"completed", "suspended", "cancelled", "rejected",
}

// ProjectStatusName returns the name of a project status code.
func ProjectStatusName(status int) string {
	if status < 0 || status >= len(projectStatusNames) {
		return "unknown"
	}
	return projectStatusNames[status]
}

// Project is a research project.
type Project struct {
	ID          int64     `db:"id"          json:"id"`
	Code        string    `db:"code"        json:"code"        valid:"required"`
	Name        string    `db:"name"        json:"name"        valid:"required"`
	Description string    `db:"description" json:"description,omitempty"`
	Budget      float64   `db:"budget"      json:"budget"`
	Progress    int       `db:"progress"    json:"progress"    valid:"range(0|100)"`
	Status      int       `db:"status"      json:"status"`
	CreatedAt   time.Time `db:"created_at"  json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updatedAt"`
}

func (p *Project) StampCreated(now time.Time) { p.CreatedAt = now }
func (p *Project) StampUpdated(now time.Time) { p.UpdatedAt = now }

// User is a system account.
type User struct {
	ID        int64     `db:"id"         json:"id"`
	Username  string    `db:"username"   json:"username" valid:"required"`
	Password  string    `db:"password"   json:"-"`
	Email     string    `db:"email"      json:"email,omitempty"`
	Phone     string    `db:"phone"      json:"phone,omitempty"`
	Nickname  string    `db:"nickname"   json:"nickname,omitempty"`
	Avatar    string    `db:"avatar"     json:"avatar,omitempty"`
	Status    int       `db:"status"     json:"status"`
	Remark    string    `db:"remark"     json:"remark,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func (u *User) StampCreated(now time.Time) { u.CreatedAt = now }
func (u *User) StampUpdated(now time.Time) { u.UpdatedAt = now }

// APIKey is a Dify credential owned by a user.
type APIKey struct {
	ID          string    `db:"id"          json:"id"`
	UserID      string    `db:"user_id"     json:"userId"    valid:"required"`
	KeyType     string    `db:"key_type"    json:"keyType"   valid:"required"`
	ResourceID  string    `db:"resource_id" json:"resourceId,omitempty"`
	APIKey      string    `db:"api_key"     json:"-"         valid:"required"`
	KeyName     string    `db:"key_name"    json:"keyName,omitempty"`
	Description string    `db:"description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active"   json:"isActive"`
	CreatedAt   time.Time `db:"created_at"  json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updatedAt"`
}

func (k *APIKey) StampCreated(now time.Time) { k.CreatedAt = now }
func (k *APIKey) StampUpdated(now time.Time) { k.UpdatedAt = now }
