// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

type OrganizationStatus string

const (
	OrganizationActive    OrganizationStatus = "active"
	OrganizationSuspended OrganizationStatus = "suspended"
	OrganizationArchived  OrganizationStatus = "archived"
)

func (s OrganizationStatus) Valid() bool {
	switch s {
	case OrganizationActive, OrganizationSuspended, OrganizationArchived:
		return true
	}
	return false
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// Built-in role names seeded by the migrations.
const (
	RoleOwner  = "Owner"
	RoleAdmin  = "Admin"
	RoleMember = "Member"
)

type User struct {
	ID        string     `db:"id" json:"id"`
	Email     string     `db:"email" json:"email"`
	Name      string     `db:"name" json:"name"`
	IsAdmin   bool       `db:"is_admin" json:"is_admin"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

type Organization struct {
	ID        string             `db:"id" json:"id"`
	Name      string             `db:"name" json:"name"`
	Slug      string             `db:"slug" json:"slug"`
	Status    OrganizationStatus `db:"status" json:"status"`
	CreatedBy *string            `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt time.Time          `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time         `db:"deleted_at" json:"deleted_at,omitempty"`
}

// OrganizationUpdate carries the optional fields of a partial update.
type OrganizationUpdate struct {
	Name   *string
	Status *OrganizationStatus
}

type Role struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type Permission struct {
	ID          string    `db:"id" json:"id"`
	Key         string    `db:"key" json:"key"`
	Category    string    `db:"category" json:"category"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Membership links a user to an organization with exactly one role.
// Email and Name are filled when listing members.
type Membership struct {
	ID             string     `db:"id" json:"id"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	UserID         string     `db:"user_id" json:"user_id"`
	RoleID         string     `db:"role_id" json:"role_id"`
	RoleName       string     `db:"role_name" json:"role_name"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	Email          string     `db:"email" json:"email,omitempty"`
	Name           string     `db:"name" json:"name,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// IsEffective reports whether the membership grants permissions.
func (m *Membership) IsEffective() bool {
	return m.IsActive && m.DeletedAt == nil
}

// MembershipUpdate carries the optional fields of a partial update.
type MembershipUpdate struct {
	RoleID   *string
	IsActive *bool
}

type Invitation struct {
	ID             string           `db:"id" json:"id"`
	OrganizationID string           `db:"organization_id" json:"organization_id"`
	Email          string           `db:"email" json:"email"`
	RoleID         string           `db:"role_id" json:"role_id"`
	Token          string           `db:"token" json:"token,omitempty"`
	Status         InvitationStatus `db:"status" json:"status"`
	ExpiresAt      time.Time        `db:"expires_at" json:"expires_at"`
	InvitedBy      *string          `db:"invited_by" json:"invited_by,omitempty"`
	AcceptedBy     *string          `db:"accepted_by" json:"accepted_by,omitempty"`
	AcceptedAt     *time.Time       `db:"accepted_at" json:"accepted_at,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time       `db:"deleted_at" json:"deleted_at,omitempty"`
}

// IsOverdue reports whether a pending invitation is past its expiry at now.
func (i *Invitation) IsOverdue(now time.Time) bool {
	return i.Status == InvitationPending && !now.Before(i.ExpiresAt)
}

type AuditLog struct {
	ID             string                 `db:"id" json:"id"`
	ActorID        *string                `db:"actor_id" json:"actor_id,omitempty"`
	OrganizationID *string                `db:"organization_id" json:"organization_id,omitempty"`
	Action         string                 `db:"action" json:"action"`
	EntityType     string                 `db:"entity_type" json:"entity_type"`
	EntityID       string                 `db:"entity_id" json:"entity_id"`
	Details        map[string]interface{} `db:"details" json:"details"`
	CreatedAt      time.Time              `db:"created_at" json:"created_at"`
}

// AuditFilter narrows an audit log listing; a nil OrganizationID lists all.
type AuditFilter struct {
	OrganizationID *string
	Page           int64
	Size           int64
}
