// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package audit

// Entity types recorded in the audit log.
const (
	EntityOrganization = "organization"
	EntityMembership   = "membership"
	EntityInvitation   = "invitation"
	EntityRole         = "role"
	EntityPermission   = "permission"
	EntityUser         = "user"
)

// Actions recorded in the audit log.
const (
	ActionOrganizationCreated = "organization.created"
	ActionOrganizationUpdated = "organization.updated"
	ActionOrganizationDeleted = "organization.deleted"

	ActionMemberAdded   = "member.added"
	ActionMemberUpdated = "member.updated"
	ActionMemberRemoved = "member.removed"

	ActionInvitationIssued   = "invitation.issued"
	ActionInvitationAccepted = "invitation.accepted"
	ActionInvitationCanceled = "invitation.canceled"

	ActionRoleCreated            = "role.created"
	ActionRoleUpdated            = "role.updated"
	ActionRoleDeleted            = "role.deleted"
	ActionRolePermissionsUpdated = "role.permissions_updated"
	ActionPermissionCreated      = "permission.created"

	ActionUserDeleted = "user.deleted"
)
