// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"sort"
)

// Permission keys seeded by the migrations.
const (
	PermissionOrgView           = "org.view"
	PermissionOrgUpdate         = "org.update"
	PermissionOrgDelete         = "org.delete"
	PermissionMemberView        = "member.view"
	PermissionMemberInvite      = "member.invite"
	PermissionMemberUpdate      = "member.update"
	PermissionMemberRemove      = "member.remove"
	PermissionRoleView          = "role.view"
	PermissionBillingView       = "billing.view"
	PermissionBillingManage     = "billing.manage"
	PermissionAuditView         = "audit.view"
	PermissionIntegrationView   = "integration.view"
	PermissionIntegrationManage = "integration.manage"
)

// PermissionSet is the set of permission keys a user holds in one organization.
// The zero value is the empty set and grants nothing.
type PermissionSet struct {
	keys map[string]struct{}
}

func NewPermissionSet(keys ...string) PermissionSet {
	ps := PermissionSet{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		if k == "" {
			continue
		}
		ps.keys[k] = struct{}{}
	}
	return ps
}

func (ps PermissionSet) Has(key string) bool {
	if ps.keys == nil {
		return false
	}
	_, ok := ps.keys[key]
	return ok
}

func (ps PermissionSet) Len() int {
	return len(ps.keys)
}

func (ps PermissionSet) IsEmpty() bool {
	return len(ps.keys) == 0
}

// Missing returns the keys, in lexical order, that the set does not hold.
func (ps PermissionSet) Missing(keys ...string) []string {
	missing := make([]string, 0)
	for _, k := range keys {
		if !ps.Has(k) {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing
}

// Keys returns the keys in lexical order.
func (ps PermissionSet) Keys() []string {
	keys := make([]string, 0, len(ps.keys))
	for k := range ps.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (ps PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(ps.Keys())
}

func (ps *PermissionSet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*ps = NewPermissionSet(keys...)
	return nil
}
