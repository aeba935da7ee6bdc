// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/canonical/organization-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package client -destination ./mock_interfaces.go -source=./interfaces.go

func TestPermissionCache_LoadOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := NewMockPermissionFetcherInterface(ctrl)
	fetcher.EXPECT().MyPermissions(gomock.Any(), "org-1").
		Return(types.NewPermissionSet(types.PermissionOrgUpdate, types.PermissionMemberView), nil).
		Times(1)

	cache := NewPermissionCache(fetcher)

	for i := 0; i < 3; i++ {
		if err := cache.Load(context.Background(), "org-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if !cache.HasPermission("org-1", types.PermissionOrgUpdate) {
		t.Error("expected org.update to be granted")
	}
	if cache.HasPermission("org-1", types.PermissionOrgDelete) {
		t.Error("expected org.delete to be denied")
	}
	if cache.OrganizationID() != "org-1" {
		t.Errorf("expected org-1, got %s", cache.OrganizationID())
	}
}

func TestPermissionCache_SwitchOrganization(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := NewMockPermissionFetcherInterface(ctrl)
	gomock.InOrder(
		fetcher.EXPECT().MyPermissions(gomock.Any(), "org-1").
			Return(types.NewPermissionSet(types.PermissionOrgDelete), nil),
		fetcher.EXPECT().MyPermissions(gomock.Any(), "org-2").
			Return(types.NewPermissionSet(types.PermissionBillingView), nil),
	)

	cache := NewPermissionCache(fetcher)

	if err := cache.Load(context.Background(), "org-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cache.Load(context.Background(), "org-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cache.HasPermission("org-1", types.PermissionOrgDelete) {
		t.Error("permissions of the previous organization leaked")
	}
	if cache.HasPermission("org-2", types.PermissionOrgDelete) {
		t.Error("permissions of the previous organization leaked")
	}
	if !cache.HasPermission("org-2", types.PermissionBillingView) {
		t.Error("expected billing.view in org-2")
	}
}

func TestPermissionCache_InvalidateAndReload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := NewMockPermissionFetcherInterface(ctrl)
	gomock.InOrder(
		fetcher.EXPECT().MyPermissions(gomock.Any(), "org-1").
			Return(types.NewPermissionSet(types.PermissionBillingView), nil),
		fetcher.EXPECT().MyPermissions(gomock.Any(), "org-1").
			Return(types.NewPermissionSet(types.PermissionBillingView, types.PermissionOrgDelete), nil),
	)

	cache := NewPermissionCache(fetcher)

	if err := cache.Load(context.Background(), "org-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.HasPermission("org-1", types.PermissionOrgDelete) {
		t.Fatal("expected org.delete to be denied before the role change")
	}

	cache.Invalidate()
	if cache.HasPermission("org-1", types.PermissionBillingView) {
		t.Error("expected an invalidated cache to deny")
	}

	if err := cache.Reload(context.Background(), "org-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cache.HasPermission("org-1", types.PermissionOrgDelete) {
		t.Error("expected org.delete after reload")
	}
}

func TestPermissionCache_FetchErrorDenies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := NewMockPermissionFetcherInterface(ctrl)
	gomock.InOrder(
		fetcher.EXPECT().MyPermissions(gomock.Any(), "org-1").
			Return(types.NewPermissionSet(types.PermissionOrgView), nil),
		fetcher.EXPECT().MyPermissions(gomock.Any(), "org-2").
			Return(types.PermissionSet{}, errors.New("boom")),
	)

	cache := NewPermissionCache(fetcher)

	if err := cache.Load(context.Background(), "org-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cache.Load(context.Background(), "org-2"); err == nil {
		t.Fatal("expected error")
	}

	if cache.HasPermission("org-1", types.PermissionOrgView) {
		t.Error("expected a failed load to deny everything")
	}
	if cache.OrganizationID() != "" {
		t.Errorf("expected no organization, got %s", cache.OrganizationID())
	}
}

func TestPermissionCache_ConcurrentReads(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := NewMockPermissionFetcherInterface(ctrl)
	fetcher.EXPECT().MyPermissions(gomock.Any(), "org-1").
		Return(types.NewPermissionSet(types.PermissionOrgView), nil)

	cache := NewPermissionCache(fetcher)
	if err := cache.Load(context.Background(), "org-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !cache.HasPermission("org-1", types.PermissionOrgView) {
				t.Error("expected org.view")
			}
		}()
	}
	wg.Wait()
}

func TestPermissionCache_InvalidateDuringLoad(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetching := make(chan struct{})
	resume := make(chan struct{})

	fetcher := NewMockPermissionFetcherInterface(ctrl)
	fetcher.EXPECT().MyPermissions(gomock.Any(), "org-1").DoAndReturn(
		func(context.Context, string) (types.PermissionSet, error) {
			close(fetching)
			<-resume
			return types.NewPermissionSet(types.PermissionOrgDelete), nil
		},
	)

	cache := NewPermissionCache(fetcher)

	done := make(chan error, 1)
	go func() {
		done <- cache.Load(context.Background(), "org-1")
	}()

	<-fetching
	cache.Invalidate()
	close(resume)

	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cache.HasPermission("org-1", types.PermissionOrgDelete) {
		t.Error("a set fetched before the invalidation must not be stored")
	}
	if cache.OrganizationID() != "" {
		t.Errorf("expected no organization, got %s", cache.OrganizationID())
	}
}
