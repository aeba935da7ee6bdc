// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package kratos

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	ory "github.com/ory/client-go"

	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/tracing"
)

func TestUserFromIdentity(t *testing.T) {
	tests := []struct {
		name          string
		traits        interface{}
		expectedEmail string
		expectedName  string
	}{
		{
			name:          "string name",
			traits:        map[string]interface{}{"email": "ada@example.com", "name": "Ada Lovelace"},
			expectedEmail: "ada@example.com",
			expectedName:  "Ada Lovelace",
		},
		{
			name:          "structured name",
			traits:        map[string]interface{}{"email": "ada@example.com", "name": map[string]interface{}{"first": "Ada", "last": "Lovelace"}},
			expectedEmail: "ada@example.com",
			expectedName:  "Ada Lovelace",
		},
		{
			name:   "unexpected traits",
			traits: "nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := UserFromIdentity(&ory.Identity{Id: "id-1", Traits: tt.traits})

			if u.ID != "id-1" || u.Email != tt.expectedEmail || u.Name != tt.expectedName {
				t.Errorf("unexpected user %+v", u)
			}
		})
	}
}

func TestClient_GetIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/identities/known":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id":         "known",
				"schema_id":  "default",
				"schema_url": "http://kratos/schemas/default",
				"traits":     map[string]interface{}{"email": "known@example.com"},
			})
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
		}
	}))
	defer srv.Close()

	logger := logging.NewNoopLogger()
	c := NewClient(srv.URL, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)

	u, err := c.GetIdentity(context.Background(), "known")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "known@example.com" {
		t.Errorf("unexpected email %q", u.Email)
	}

	if _, err := c.GetIdentity(context.Background(), "missing"); !errors.Is(err, ErrIdentityNotFound) {
		t.Errorf("expected ErrIdentityNotFound, got %v", err)
	}
}
