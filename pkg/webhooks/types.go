// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

// KratosIdentity is the payload the Kratos after-registration webhook posts.
// InvitationToken is set when the user signed up from an invitation link.
type KratosIdentity struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name,omitempty"`
	InvitationToken string `json:"invitation_token,omitempty"`
}

// TokenHookResponse carries the claims Hydra merges into the issued tokens.
type TokenHookResponse struct {
	Session struct {
		IDToken     map[string]interface{} `json:"id_token,omitempty"`
		AccessToken map[string]interface{} `json:"access_token,omitempty"`
	} `json:"session"`
}
