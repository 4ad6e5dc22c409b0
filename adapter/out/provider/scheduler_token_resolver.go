package provider

import (
	"context"
	"errors"

	"scheduler_server/core/port/out"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no usable token is configured for a user.
var ErrNoToken = errors.New("no oauth2 token available")

// StaticTokenResolver serves one pre-issued token for every user. Token
// lifecycle (issuance, refresh, revocation) is owned by an external service;
// deployments that manage tokens per user plug in their own TokenResolver.
type StaticTokenResolver struct {
	token *oauth2.Token
}

// NewStaticTokenResolver wraps a pre-issued access/refresh token pair.
func NewStaticTokenResolver(accessToken, refreshToken string) *StaticTokenResolver {
	return &StaticTokenResolver{
		token: &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
	}
}

func (r *StaticTokenResolver) OAuth2Token(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error) {
	if r.token == nil || (r.token.AccessToken == "" && r.token.RefreshToken == "") {
		return nil, ErrNoToken
	}
	return r.token, nil
}

var _ out.TokenResolver = (*StaticTokenResolver)(nil)
