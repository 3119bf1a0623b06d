package ims

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// TokenResponse is the result of a successful authorization-code exchange.
// Immutable once constructed; the caller owns persistence.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
}

// TokenExchanger exchanges an authorization code for a token pair at the
// IdP token endpoint. Provider-native errors are always re-wrapped into the
// domain taxonomy before they leave this component.
type TokenExchanger struct {
	config *Config
	client *http.Client
}

// NewTokenExchanger creates a TokenExchanger sharing the Connection's
// timeout discipline.
func NewTokenExchanger(config *Config, timeout time.Duration) *TokenExchanger {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TokenExchanger{
		config: config,
		client: &http.Client{Timeout: timeout},
	}
}

// Exchange trades code for a token pair. An organization-level rejection by
// the IdP's own authorization step fails with ErrOrganizationDenied so the
// caller can surface "your identity is not part of the organization
// controlling this instance" instead of a generic token error. Every other
// failure maps to ErrAuthenticationFailed.
func (t *TokenExchanger) Exchange(ctx context.Context, code string) (*TokenResponse, error) {
	conf := &oauth2.Config{
		ClientID:     t.config.ClientID(ctx),
		ClientSecret: t.config.ClientSecret(ctx),
		RedirectURL:  t.config.CallbackURL(),
		Endpoint: oauth2.Endpoint{
			TokenURL:  t.config.TokenURL(ctx),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, t.client)
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && isOrganizationRejection(retrieveErr.ErrorCode) {
			return nil, fmt.Errorf("token exchange rejected (%s): %w", retrieveErr.ErrorCode, ErrOrganizationDenied)
		}
		return nil, fmt.Errorf("token exchange failed: %v: %w", err, ErrAuthenticationFailed)
	}

	response := &TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
	}
	if refresh, ok := token.Extra("refresh_token").(string); ok {
		response.RefreshToken = refresh
	} else {
		response.RefreshToken = token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		response.ExpiresIn = time.Until(token.Expiry)
	}
	return response, nil
}

// isOrganizationRejection reports whether an IdP token-endpoint error code
// signals an organization-level authorization denial rather than a plain
// invalid code.
func isOrganizationRejection(code string) bool {
	switch code {
	case "access_denied", "unauthorized_client":
		return true
	}
	return false
}
