package http

import (
	"context"
	stderrors "errors"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/brendan.keane/apiconform/internal/config"
	"github.com/brendan.keane/apiconform/internal/errors"
)

// TokenProvider supplies bearer tokens for the API under test
type TokenProvider interface {
	Token() (*oauth2.Token, error)
}

// NewTokenSource returns a cached client-credentials token source, or nil
// when no credentials are configured. Tokens are requested through client.
func NewTokenSource(ctx context.Context, auth config.AuthConfig, client *http.Client) TokenProvider {
	if !auth.OAuthEnabled() {
		return nil
	}

	cc := &clientcredentials.Config{
		ClientID:     auth.ClientID,
		ClientSecret: auth.ClientSecret,
		TokenURL:     auth.TokenURL,
		Scopes:       auth.Scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	}
	return cc.TokenSource(ctx)
}

// applyBearer sets the Authorization header from tokens
func applyBearer(req *http.Request, tokens TokenProvider) error {
	token, err := tokens.Token()
	if err != nil {
		wrapped := errors.Wrap(err, errors.ErrorTypeAuth, "failed to obtain access token")
		var retrieveErr *oauth2.RetrieveError
		if stderrors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			wrapped = wrapped.WithContext("status", retrieveErr.Response.StatusCode)
		}
		return wrapped.WithContext("suggestion", "check token_api, client_id and client_secret")
	}
	token.SetAuthHeader(req)
	return nil
}
