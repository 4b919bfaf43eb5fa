package directus

import (
	"context"

	"DeskPortal/internal/domain/models"
	drepo "DeskPortal/internal/domain/repository"
	xhttp "DeskPortal/pkg/http"
)

// AuthGateway exchanges credentials and refresh tokens for access tokens.
type AuthGateway struct {
	c *Client
}

var _ drepo.AuthGateway = (*AuthGateway)(nil)

func NewAuthGateway(c *Client) *AuthGateway {
	return &AuthGateway{c: c}
}

// Login authenticates against /auth/login. Any upstream rejection is reported
// as a LoginError; transport failures keep their own kind.
func (g *AuthGateway) Login(ctx context.Context, email, password string) (*models.AuthTokens, error) {
	var env envelope[models.AuthTokens]
	body := map[string]string{"email": email, "password": password}
	err := g.c.do(ctx, call{op: "login", method: xhttp.MethodPost, path: "/auth/login", body: body}, &env)
	if err != nil {
		if xhttp.HasCode(err, xhttp.CodeAPIResponse) {
			return nil, xhttp.LoginError().WithError(err)
		}
		return nil, err
	}
	if env.Data.AccessToken == "" {
		return nil, xhttp.LoginError()
	}
	return &env.Data, nil
}

// Refresh trades a refresh token for a new token pair.
func (g *AuthGateway) Refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	var env envelope[models.AuthTokens]
	body := models.RefreshRequest{RefreshToken: refreshToken, Mode: "json"}
	if err := g.c.do(ctx, call{op: "refresh", method: xhttp.MethodPost, path: "/auth/refresh", body: body}, &env); err != nil {
		return nil, err
	}
	if env.Data.AccessToken == "" {
		return nil, xhttp.NoDataFoundError()
	}
	return &env.Data, nil
}

// Logout invalidates refreshToken upstream.
func (g *AuthGateway) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	body := map[string]string{"refresh_token": refreshToken}
	return g.c.do(ctx, call{op: "logout", method: xhttp.MethodPost, path: "/auth/logout", body: body}, nil)
}
