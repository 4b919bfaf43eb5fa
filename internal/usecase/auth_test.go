package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"DeskPortal/internal/domain/models"
	domrepo "DeskPortal/internal/domain/repository"
	xhttp "DeskPortal/pkg/http"
	"DeskPortal/pkg/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthUC(t *testing.T, gw *fakeAuthGateway, sink domrepo.EventSink) *AuthUseCase {
	t.Helper()
	codec, err := session.NewCodec("secret", "salt")
	require.NoError(t, err)
	uc := NewAuthUseCase(gw, codec, nil, 2, 1, sink, nil)
	uc.now = func() time.Time { return riskNow }
	return uc
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *xhttp.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestLoginSealsSession(t *testing.T) {
	gw := &fakeAuthGateway{loginTokens: &models.AuthTokens{AccessToken: "at", RefreshToken: "rt", Expires: 900_000}}
	sink := &recordingSink{}
	uc := newAuthUC(t, gw, sink)

	sealed, sess, err := uc.Login(context.Background(), "10.0.0.1", "desk@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, riskNow.UnixMilli()+900_000-models.LoginExpiryMargin, sess.ExpiresIn)

	opened, err := uc.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, *sess, opened)
	assert.Equal(t, "desk@example.com", opened.UserID)

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventLogin, events[0].Type)
}

func TestLoginIsThrottledPerAddress(t *testing.T) {
	gw := &fakeAuthGateway{loginErr: xhttp.LoginError()}
	uc := newAuthUC(t, gw, &recordingSink{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, err := uc.Login(ctx, "10.0.0.1", "a@b.c", "bad")
		assert.Equal(t, "ERR_LOGIN", appCode(t, err))
	}
	_, _, err := uc.Login(ctx, "10.0.0.1", "a@b.c", "bad")
	assert.Equal(t, "ERR_TOO_MANY_REQUESTS", appCode(t, err))

	_, _, err = uc.Login(ctx, "10.0.0.2", "a@b.c", "bad")
	assert.Equal(t, "ERR_LOGIN", appCode(t, err))
}

func TestOpenRejectsBadCookie(t *testing.T) {
	uc := newAuthUC(t, &fakeAuthGateway{}, nil)
	for _, tok := range []string{"", "garbage"} {
		_, err := uc.Open(tok)
		assert.Equal(t, "ERR_COOKIE_FETCH", appCode(t, err))
	}
}

func TestReadTokenIgnoresExpiredSession(t *testing.T) {
	uc := newAuthUC(t, &fakeAuthGateway{}, nil)

	tok, ok := uc.ReadToken(models.Session{AccessToken: "at", ExpiresIn: riskNow.UnixMilli() + 1000})
	assert.True(t, ok)
	assert.Equal(t, "at", tok)

	_, ok = uc.ReadToken(models.Session{AccessToken: "at", ExpiresIn: riskNow.UnixMilli() - 1})
	assert.False(t, ok)
}

func TestForWriteRefreshesOnce(t *testing.T) {
	gw := &fakeAuthGateway{refreshTokens: &models.AuthTokens{AccessToken: "at2", RefreshToken: "rt2", Expires: 900_000}}
	uc := newAuthUC(t, gw, nil)
	ctx := context.Background()

	fresh := models.Session{UserID: "u", AccessToken: "at", ExpiresIn: riskNow.UnixMilli() + 1000}
	out, refreshed, err := uc.ForWrite(ctx, fresh)
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Equal(t, fresh, out)
	assert.Zero(t, gw.refreshCalls)

	stale := models.Session{UserID: "u", AccessToken: "at", RefreshToken: "rt", ExpiresIn: riskNow.UnixMilli() - 1}
	out, refreshed, err = uc.ForWrite(ctx, stale)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, "at2", out.AccessToken)
	assert.Equal(t, "u", out.UserID)
	assert.Equal(t, riskNow.UnixMilli()+900_000-models.RefreshExpiryMargin, out.ExpiresIn)
	assert.Equal(t, 1, gw.refreshCalls)

	gw.refreshErr = errors.New("refresh token expired")
	_, _, err = uc.ForWrite(ctx, stale)
	assert.Equal(t, "ERR_SESSION_EXPIRED", appCode(t, err))
}

func TestLogoutIsBestEffort(t *testing.T) {
	gw := &fakeAuthGateway{logoutErr: errors.New("unreachable")}
	uc := newAuthUC(t, gw, nil)

	uc.Logout(context.Background(), models.Session{RefreshToken: "rt"})
	assert.Equal(t, "rt", gw.logoutToken)
}

func TestWhoAmIDecodesClaims(t *testing.T) {
	exp := riskNow.Add(time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":           "user-1",
		"role":         "role-admin",
		"app_access":   true,
		"admin_access": false,
		"iss":          "directus",
		"exp":          exp.Unix(),
	}).SignedString([]byte("unknown-to-the-portal"))
	require.NoError(t, err)

	uc := newAuthUC(t, &fakeAuthGateway{}, nil)
	who := uc.WhoAmI(models.Session{UserID: "desk@example.com", AccessToken: token, ExpiresIn: exp.UnixMilli()})

	assert.Equal(t, "desk@example.com", who.UserID)
	assert.False(t, who.Expired)
	assert.Equal(t, "user-1", who.Claims.ID)
	assert.Equal(t, "role-admin", who.Claims.Role)
	assert.True(t, who.Claims.AppAccess)
	assert.Equal(t, "directus", who.Claims.Issuer)
	assert.Equal(t, exp.Unix(), who.Claims.ExpiresAt)

	who = uc.WhoAmI(models.Session{AccessToken: "not-a-jwt"})
	assert.Empty(t, who.Claims.ID)
}
