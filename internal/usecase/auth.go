package usecase

import (
	"context"
	"time"

	"DeskPortal/internal/domain/models"
	domrepo "DeskPortal/internal/domain/repository"
	"DeskPortal/internal/service/ratelimit"
	xhttp "DeskPortal/pkg/http"
	applogger "DeskPortal/pkg/logger"
	"DeskPortal/pkg/session"

	"github.com/golang-jwt/jwt/v5"
)

// TooManyLoginsError is returned when a client address exhausts its login budget.
func TooManyLoginsError() *xhttp.AppError {
	return xhttp.TooManyRequestsError("Too many login attempts, try again later")
}

// AuthUseCase issues, refreshes and inspects portal sessions.
type AuthUseCase struct {
	gateway   domrepo.AuthGateway
	codec     *session.Codec
	limiter   *ratelimit.Limiter
	burst     float64
	perSecond float64
	events    domrepo.EventSink
	log       *applogger.Logger
	now       func() time.Time
}

// NewAuthUseCase allows burst login attempts per address, refilled at
// perMinute.
func NewAuthUseCase(
	gateway domrepo.AuthGateway,
	codec *session.Codec,
	limiter *ratelimit.Limiter,
	burst int,
	perMinute float64,
	events domrepo.EventSink,
	l *applogger.Logger,
) *AuthUseCase {
	if limiter == nil {
		limiter = ratelimit.New()
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &AuthUseCase{
		gateway:   gateway,
		codec:     codec,
		limiter:   limiter,
		burst:     float64(burst),
		perSecond: perMinute / 60,
		events:    events,
		log:       l,
		now:       time.Now,
	}
}

// Login authenticates against Directus and returns the sealed session.
func (uc *AuthUseCase) Login(ctx context.Context, remoteAddr, email, password string) (string, *models.Session, error) {
	if !uc.limiter.Allow(remoteAddr, uc.burst, uc.perSecond) {
		uc.log.Warn("login throttled", applogger.String("remote", remoteAddr))
		return "", nil, TooManyLoginsError()
	}

	tokens, err := uc.gateway.Login(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	uc.limiter.Reset(remoteAddr)

	now := uc.now()
	sess := models.NewSession(email, *tokens, now, models.LoginExpiryMargin)
	sealed, err := uc.Seal(sess)
	if err != nil {
		return "", nil, err
	}

	emit(ctx, uc.events, uc.log, models.NewDeskEvent(models.EventLogin, email, email, now))
	return sealed, &sess, nil
}

// Logout revokes the refresh token. Directus failures are logged only; the
// caller clears the cookie either way.
func (uc *AuthUseCase) Logout(ctx context.Context, sess models.Session) {
	if err := uc.gateway.Logout(ctx, sess.RefreshToken); err != nil {
		uc.log.Warn("directus logout failed", applogger.String("user", sess.UserID), applogger.Error(err))
	}
}

// Seal encrypts sess into a cookie value.
func (uc *AuthUseCase) Seal(sess models.Session) (string, error) {
	sealed, err := uc.codec.Seal(sess)
	if err != nil {
		return "", xhttp.InternalError("Failed to create session").WithError(err)
	}
	return sealed, nil
}

// Open decrypts a cookie value.
func (uc *AuthUseCase) Open(token string) (models.Session, error) {
	var sess models.Session
	if token == "" {
		return sess, xhttp.CookieFetchError()
	}
	if err := uc.codec.Open(token, &sess); err != nil {
		return sess, xhttp.CookieFetchError().WithError(err)
	}
	return sess, nil
}

// ReadToken returns the access token for a read. Reads never refresh, so an
// expired session yields ok=false and the caller serves empty data.
func (uc *AuthUseCase) ReadToken(sess models.Session) (string, bool) {
	if sess.IsExpired(uc.now()) {
		return "", false
	}
	return sess.AccessToken, true
}

// ForWrite returns a session valid for a write, refreshing it once if it has
// expired. refreshed tells the caller to reissue the cookie.
func (uc *AuthUseCase) ForWrite(ctx context.Context, sess models.Session) (out models.Session, refreshed bool, err error) {
	now := uc.now()
	if !sess.IsExpired(now) {
		return sess, false, nil
	}
	tokens, err := uc.gateway.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		uc.log.Info("session refresh failed", applogger.String("user", sess.UserID), applogger.Error(err))
		return sess, false, xhttp.SessionExpiredError().WithError(err)
	}
	return models.NewSession(sess.UserID, *tokens, now, models.RefreshExpiryMargin), true, nil
}

// WhoAmI describes sess. The access token is decoded without verification;
// Directus remains the authority on its validity.
func (uc *AuthUseCase) WhoAmI(sess models.Session) *models.WhoAmI {
	out := &models.WhoAmI{
		UserID:    sess.UserID,
		ExpiresIn: sess.ExpiresIn,
		Expired:   sess.IsExpired(uc.now()),
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(sess.AccessToken, claims); err != nil {
		return out
	}
	out.Claims.ID, _ = claims["id"].(string)
	out.Claims.Role, _ = claims["role"].(string)
	out.Claims.AppAccess, _ = claims["app_access"].(bool)
	out.Claims.AdminAccess, _ = claims["admin_access"].(bool)
	if iss, err := claims.GetIssuer(); err == nil {
		out.Claims.Issuer = iss
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.Claims.ExpiresAt = exp.Unix()
	}
	return out
}
