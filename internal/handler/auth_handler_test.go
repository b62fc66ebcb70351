package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/client-attendance-api/internal/middleware"
	"github.com/noah-isme/client-attendance-api/internal/models"
	appErrors "github.com/noah-isme/client-attendance-api/pkg/errors"
)

type fakeAuthSrv struct {
	loginReq     models.LoginRequest
	loggedOut    *models.JWTClaims
	signUpReq    models.SignUpRequest
	loginErr     error
	refreshCalls int
}

func (f *fakeAuthSrv) SignUp(_ context.Context, req models.SignUpRequest) (*models.UserInfo, error) {
	f.signUpReq = req
	return &models.UserInfo{ID: "u1", Email: req.Email, Role: models.RoleEmployee}, nil
}

func (f *fakeAuthSrv) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.loginReq = req
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (f *fakeAuthSrv) RefreshToken(_ context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	f.refreshCalls++
	return &models.RefreshTokenResponse{AccessToken: "access-2"}, nil
}

func (f *fakeAuthSrv) Logout(_ context.Context, claims *models.JWTClaims, ip, userAgent string) error {
	f.loggedOut = claims
	return nil
}

func (f *fakeAuthSrv) CurrentUser(_ context.Context, claims *models.JWTClaims) (*models.UserInfo, error) {
	return &models.UserInfo{ID: claims.UserID, Name: models.UnknownUserName, Role: models.RoleEmployee}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	svc := &fakeAuthSrv{}
	handler := NewAuthHandler(svc)

	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"email":"a@b.test","password":"secret"}`))
	c.Request.Header.Set("User-Agent", "tests")
	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@b.test", svc.loginReq.Email)
	assert.Equal(t, "tests", svc.loginReq.UserAgent)

	handler = NewAuthHandler(&fakeAuthSrv{loginErr: appErrors.ErrInvalidCredentials})
	c, w = newGinContext(http.MethodPost, "/auth/login", []byte(`{"email":"a@b.test","password":"wrong"}`))
	handler.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerSignUpAndRefresh(t *testing.T) {
	svc := &fakeAuthSrv{}
	handler := NewAuthHandler(svc)

	c, w := newGinContext(http.MethodPost, "/auth/signup", []byte(`{"email":"new@b.test","password":"secret1","name":"Dana"}`))
	handler.SignUp(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Dana", svc.signUpReq.Name)

	c, w = newGinContext(http.MethodPost, "/auth/refresh", []byte(`not json`))
	handler.Refresh(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.refreshCalls)
}

func TestAuthHandlerLogoutAndMe(t *testing.T) {
	svc := &fakeAuthSrv{}
	handler := NewAuthHandler(svc)

	c, w := newGinContext(http.MethodPost, "/auth/logout", nil)
	handler.Logout(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	claims := &models.JWTClaims{UserID: "u1", SessionID: "sess-1"}
	c, w = newGinContext(http.MethodPost, "/auth/logout", nil)
	c.Set(middleware.ContextUserKey, claims)
	handler.Logout(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, claims, svc.loggedOut)

	c, w = newGinContext(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, claims)
	handler.Me(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.UnknownUserName)
}
