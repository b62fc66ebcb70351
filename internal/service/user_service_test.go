package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/client-attendance-api/internal/models"
	appErrors "github.com/noah-isme/client-attendance-api/pkg/errors"
)

type fakeUserRepo struct {
	users     []models.User
	deleted   []string
	auditLogs []*models.AuditLog
	lastQuery models.UserFilter
}

func (f *fakeUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	f.lastQuery = filter
	return f.users, len(f.users), nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	for _, u := range f.users {
		if u.ID == id {
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

var (
	adminClaims    = &models.JWTClaims{UserID: "admin-1", SessionID: "s1", Role: models.RoleAdmin}
	employeeClaims = &models.JWTClaims{UserID: "emp-1", SessionID: "s2", Role: models.RoleEmployee}
)

func TestUserServiceListRequiresAdmin(t *testing.T) {
	repo := &fakeUserRepo{users: []models.User{{ID: "u1", Email: "a@b.test", Role: models.RoleEmployee}}}
	svc := NewUserService(repo, nil)

	_, _, err := svc.List(context.Background(), employeeClaims, models.UserFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	users, pagination, err := svc.List(context.Background(), adminClaims, models.UserFilter{PageSize: 500})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.UnknownUserName, users[0].Name)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, repo.lastQuery.PageSize)
}

func TestUserServiceDelete(t *testing.T) {
	repo := &fakeUserRepo{users: []models.User{{ID: "u1"}, {ID: "admin-1"}}}
	svc := NewUserService(repo, nil)

	err := svc.Delete(context.Background(), adminClaims, "admin-1")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), employeeClaims, "u1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), adminClaims, "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), adminClaims, "u1"))
	assert.Equal(t, []string{"u1"}, repo.deleted)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserDelete, repo.auditLogs[0].Action)
}
