package user_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onboardme/backend/core"
	"github.com/onboardme/backend/core/user"
	emailsvc "github.com/onboardme/backend/services/email"
	inmemdb "github.com/onboardme/backend/storage/database/inmem"
)

var ctx = context.Background()

func newTestService() (*user.Service, user.Repository) {
	conf := &core.Config{AppName: "OnboardMe", Env: "TEST", TestMode: true}
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	return user.NewService(repo, emailsvc.NewConsoleServiceMock(conf), conf), repo
}

func TestServiceCreate(t *testing.T) {
	svc, _ := newTestService()

	nu := user.NewUser{
		FirstName: "Emma",
		LastName:  "Empleada",
		Email:     "emma@test.test",
		Password:  "s3cret!",
		RoleName:  user.RoleEmpleado,
		Area:      "IT",
	}
	usr, err := svc.Create(ctx, nu)
	require.NoError(t, err)
	assert.NotZero(t, usr.ID)
	assert.Equal(t, user.RoleEmpleado, usr.Role.Name)
	assert.True(t, usr.IsActive())
	assert.False(t, usr.HasBuddy())
	assert.NoError(t, usr.CheckPassword("s3cret!"))
	assert.Error(t, usr.CheckPassword("wrong"))

	// duplicate email
	_, err = svc.Create(ctx, nu)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))

	// unknown role
	nu.Email = "other@test.test"
	nu.RoleName = "Gerente"
	_, err = svc.Create(ctx, nu)
	assert.ErrorIs(t, err, user.ErrRoleNotFound)
}

func TestServiceGetByEmail(t *testing.T) {
	svc, _ := newTestService()

	nu := user.NewUser{FirstName: "Emma", LastName: "Empleada", Email: "emma@test.test", Password: "pwd", RoleName: user.RoleEmpleado}
	created, err := svc.Create(ctx, nu)
	require.NoError(t, err)

	got, err := svc.GetByEmail(ctx, " Emma@Test.Test ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetByEmail(ctx, "nobody@test.test")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestServiceAssignBuddy(t *testing.T) {
	svc, _ := newTestService()

	buddy, err := svc.Create(ctx, user.NewUser{FirstName: "Bea", LastName: "Buddy", Email: "bea@test.test", Password: "pwd", RoleName: user.RoleBuddy})
	require.NoError(t, err)
	emp, err := svc.Create(ctx, user.NewUser{FirstName: "Emma", LastName: "Empleada", Email: "emma@test.test", Password: "pwd", RoleName: user.RoleEmpleado})
	require.NoError(t, err)

	_, err = svc.AssignBuddy(ctx, emp.ID, 404)
	assert.ErrorIs(t, err, user.ErrNotFound)
	_, err = svc.AssignBuddy(ctx, 404, buddy.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)

	usr, err := svc.AssignBuddy(ctx, emp.ID, buddy.ID)
	require.NoError(t, err)
	require.True(t, usr.HasBuddy())
	assert.Equal(t, buddy.ID, usr.BuddyID.Int)

	mentees, err := svc.QueryByBuddy(ctx, buddy.ID)
	require.NoError(t, err)
	require.Len(t, mentees, 1)
	assert.Equal(t, emp.ID, mentees[0].ID)
}

func TestServiceQueryRoles(t *testing.T) {
	svc, _ := newTestService()

	roles, err := svc.QueryRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, len(user.AllRoleNames))
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	assert.Equal(t, user.AllRoleNames, names)
}

func TestServiceImportCSV(t *testing.T) {
	svc, _ := newTestService()
	emailsvc.ClearSentMessages()

	// seed the duplicate that makes row 2 fail
	_, err := svc.Create(ctx, user.NewUser{FirstName: "Dora", LastName: "Dup", Email: "dora@test.test", Password: "pwd", RoleName: user.RoleEmpleado})
	require.NoError(t, err)
	emailsvc.ClearSentMessages()

	data := strings.Join([]string{
		"firstName,lastName,email,password,role,area",
		"Ana,Alvarez,ana@test.test,pwd1,Empleado,IT",
		"Dora,Dup,dora@test.test,pwd2,Empleado,IT",
		"Bruno,Bazan,bruno@test.test,pwd3,Buddy,RRHH",
	}, "\n")

	report, err := svc.ImportCSV(ctx, strings.NewReader(data))
	require.NoError(t, err)
	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, 3, report.TotalRecords)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "Error en la línea 2")
	assert.Contains(t, report.Errors[0], "Usuario: Dora Dup")
	assert.Contains(t, report.Errors[0], "ya existe")

	ana, err := svc.GetByEmail(ctx, "ana@test.test")
	require.NoError(t, err)
	assert.Equal(t, user.RoleEmpleado, ana.Role.Name)
	assert.NoError(t, ana.CheckPassword("pwd1"))

	// each created user got their credentials mailed
	require.Len(t, emailsvc.SentMessages, 2)
	first := emailsvc.SentMessages[0]
	assert.Equal(t, "ana@test.test", first.To[0].Address)
	assert.Contains(t, first.Subject, "Alta en la Plataforma")
	assert.Contains(t, first.TextContent, "pwd1")
}

func TestServiceImportCSVBadRows(t *testing.T) {
	svc, _ := newTestService()
	emailsvc.ClearSentMessages()

	data := strings.Join([]string{
		"firstName,lastName,email,password,role,area",
		"Ana,Alvarez,ana@test.test,pwd1",
		"Gus,Gerente,gus@test.test,pwd2,Gerente,Ventas",
	}, "\n")

	report, err := svc.ImportCSV(ctx, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalRecords)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0], "se esperaban 6 columnas")
	assert.Contains(t, report.Errors[1], "rol no encontrado: Gerente")
	assert.Empty(t, emailsvc.SentMessages)
}
