package auth_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dealer-stock-api/internal/application/auth"
	"github.com/jhoicas/dealer-stock-api/internal/application/dto"
	"github.com/jhoicas/dealer-stock-api/internal/domain"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/jhoicas/dealer-stock-api/internal/infrastructure/memory"
	pkgjwt "github.com/jhoicas/dealer-stock-api/pkg/jwt"
)

const secret = "auth-test-secret"

func newAuth(t *testing.T, users ...*entity.User) *auth.AuthUseCase {
	t.Helper()
	store := memory.NewStore()
	for _, u := range users {
		require.NoError(t, store.Users().Create(context.Background(), u))
	}
	return auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: secret, ExpMinutes: 30, Issuer: "dealer-stock-test"}, zerolog.Nop())
}

func user(t *testing.T, id, email, password, role, status string, dealerID *string) *entity.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &entity.User{ID: id, Email: email, PasswordHash: hash, Name: id, Role: role, Status: status, DealerID: dealerID}
}

func TestHashPassword(t *testing.T) {
	_, err := auth.HashPassword("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	hash, err := auth.HashPassword("clave-segura")
	require.NoError(t, err)
	assert.NotEqual(t, "clave-segura", hash)
}

func TestLogin_TokenConRolYConcesionario(t *testing.T) {
	dealer := "d-norte"
	uc := newAuth(t, user(t, "u1", "ventas@norte.test", "clave-segura", entity.RoleDealer, "active", &dealer))

	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: " ventas@norte.test ", Password: "clave-segura"})
	require.NoError(t, err)
	assert.Equal(t, "u1", out.User.ID)
	assert.Equal(t, entity.RoleDealer, out.User.Role)

	claims, err := pkgjwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, dealer, claims.DealerID)
	assert.Equal(t, entity.RoleDealer, claims.Role)
	assert.Equal(t, "dealer-stock-test", claims.Issuer)
}

func TestLogin_CredencialesInvalidasMismoError(t *testing.T) {
	uc := newAuth(t, user(t, "u1", "admin@marca.test", "clave-segura", entity.RoleAdmin, "active", nil))
	ctx := context.Background()

	_, err := uc.Login(ctx, dto.LoginRequest{Email: "nadie@marca.test", Password: "clave-segura"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "admin@marca.test", Password: "otra"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin_UsuarioInactivo(t *testing.T) {
	uc := newAuth(t, user(t, "u1", "baja@marca.test", "clave-segura", entity.RoleBrandManager, "inactive", nil))
	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "baja@marca.test", Password: "clave-segura"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMe(t *testing.T) {
	uc := newAuth(t, user(t, "u1", "admin@marca.test", "clave-segura", entity.RoleAdmin, "active", nil))

	me, err := uc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "admin@marca.test", me.Email)
	assert.Nil(t, me.DealerID)

	_, err = uc.Me(context.Background(), "u2")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
