package users

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/souq-backend/pkg/db/dbtest"
	"github.com/angelmondragon/souq-backend/pkg/enums"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Email:    "  Vendor@Example.COM ",
		FullName: gofakeit.Name(),
		Role:     enums.MemberRoleVendor,
	})
	require.NoError(t, err)
	assert.Equal(t, "vendor@example.com", created.Email)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MemberRoleVendor, found.Role)

	list, err := repo.FindByIDs(ctx, []uuid.UUID{created.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.Create(ctx, CreateUserDTO{Email: "vendor@example.com", FullName: "Dup", Role: enums.MemberRoleCustomer})
	assert.Error(t, err)
}
