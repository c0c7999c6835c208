package bankdetails

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

func sampleInput() BankDetailsInput {
	return BankDetailsInput{
		BankName:          "State Bank",
		AccountHolderName: "Test Shopper",
		IFSC:              " sbin0000001 ",
		BranchName:        "Pune Camp",
		AccountNumber:     "000111222333",
	}
}

func TestAddUpdateAndGet(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()
	actor := auth.Actor{UserID: dbtest.User(t, conn).ID}

	_, err = svc.Get(ctx, actor)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	_, err = svc.Update(ctx, actor, sampleInput())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	added, err := svc.Add(ctx, actor, sampleInput())
	require.NoError(t, err)
	assert.Equal(t, "SBIN0000001", added.IFSC)

	_, err = svc.Add(ctx, actor, sampleInput())
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	in := sampleInput()
	in.BranchName = "Kothrud"
	updated, err := svc.Update(ctx, actor, in)
	require.NoError(t, err)
	assert.Equal(t, added.ID, updated.ID)
	assert.Equal(t, "Kothrud", updated.BranchName)

	got, err := svc.GetForUser(ctx, actor.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Kothrud", got.BranchName)
}

func TestAddRequiresEveryField(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	in := sampleInput()
	in.BankName = " "
	in.AccountNumber = ""
	_, err = svc.Add(context.Background(), auth.Actor{UserID: dbtest.User(t, conn).ID}, in)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"bankName", "accountNumber"}, details["missing"])
}

func TestListForAdmins(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	for range 3 {
		_, err := svc.Add(ctx, auth.Actor{UserID: dbtest.User(t, conn).ID}, sampleInput())
		require.NoError(t, err)
	}
	page, err := svc.List(ctx, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, 3, page.Pagination.Total)
}
