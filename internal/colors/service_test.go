package colors

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

func strPtr(v string) *string { return &v }

func TestColorLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	navy, err := svc.Create(ctx, CreateColorInput{Name: " Navy ", Description: strPtr("deep blue")})
	require.NoError(t, err)
	assert.Equal(t, "Navy", navy.Name)

	_, err = svc.Create(ctx, CreateColorInput{Name: "navy"})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	olive, err := svc.Create(ctx, CreateColorInput{Name: "Olive"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, olive.ID, UpdateColorInput{Name: strPtr("NAVY")})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	renamed, err := svc.Update(ctx, navy.ID, UpdateColorInput{Name: strPtr("Navy Blue"), Description: strPtr(" ")})
	require.NoError(t, err)
	assert.Equal(t, "Navy Blue", renamed.Name)
	assert.Nil(t, renamed.Description)

	page, err := svc.List(ctx, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Navy Blue", page.Items[0].Name)

	require.NoError(t, svc.Delete(ctx, olive.ID))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(svc.Delete(ctx, olive.ID)))
	_, err = svc.Update(ctx, uuid.New(), UpdateColorInput{Name: strPtr("Teal")})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestCreateColorRequiresName(t *testing.T) {
	_, err := newTestService(t).Create(context.Background(), CreateColorInput{Name: "  "})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
