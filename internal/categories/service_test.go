package categories

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, client)
	require.NoError(t, err)
	return svc, repo
}

func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool { return &v }

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)

	_, err = NewService(&Repository{}, nil)
	require.Error(t, err)
}

func TestCreateDefaultsActiveAndLinksParent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, CreateCategoryInput{Name: "Apparel", Slug: strPtr("apparel")})
	require.NoError(t, err)
	assert.True(t, root.IsActive)

	child, err := svc.Create(ctx, CreateCategoryInput{Name: "Shirts", ParentID: &root.ID, IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, child.IsActive)
	require.NotNil(t, child.Parent)
	assert.Equal(t, root.ID, child.Parent.ID)
}

func TestCreateRejectsMissingParent(t *testing.T) {
	svc, _ := newTestService(t)
	missing := uuid.New()

	_, err := svc.Create(context.Background(), CreateCategoryInput{Name: "Orphan", ParentID: &missing})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestSlugUniqueness(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateCategoryInput{Name: "Shoes", Slug: strPtr("shoes")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateCategoryInput{Name: "Other shoes", Slug: strPtr("shoes")})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	found, err := svc.GetBySlug(ctx, "shoes")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestUpdateSlugCollisionWithOtherRow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCategoryInput{Name: "Bags", Slug: strPtr("bags")})
	require.NoError(t, err)
	other, err := svc.Create(ctx, CreateCategoryInput{Name: "Belts", Slug: strPtr("belts")})
	require.NoError(t, err)

	_, err = svc.Update(ctx, other.ID, UpdateCategoryInput{Slug: strPtr("bags")})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	// keeping its own slug is not a collision
	updated, err := svc.Update(ctx, other.ID, UpdateCategoryInput{Slug: strPtr("belts"), Name: strPtr("Leather belts")})
	require.NoError(t, err)
	assert.Equal(t, "Leather belts", updated.Name)
}

func TestUpdatePreventsCycles(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateCategoryInput{Name: "A"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateCategoryInput{Name: "B", ParentID: &a.ID})
	require.NoError(t, err)
	c, err := svc.Create(ctx, CreateCategoryInput{Name: "C", ParentID: &b.ID})
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, UpdateCategoryInput{ParentID: &c.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.Update(ctx, a.ID, UpdateCategoryInput{ParentID: &a.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	// the tree is unchanged
	stored, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ParentID)
	stored, err = repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ParentID)
	assert.Equal(t, b.ID, *stored.ParentID)
}

func TestConcurrentCrossedMovesLeaveNoCycle(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateCategoryInput{Name: "A"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateCategoryInput{Name: "B"})
	require.NoError(t, err)

	moves := [][2]uuid.UUID{{a.ID, b.ID}, {b.ID, a.ID}}
	errs := make([]error, len(moves))
	var wg sync.WaitGroup
	for i, m := range moves {
		wg.Add(1)
		go func(i int, child, parent uuid.UUID) {
			defer wg.Done()
			_, errs[i] = svc.Update(ctx, child, UpdateCategoryInput{ParentID: &parent})
		}(i, m[0], m[1])
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	storedA, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	storedB, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, storedA.ParentID == nil || storedB.ParentID == nil, "a and b point at each other")
}

func TestTreeLockStatement(t *testing.T) {
	assert.Equal(t, "SELECT pg_advisory_xact_lock(?)", treeLockStatement("postgres"))
	assert.Empty(t, treeLockStatement("sqlite"))

	_, repo := newTestService(t)
	require.NoError(t, repo.LockTree(context.Background()))
}

func TestUpdateMovesAndClearsParent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateCategoryInput{Name: "A"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CreateCategoryInput{Name: "B"})
	require.NoError(t, err)

	moved, err := svc.Update(ctx, b.ID, UpdateCategoryInput{ParentID: &a.ID})
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, a.ID, *moved.ParentID)

	cleared, err := svc.Update(ctx, b.ID, UpdateCategoryInput{ClearParent: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.ParentID)
}

func TestDeleteBlockedByChildren(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, CreateCategoryInput{Name: "Parent"})
	require.NoError(t, err)
	child, err := svc.Create(ctx, CreateCategoryInput{Name: "Child", ParentID: &parent.ID})
	require.NoError(t, err)

	err = svc.Delete(ctx, parent.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	require.NoError(t, svc.Delete(ctx, child.ID))
	require.NoError(t, svc.Delete(ctx, parent.ID))

	_, err = svc.GetByID(ctx, parent.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	err = svc.Delete(ctx, parent.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestDeleteBlockedByProducts(t *testing.T) {
	client, conn := dbtest.OpenClient(t)
	svc, err := NewService(NewRepository(conn), client)
	require.NoError(t, err)

	category := dbtest.Category(t, conn, nil)
	dbtest.Product(t, conn, category.ID)

	err = svc.Delete(context.Background(), category.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestReadsOrderAndFilter(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	zeta, err := svc.Create(ctx, CreateCategoryInput{Name: "Zeta"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateCategoryInput{Name: "Alpha"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateCategoryInput{Name: "Hidden", IsActive: boolPtr(false)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateCategoryInput{Name: "Zeta child b", ParentID: &zeta.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateCategoryInput{Name: "Zeta child a", ParentID: &zeta.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateCategoryInput{Name: "Zeta child off", ParentID: &zeta.ID, IsActive: boolPtr(false)})
	require.NoError(t, err)

	roots, err := svc.GetRoots(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "Alpha", roots[0].Name)
	assert.Equal(t, "Zeta", roots[1].Name)
	require.NotNil(t, roots[1].ChildrenCount)
	assert.EqualValues(t, 3, *roots[1].ChildrenCount)

	children, err := svc.GetChildren(ctx, zeta.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Zeta child a", children[0].Name)

	detail, err := svc.GetByID(ctx, zeta.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Children, 3)

	_, err = svc.GetChildren(ctx, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	active, err := svc.List(ctx, ListParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 4, active.Pagination.Total)

	all, err := svc.List(ctx, ListParams{Page: 1, Limit: 2, IncludeInactive: true})
	require.NoError(t, err)
	assert.EqualValues(t, 6, all.Pagination.Total)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, 3, all.Pagination.TotalPages)
}

func TestArenaWouldCycle(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	arena := Arena{a: nil, b: &a, c: &b, d: nil}

	assert.True(t, arena.WouldCycle(a, c))
	assert.True(t, arena.WouldCycle(a, a))
	assert.False(t, arena.WouldCycle(c, a))
	assert.False(t, arena.WouldCycle(a, d))
	assert.False(t, arena.WouldCycle(a, uuid.New()))

	// pre-existing loop not involving the target terminates
	x, y := uuid.New(), uuid.New()
	loop := Arena{x: &y, y: &x, a: nil}
	assert.False(t, loop.WouldCycle(a, x))
}
