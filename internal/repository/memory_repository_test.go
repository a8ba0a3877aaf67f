package repository

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

func seedProducts(t *testing.T, repo ProductRepository, names ...string) []model.Product {
	t.Helper()
	out := make([]model.Product, 0, len(names))
	for i, name := range names {
		p := &model.Product{
			Name:         name,
			Description:  "desc " + name,
			Price:        "10",
			ImageURL:     "/uploads/" + name + ".jpg",
			IsNewRelease: i%2 == 0,
		}
		require.NoError(t, repo.Insert(context.Background(), p))
		out = append(out, *p)
	}
	return out
}

func TestMemoryProductRepository_InsertAssignsID(t *testing.T) {
	repo := NewMemoryProductRepository()
	p := &model.Product{Name: "Lamp", Description: "desc", Price: "1", ImageURL: "a.jpg"}

	require.NoError(t, repo.Insert(context.Background(), p))
	assert.False(t, p.ID.IsZero())

	got, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, *p, *got)
}

func TestMemoryProductRepository_FindByName(t *testing.T) {
	repo := NewMemoryProductRepository()
	seedProducts(t, repo, "Filter A", "filter b", "Lens", "a.b*c")

	got, err := repo.FindByName(context.Background(), "FILT")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Filter A", got[0].Name)
	assert.Equal(t, "filter b", got[1].Name)

	got, err = repo.FindByName(context.Background(), "b*")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a.b*c", got[0].Name)

	got, err = repo.FindByName(context.Background(), "nothing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMemoryProductRepository_FindNewReleases(t *testing.T) {
	repo := NewMemoryProductRepository()
	seedProducts(t, repo, "one", "two", "three")

	got, err := repo.FindNewReleases(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Name)
	assert.Equal(t, "three", got[1].Name)
}

func TestMemoryProductRepository_UpdateKeepsFlagWhenNil(t *testing.T) {
	repo := NewMemoryProductRepository()
	seeded := seedProducts(t, repo, "one")
	id := seeded[0].ID

	updated, err := repo.Update(context.Background(), id, ProductUpdate{
		Name: "uno", Description: "d", Price: "2", ImageURL: "b.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, "uno", updated.Name)
	assert.True(t, updated.IsNewRelease)

	off := false
	updated, err = repo.Update(context.Background(), id, ProductUpdate{
		Name: "uno", Description: "d", Price: "2", ImageURL: "b.jpg", IsNewRelease: &off,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsNewRelease)

	_, err = repo.Update(context.Background(), primitive.NewObjectID(), ProductUpdate{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryProductRepository_DeleteTwice(t *testing.T) {
	repo := NewMemoryProductRepository()
	seeded := seedProducts(t, repo, "one", "two")
	id := seeded[0].ID

	require.NoError(t, repo.Delete(context.Background(), id))
	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)

	_, err := repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "two", all[0].Name)
}

func TestMemoryCarouselRepository_Capacity(t *testing.T) {
	repo := NewMemoryCarouselRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	for i := 0; i < model.CarouselCapacity; i++ {
		doc, err := repo.Append(ctx, string(rune('a'+i))+".jpg", model.CarouselCapacity)
		require.NoError(t, err)
		assert.Len(t, doc.Images, i+1)
	}

	_, err = repo.Append(ctx, "f.jpg", model.CarouselCapacity)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	doc, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"}, doc.Images)
}

func TestMemoryCarouselRepository_RemoveTwice(t *testing.T) {
	repo := NewMemoryCarouselRepository()
	ctx := context.Background()

	_, err := repo.Remove(ctx, "a.jpg")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, ref := range []string{"a.jpg", "b.jpg", "a.jpg"} {
		_, err := repo.Append(ctx, ref, model.CarouselCapacity)
		require.NoError(t, err)
	}

	doc, err := repo.Remove(ctx, "b.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "a.jpg"}, doc.Images)

	_, err = repo.Remove(ctx, "b.jpg")
	assert.ErrorIs(t, err, ErrNotFound)

	doc, err = repo.Remove(ctx, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, doc.Images)
}

func TestMemoryCarouselRepository_SnapshotIsolated(t *testing.T) {
	repo := NewMemoryCarouselRepository()
	ctx := context.Background()

	doc, err := repo.Append(ctx, "a.jpg", model.CarouselCapacity)
	require.NoError(t, err)
	doc.Images[0] = "mutated"

	stored, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, stored.Images)
}

func TestMemoryCarouselRepository_Reset(t *testing.T) {
	repo := NewMemoryCarouselRepository()
	ctx := context.Background()

	require.NoError(t, repo.Reset(ctx))
	doc, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Images)

	_, err = repo.Append(ctx, "a.jpg", model.CarouselCapacity)
	require.NoError(t, err)
	require.NoError(t, repo.Reset(ctx))

	doc, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Images)
}

func TestMemoryCarouselRepository_ConcurrentAppend(t *testing.T) {
	repo := NewMemoryCarouselRepository()
	ctx := context.Background()

	results := make([]error, 20)
	var g errgroup.Group
	for i := range results {
		i := i
		g.Go(func() error {
			_, results[i] = repo.Append(ctx, "img.jpg", model.CarouselCapacity)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok, full int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrCapacityExceeded):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, model.CarouselCapacity, ok)
	assert.Equal(t, 20-model.CarouselCapacity, full)

	doc, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, doc.Images, model.CarouselCapacity)
}

func TestRemoveFirst(t *testing.T) {
	images := []string{"a", "b", "a"}

	out, found := removeFirst(images, "a")
	assert.True(t, found)
	assert.Equal(t, []string{"b", "a"}, out)
	assert.Equal(t, []string{"a", "b", "a"}, images)

	out, found = removeFirst(images, "z")
	assert.False(t, found)
	assert.Equal(t, images, out)
}
