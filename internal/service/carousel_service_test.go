package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type MockCarouselRepository struct {
	mock.Mock
}

func (m *MockCarouselRepository) Get(ctx context.Context) (*model.Carousel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Carousel), args.Error(1)
}

func (m *MockCarouselRepository) Append(ctx context.Context, reference string, capacity int) (*model.Carousel, error) {
	args := m.Called(ctx, reference, capacity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Carousel), args.Error(1)
}

func (m *MockCarouselRepository) Remove(ctx context.Context, reference string) (*model.Carousel, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Carousel), args.Error(1)
}

func (m *MockCarouselRepository) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newCarouselService(t *testing.T, format string) *service.CarouselService {
	t.Helper()
	policy, err := service.NewReferencePolicy(format, "http://shop.test")
	require.NoError(t, err)
	return service.NewCarouselService(repository.NewMemoryCarouselRepository(), policy)
}

func TestCarouselService_ListEmptyByDefault(t *testing.T) {
	svc := newCarouselService(t, "path")

	images, err := svc.ListImages(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, images)
	assert.Empty(t, images)
}

func TestCarouselService_SixthAddFails(t *testing.T) {
	svc := newCarouselService(t, "path")
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		images, err := svc.AddImage(ctx, fmt.Sprintf("img-%d.jpg", i))
		require.NoError(t, err)
		assert.Len(t, images, i)
	}

	_, err := svc.AddImage(ctx, "img-6.jpg")
	assert.ErrorIs(t, err, service.ErrCapacityExceeded)

	images, err := svc.ListImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/uploads/img-1.jpg",
		"/uploads/img-2.jpg",
		"/uploads/img-3.jpg",
		"/uploads/img-4.jpg",
		"/uploads/img-5.jpg",
	}, images)
}

func TestCarouselService_AddRejectsEmptyReference(t *testing.T) {
	svc := newCarouselService(t, "path")

	for _, ref := range []string{"", "   ", "https://shop.test/"} {
		_, err := svc.AddImage(context.Background(), ref)
		assert.ErrorIs(t, err, service.ErrValidation, "reference %q", ref)
	}
}

func TestCarouselService_RemoveTwice(t *testing.T) {
	svc := newCarouselService(t, "path")
	ctx := context.Background()

	_, err := svc.RemoveImage(ctx, "a.jpg")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.AddImage(ctx, "a.jpg")
	require.NoError(t, err)
	_, err = svc.AddImage(ctx, "b.jpg")
	require.NoError(t, err)

	images, err := svc.RemoveImage(ctx, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/b.jpg"}, images)

	_, err = svc.RemoveImage(ctx, "a.jpg")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCarouselService_RemoveByAnyForm(t *testing.T) {
	svc := newCarouselService(t, "url")
	ctx := context.Background()

	images, err := svc.AddImage(ctx, "/uploads/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://shop.test/uploads/a.jpg"}, images)

	images, err = svc.RemoveImage(ctx, "a.jpg")
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestCarouselService_ForeignReferencesAreNotRewritten(t *testing.T) {
	svc := newCarouselService(t, "path")
	ctx := context.Background()

	for _, ref := range []string{
		"https://cdn.example.com/banners/summer/hero.jpg",
		"https://other.example.org/winter/hero.jpg",
		"/banners/hero.jpg",
	} {
		_, err := svc.AddImage(ctx, ref)
		assert.ErrorIs(t, err, service.ErrValidation, "reference %q", ref)
	}

	images, err := svc.AddImage(ctx, "hero.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/hero.jpg"}, images)

	_, err = svc.RemoveImage(ctx, "totally/unrelated/dir/hero.jpg")
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = svc.RemoveImage(ctx, "https://cdn.example.com/uploads/hero.jpg")
	assert.ErrorIs(t, err, service.ErrNotFound)

	images, err = svc.ListImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/hero.jpg"}, images)
}

func TestCarouselService_Reset(t *testing.T) {
	svc := newCarouselService(t, "filename")
	ctx := context.Background()

	_, err := svc.AddImage(ctx, "a.jpg")
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx))

	images, err := svc.ListImages(ctx)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestCarouselService_ConcurrentAdds(t *testing.T) {
	svc := newCarouselService(t, "path")
	ctx := context.Background()

	results := make([]error, 20)
	var g errgroup.Group
	for i := range results {
		i := i
		g.Go(func() error {
			_, results[i] = svc.AddImage(ctx, fmt.Sprintf("img-%d.jpg", i))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok, full int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, service.ErrCapacityExceeded):
			full++
		}
	}
	assert.Equal(t, 5, ok)
	assert.Equal(t, 15, full)

	images, err := svc.ListImages(ctx)
	require.NoError(t, err)
	assert.Len(t, images, 5)
}

func TestCarouselService_StoreFailure(t *testing.T) {
	mockRepo := new(MockCarouselRepository)
	policy, err := service.NewReferencePolicy("path", "")
	require.NoError(t, err)
	svc := service.NewCarouselService(mockRepo, policy)
	storeErr := errors.New("connection reset")

	mockRepo.On("Get", mock.Anything).Return(nil, storeErr).Once()
	mockRepo.On("Append", mock.Anything, "/uploads/a.jpg", model.CarouselCapacity).Return(nil, repository.ErrConflict).Once()

	_, err = svc.ListImages(context.Background())
	assert.ErrorIs(t, err, storeErr)

	_, err = svc.AddImage(context.Background(), "a.jpg")
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NotErrorIs(t, err, service.ErrCapacityExceeded)

	mockRepo.AssertExpectations(t)
}
