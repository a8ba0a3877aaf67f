package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferencePolicy_Normalize(t *testing.T) {
	cases := []struct {
		format string
		in     string
		want   string
	}{
		{"path", "a.jpg", "/uploads/a.jpg"},
		{"path", "/uploads/a.jpg", "/uploads/a.jpg"},
		{"path", "  /uploads/a.jpg  ", "/uploads/a.jpg"},
		{"path", "http://shop.test/uploads/a.jpg", "/uploads/a.jpg"},
		{"filename", "HTTP://Shop.Test/uploads/b.png", "b.png"},
		{"url", "a.jpg", "http://shop.test/uploads/a.jpg"},
		{"url", "/uploads/a.jpg", "http://shop.test/uploads/a.jpg"},
	}

	for _, tc := range cases {
		policy, err := NewReferencePolicy(tc.format, "http://shop.test/")
		require.NoError(t, err)
		got, err := policy.Normalize(tc.in)
		require.NoError(t, err, "%s %q", tc.format, tc.in)
		assert.Equal(t, tc.want, got, "%s %q", tc.format, tc.in)
	}
}

func TestReferencePolicy_NormalizeRejectsLossyReferences(t *testing.T) {
	policy, err := NewReferencePolicy("path", "http://shop.test")
	require.NoError(t, err)

	for _, ref := range []string{
		"https://cdn.example.com/banners/summer/hero.jpg",
		"https://other.example.org/winter/hero.jpg",
		"https://shop.test/uploads/a.jpg",
		"http://shop.test/banners/a.jpg",
		"http://shop.test/uploads/nested/a.jpg",
		"/banners/hero.jpg",
		"totally/unrelated/dir/hero.jpg",
		"uploads/a.jpg",
		"/uploads/a.jpg?v=2",
		"a.jpg#top",
		`public\uploads\c.gif`,
		"/uploads/",
		"/uploads/..",
	} {
		_, err := policy.Normalize(ref)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "reference %q", ref)
		assert.Equal(t, "reference", verr.Details[0].Field)
		assert.Equal(t, "Must reference an uploaded image", verr.Details[0].Message)
	}

	_, err = policy.Normalize("   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReferencePolicy_AbsoluteURLNeedsBase(t *testing.T) {
	policy, err := NewReferencePolicy("path", "")
	require.NoError(t, err)

	_, err = policy.Normalize("http://shop.test/uploads/a.jpg")
	assert.ErrorIs(t, err, ErrValidation)

	got, err := policy.Normalize("a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a.jpg", got)
}

func TestReferencePolicy_BasePathIsHonoured(t *testing.T) {
	policy, err := NewReferencePolicy("url", "https://shop.test/store/")
	require.NoError(t, err)

	got, err := policy.Normalize("https://shop.test/store/uploads/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.test/store/uploads/a.jpg", got)

	_, err = policy.Normalize("https://shop.test/uploads/a.jpg")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewReferencePolicy(t *testing.T) {
	p, err := NewReferencePolicy("", "")
	require.NoError(t, err)
	assert.Equal(t, ReferencePath, p.Format())

	_, err = NewReferencePolicy("s3", "")
	assert.Error(t, err)

	_, err = NewReferencePolicy("url", "")
	assert.Error(t, err)

	_, err = NewReferencePolicy("path", "shop.test")
	assert.Error(t, err)
}

func TestReferencePolicy_Render(t *testing.T) {
	p, err := NewReferencePolicy("PATH", "")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1700000000-a.jpg", p.Render("1700000000-a.jpg"))
}
