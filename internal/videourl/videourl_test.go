package videourl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/tubefetch/internal/common"
	"github.com/your-org/tubefetch/internal/models"
)

func TestValidate_RecognizedShapes(t *testing.T) {
	const id = models.VideoID("dQw4w9WgXcQ")

	tests := []struct {
		name string
		url  string
	}{
		{"watch https www", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"watch http no www", "http://youtube.com/watch?v=dQw4w9WgXcQ"},
		{"no scheme", "www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"bare host", "youtube.com/watch?v=dQw4w9WgXcQ"},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		{"v path", "https://youtube.com/v/dQw4w9WgXcQ"},
		{"nocookie embed", "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ"},
		{"short link www", "https://www.youtu.be/dQw4w9WgXcQ"},
		{"query elsewhere in path", "https://www.youtube.com/attribution_link?a=x&u=/watch?v=dQw4w9WgXcQ"},
		{"extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s&list=PL123"},
		{"surrounding spaces", "  https://youtu.be/dQw4w9WgXcQ \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.url)
			require.NoError(t, err)
			assert.Equal(t, id, got)
		})
	}
}

func TestValidate_IDCharacters(t *testing.T) {
	got, err := Validate("https://youtu.be/a-b_c-d_e-f")
	require.NoError(t, err)
	assert.Equal(t, models.VideoID("a-b_c-d_e-f"), got)
	assert.Len(t, string(got), IDLength)
}

func TestValidate_Rejected(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"not a url", "not a url"},
		{"other host", "https://vimeo.com/dQw4w9WgXcQ"},
		{"mobile subdomain", "https://m.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"id too short", "https://www.youtube.com/watch?v=short"},
		{"missing id", "https://www.youtube.com/watch?v="},
		{"wrong tld", "https://www.youtube.org/watch?v=dQw4w9WgXcQ"},
		{"ftp scheme", "ftp://youtube.com/watch?v=dQw4w9WgXcQ"},
		{"host not at start", "see https://youtu.be/dQw4w9WgXcQ"},
		{"channel path", "https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw"},
		{"shorts path", "https://www.youtube.com/shorts/abcdefghijk"},
		{"space in id", "https://youtu.be/hello world"},
		{"slash in id", "https://youtu.be/abc/defghij"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.url)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInvalidURL))
			assert.ErrorIs(t, err, ErrUnsupported)
			assert.False(t, IsValid(tt.url))
		})
	}
}

func TestValidate_Empty(t *testing.T) {
	_, err := Validate("   ")
	assert.ErrorIs(t, err, ErrEmptyURL)
	assert.True(t, IsInvalid(err))
}

func TestValidate_TrailingGarbagePolicy(t *testing.T) {
	const raw = "https://youtu.be/dQw4w9WgXcQgarbage"

	got, err := Validator{}.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, models.VideoID("dQw4w9WgXcQ"), got)

	_, err = Validator{Strict: true}.Validate(raw)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestValidate_StrictAcceptsDelimiters(t *testing.T) {
	strict := Validator{Strict: true}
	for _, raw := range []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=1",
		"https://youtu.be/dQw4w9WgXcQ?si=abc",
		"https://youtu.be/dQw4w9WgXcQ#t=10",
		"https://www.youtube.com/embed/dQw4w9WgXcQ/",
	} {
		got, err := strict.Validate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, models.VideoID("dQw4w9WgXcQ"), got, raw)
	}
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", Canonical("dQw4w9WgXcQ"))
}
