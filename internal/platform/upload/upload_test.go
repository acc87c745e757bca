package upload

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "rentmeroom/pkg/domain-errors"
	"rentmeroom/pkg/testutil"
)

func TestImages(t *testing.T) {
	req := testutil.NewMultipartRequest(t, http.MethodPost, "/", map[string]string{"title": "x"},
		testutil.MultipartFile{Field: "images", Name: "a.png", Content: testutil.PNG},
		testutil.MultipartFile{Field: "images", Name: "b.jpg", Content: testutil.JPEG},
	)
	require.NoError(t, Parse(httptest.NewRecorder(), req, 1<<20))

	form := &Form{}
	defer form.Close()
	uploads, err := form.Images(req, "images", 5)
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, "image/png", uploads[0].ContentType)
	assert.Equal(t, "image/jpeg", uploads[1].ContentType)

	body, err := io.ReadAll(uploads[0].Body)
	require.NoError(t, err)
	assert.Equal(t, testutil.PNG, body, "reader is rewound after sniffing")

	missing, err := form.Image(req, "avatar")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestImages_Rejections(t *testing.T) {
	t.Run("not an image", func(t *testing.T) {
		req := testutil.NewMultipartRequest(t, http.MethodPost, "/", nil,
			testutil.MultipartFile{Field: "images", Name: "a.png", Content: []byte("plain text")})
		require.NoError(t, Parse(httptest.NewRecorder(), req, 1<<20))
		form := &Form{}
		defer form.Close()
		_, err := form.Images(req, "images", 5)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("too many", func(t *testing.T) {
		files := make([]testutil.MultipartFile, 3)
		for i := range files {
			files[i] = testutil.MultipartFile{Field: "images", Name: "a.png", Content: testutil.PNG}
		}
		req := testutil.NewMultipartRequest(t, http.MethodPost, "/", nil, files...)
		require.NoError(t, Parse(httptest.NewRecorder(), req, 1<<20))
		form := &Form{}
		defer form.Close()
		_, err := form.Images(req, "images", 2)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("body too large", func(t *testing.T) {
		req := testutil.NewMultipartRequest(t, http.MethodPost, "/", nil,
			testutil.MultipartFile{Field: "images", Name: "a.png", Content: make([]byte, 4096)})
		err := Parse(httptest.NewRecorder(), req, 1024)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
