package validators

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

type sampleForm struct {
	Text  string `form:"text" validate:"required"`
	Slug  string `json:"slug" validate:"omitempty,slug"`
	Name  string `form:"username" validate:"omitempty,username"`
	Group string `form:"group" validate:"omitempty,numeric"`
}

func TestCheckUsesFormNames(t *testing.T) {
	v := NewValidator()

	errs := v.Check(&sampleForm{Slug: "bad slug", Name: "no spaces", Group: "x"})
	require.NotNil(t, errs)
	assert.Equal(t, MsgRequired, errs["text"])
	assert.Equal(t, MsgInvalidSlug, errs["slug"])
	assert.Equal(t, MsgInvalidName, errs["username"])
	assert.Equal(t, MsgInvalidChoice, errs["group"])

	assert.Nil(t, v.Check(&sampleForm{Text: "hi", Slug: "cats_2", Name: "leo.t", Group: "3"}))
}

func TestValidateReturnsHTTPError(t *testing.T) {
	err := NewValidator().Validate(&sampleForm{})
	assert.ErrorContains(t, err, "text: "+MsgRequired)
}

func TestReservedUsernames(t *testing.T) {
	assert.True(t, IsReservedUsername("new"))
	assert.True(t, IsReservedUsername("Follow"))
	assert.False(t, IsReservedUsername("leo"))
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCheckImage(t *testing.T) {
	img, err := CheckImage(tinyPNG(t))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, ".png", img.Ext)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 3, img.Height)

	_, err = CheckImage([]byte("this is just text"))
	assert.ErrorIs(t, err, ErrInvalidImage)

	// right magic bytes, broken body
	broken := tinyPNG(t)[:20]
	_, err = CheckImage(broken)
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = CheckImage(nil)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

// 1x1 lossless webp
const tinyWebP = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

func TestCheckImageWebPAndBMP(t *testing.T) {
	data, err := base64.StdEncoding.DecodeString(tinyWebP)
	require.NoError(t, err)
	img, err := CheckImage(data)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", img.ContentType)
	assert.Equal(t, ".webp", img.Ext)
	assert.Equal(t, 1, img.Width)
	assert.Equal(t, 1, img.Height)

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 5, 4))))
	img, err = CheckImage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "image/bmp", img.ContentType)
	assert.Equal(t, ".bmp", img.Ext)
	assert.Equal(t, 5, img.Width)
	assert.Equal(t, 4, img.Height)

	_, err = CheckImage(data[:24])
	assert.ErrorIs(t, err, ErrInvalidImage)
}
