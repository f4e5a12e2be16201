package receipt

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"finboard/models"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8((x ^ y) * 3), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCheck(t *testing.T) {
	ct, err := Check([]byte("%PDF-1.7 hello"), "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ct)

	ct, err = Check(pngBytes(t, 2, 2), "image/png; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	_, err = Check([]byte("plain text"), "text/plain")
	assert.ErrorIs(t, err, ErrType)

	_, err = Check(make([]byte, MaxSize+1), "image/png")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Check(make([]byte, MaxSize), "image/png")
	assert.NoError(t, err)
}

func fileHeader(t *testing.T, name, ct string, data []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="receipt"; filename="`+name+`"`)
	if ct != "" {
		h.Set("Content-Type", ct)
	}
	w, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = w.Write(data)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(MaxSize*2))
	return req.MultipartForm.File["receipt"][0]
}

func TestFromFileHeader(t *testing.T) {
	data := pngBytes(t, 4, 4)
	r, err := FromFileHeader(fileHeader(t, "r.png", "image/png", data))
	require.NoError(t, err)
	assert.Equal(t, "image/png", r.ContentType)
	assert.Equal(t, data, r.Data)

	_, err = FromFileHeader(fileHeader(t, "r.exe", "application/x-msdownload", []byte("MZ")))
	assert.ErrorIs(t, err, ErrType)

	_, err = FromFileHeader(fileHeader(t, "big.png", "image/png", make([]byte, MaxSize+10)))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestTypeByExtension(t *testing.T) {
	assert.Equal(t, "image/jpeg", TypeByExtension("A.JPG"))
	assert.Equal(t, "application/pdf", TypeByExtension("x.pdf"))
	assert.Equal(t, "", TypeByExtension("notes.txt"))
}

func TestDetect(t *testing.T) {
	assert.Equal(t, "image/png", Detect("scan.jpg", pngBytes(t, 2, 2)), "content wins over the extension")
	assert.Equal(t, "application/pdf", Detect("x.bin", []byte("%PDF-1.5")))
	assert.Equal(t, "image/webp", Detect("x.webp", []byte("not really webp")))
	assert.Equal(t, "", Detect("x.txt", []byte("hello")))
}

func TestThumbnail(t *testing.T) {
	r := &models.Receipt{Data: pngBytes(t, 64, 32), ContentType: "image/png"}
	out, err := Thumbnail(r, 16)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())

	_, err = Thumbnail(&models.Receipt{Data: []byte("%PDF"), ContentType: "application/pdf"}, 16)
	assert.ErrorIs(t, err, ErrNotImage)
}

// noisyPNG is a photo-like image: PNG cannot compress it much, JPEG can
// once it is downscaled.
func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	seed := uint32(2463534242)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			seed ^= seed << 13
			seed ^= seed >> 17
			seed ^= seed << 5
			img.Set(x, y, color.NRGBA{R: uint8(seed), G: uint8(seed >> 8), B: uint8(x + y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestShrink(t *testing.T) {
	small := &models.Receipt{Data: []byte("%PDF-1.4"), ContentType: "application/pdf"}
	got, err := Shrink(small, 10)
	require.NoError(t, err)
	assert.Same(t, small, got)

	big := &models.Receipt{Data: noisyPNG(t, 512, 512), ContentType: "image/png"}
	const limit = 64 << 10
	require.Greater(t, len(big.Data), 4*limit)
	got, err = Shrink(big, limit)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got.Data), limit)
	assert.Equal(t, "image/jpeg", got.ContentType)
	img, err := imaging.Decode(bytes.NewReader(got.Data))
	require.NoError(t, err)
	assert.Less(t, img.Bounds().Dx(), 512)
}

func TestShrinkReportsTheLimitItMissed(t *testing.T) {
	big := &models.Receipt{Data: noisyPNG(t, 64, 64), ContentType: "image/png"}
	// smaller than any JPEG header
	_, err := Shrink(big, 100)
	require.ErrorIs(t, err, ErrCannotShrink)
	assert.NotErrorIs(t, err, ErrTooLarge)
	assert.Contains(t, err.Error(), "100 bytes")
}
