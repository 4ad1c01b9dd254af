package report

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"image"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/school-food-safety/backend/internal/models"
)

const (
	thumbWidth  = 320
	thumbHeight = 240
)

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="320" height="240"><rect width="100%" height="100%" fill="#e5e7eb"/><text x="50%" y="50%" font-family="sans-serif" font-size="16" fill="#6b7280" text-anchor="middle">Photo unavailable</text></svg>`

func decodeImage(p models.Photo) (image.Image, error) {
	r := bytes.NewReader(p.Payload)
	if p.MimeType == "image/webp" {
		return webp.Decode(r)
	}
	return imaging.Decode(r, imaging.AutoOrientation(true))
}

// Thumbnail returns an inline data URI for the photo scaled to fit the
// report grid. Images that cannot be decoded are inlined as uploaded, and
// photos without bytes get a placeholder.
func Thumbnail(p models.Photo) template.URL {
	if len(p.Payload) == 0 {
		return dataURI("image/svg+xml", []byte(placeholderSVG))
	}

	img, err := decodeImage(p)
	if err != nil {
		if strings.HasPrefix(p.MimeType, "image/") {
			return dataURI(p.MimeType, p.Payload)
		}
		return dataURI("image/svg+xml", []byte(placeholderSVG))
	}

	var buf bytes.Buffer
	thumb := imaging.Fit(img, thumbWidth, thumbHeight, imaging.Lanczos)
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return dataURI(p.MimeType, p.Payload)
	}
	return dataURI("image/jpeg", buf.Bytes())
}

func dataURI(mime string, data []byte) template.URL {
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data))
}
