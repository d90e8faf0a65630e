package shopify

import (
	"context"
	"encoding/base64"
	"net/url"
	"path"
	"strings"
)

// attachment downloads src and wraps it as a base64 image body.
func (u *Uploader) attachment(ctx context.Context, src string) (imagePayload, error) {
	data, contentType, err := u.client.Download(ctx, src)
	if err != nil {
		return imagePayload{}, err
	}
	say(ctx, "⬇️ Downloaded %.1f KB from origin", float64(len(data))/1024)
	return imagePayload{
		Attachment: base64.StdEncoding.EncodeToString(data),
		Filename:   attachmentName(src, contentType),
	}, nil
}

// attachmentName keeps the file name of src. Without an extension it picks
// one from the content type: png, webp, otherwise jpg.
func attachmentName(src, contentType string) string {
	name := "image"
	if parsed, err := url.Parse(src); err == nil {
		if base := path.Base(parsed.Path); base != "." && base != "/" && base != "" {
			name = base
		}
	}
	if path.Ext(name) != "" {
		return name
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "png"):
		return name + ".png"
	case strings.Contains(ct, "webp"):
		return name + ".webp"
	default:
		return name + ".jpg"
	}
}
