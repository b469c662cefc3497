package chat

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

const maxImageSize = 5 << 20

// ImageDataURL reads an image file into a base64 data url.
func ImageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image %s is empty", path)
	}
	if len(data) > maxImageSize {
		return "", fmt.Errorf("image %s is larger than %d bytes", path, maxImageSize)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, mimeType)
	}

	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
