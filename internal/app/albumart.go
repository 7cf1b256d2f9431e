package app

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/httpclient"
	"github.com/cesargomez89/openkaraoke/internal/library"
)

const maxImageBytes = 10 << 20

// ImageFetcher downloads cover art and thumbnails.
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, error)
}

type imageFetcher struct {
	http *httpclient.Client
}

func NewImageFetcher(h *httpclient.Client) ImageFetcher {
	if h == nil {
		h = httpclient.NewClient(&http.Client{Timeout: constants.ImageHTTPTimeout}, 0)
	}
	return &imageFetcher{http: h}
}

func (f *imageFetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	if imageURL == "" {
		return nil, nil
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid image URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsedURL.Scheme)
	}

	data, err := f.http.GetBytes(ctx, imageURL, maxImageBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	if library.DetectImageFormat(data) == library.ImageUnknown {
		return nil, fmt.Errorf("downloaded file from %s is not an image", imageURL)
	}
	return data, nil
}
