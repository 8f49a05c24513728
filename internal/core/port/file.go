package port

import "context"

type Downloader interface {
	// DownloadFile returns the content behind url.
	DownloadFile(ctx context.Context, url string) ([]byte, error)
}
