package infra

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// IconDownloader handles downloading and caching asset icons.
// Icons come from the image URL the market-data API reports per asset.
type IconDownloader struct {
	basePath string
	client   *http.Client
}

// NewIconDownloader creates a new IconDownloader
func NewIconDownloader() (*IconDownloader, error) {
	path, err := getIconsPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve icons path: %w", err)
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create icons directory: %w", err)
	}

	// Reuse connections across icon downloads
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &IconDownloader{
		basePath: path,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// DownloadIcon downloads the icon for an asset if not already cached.
// Returns the local file path on success.
// Images are resized to 24x24 pixels for consistent UI display.
func (d *IconDownloader) DownloadIcon(ctx context.Context, assetID, imageURL string) (string, error) {
	// Sanitize the id to prevent path traversal
	safeID := sanitizeAssetID(assetID)
	if safeID == "" {
		return "", fmt.Errorf("invalid asset id: %s", assetID)
	}
	if imageURL == "" {
		return "", fmt.Errorf("no image url for asset: %s", assetID)
	}

	filePath := filepath.Join(d.basePath, safeID+".png")

	// Check if exists
	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Already cached
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// Resize to 24x24 with high-quality Lanczos filter
	resizedImg := imaging.Resize(srcImg, 24, 24, imaging.Lanczos)

	if err := imaging.Save(resizedImg, filePath); err != nil {
		return "", fmt.Errorf("failed to save resized image: %w", err)
	}

	return filePath, nil
}

// IconPath returns the local path for an asset's icon
func (d *IconDownloader) IconPath(assetID string) string {
	return filepath.Join(d.basePath, sanitizeAssetID(assetID)+".png")
}

// BasePath returns the icon cache directory
func (d *IconDownloader) BasePath() string {
	return d.basePath
}

func getIconsPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "CryptoTrack", "assets", "icons"), nil
}

func sanitizeAssetID(id string) string {
	id = strings.ToLower(id)
	res := make([]rune, 0, len(id))
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			res = append(res, r)
		}
	}
	return strings.Trim(string(res), "-")
}
