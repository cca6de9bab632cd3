package share

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Composer performs the external share actions: saving a post image to the
// local download directory and opening the LinkedIn composer in the browser.
type Composer struct {
	downloadDir string
	client      *http.Client
	openBrowser func(target string) error
}

// NewComposer creates a Composer that saves images under downloadDir.
func NewComposer(downloadDir string) *Composer {
	return &Composer{
		downloadDir: downloadDir,
		client:      &http.Client{Timeout: 30 * time.Second},
		openBrowser: openBrowser,
	}
}

// ShareURL builds the LinkedIn composer URL pre-filled with the caption.
func ShareURL(caption string) string {
	return "https://www.linkedin.com/shareArticle?mini=true&summary=" + url.QueryEscape(caption)
}

// SaveImage writes the post image to the download directory under a
// headline-derived filename, so the user can upload it manually.
func (c *Composer) SaveImage(imageURL, headline string) error {
	data, err := c.imageBytes(imageURL)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.downloadDir, 0o755); err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}

	name := fmt.Sprintf("linkedin_post_%s.jpeg", SafeFileStem(headline))
	path := filepath.Join(c.downloadDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing image: %w", err)
	}
	return nil
}

// OpenComposer opens the pre-filled composer in the default browser. It
// returns opened=false when the launch was detectably blocked; this signal is
// best-effort and the saved image remains the manual fallback.
func (c *Composer) OpenComposer(caption string) (bool, error) {
	if err := c.openBrowser(ShareURL(caption)); err != nil {
		return false, err
	}
	return true, nil
}

// SafeFileStem lowercases the headline, replaces anything that is not a
// letter or digit with underscores, and caps the result at 20 characters.
func SafeFileStem(headline string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(headline) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	stem := b.String()
	if len(stem) > 20 {
		stem = stem[:20]
	}
	return stem
}

func (c *Composer) imageBytes(imageURL string) ([]byte, error) {
	if strings.HasPrefix(imageURL, "data:") {
		idx := strings.Index(imageURL, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data URL")
		}
		data, err := base64.StdEncoding.DecodeString(imageURL[idx+1:])
		if err != nil {
			return nil, fmt.Errorf("decoding image data: %w", err)
		}
		return data, nil
	}

	resp, err := c.client.Get(imageURL)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading image: HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func openBrowser(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}
