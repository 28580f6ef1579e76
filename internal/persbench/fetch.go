package persbench

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Increase TLS handshake timeout to handle slow project servers.
	// Default is 10s, we increase it to 30s.
	transport.TLSHandshakeTimeout = 30 * time.Second

	return &http.Client{
		Transport: transport,
		Timeout:   300 * time.Second, // 5 min total timeout for large downloads
	}
}

// FetchArchive downloads the resource at url into the workspace root under
// the name given by its final path segment and returns that path. Downloads
// land in a blake3-keyed cache first so a re-run after a later failure does
// not hit the network again; the caller owns (and deletes) the returned
// working copy.
func FetchArchive(url string) (string, error) {
	name := url[strings.LastIndex(url, "/")+1:]
	if name == "" {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("url has no file name component")}
	}
	dest := filepath.Join(rootDir, name)

	if err := createDir(CacheStore); err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}
	cachePath := filepath.Join(CacheStore, fmt.Sprintf("%s-%s", hashString(url), name))

	if _, err := os.Stat(cachePath); os.IsNotExist(err) {
		colArrow.Print("-> ")
		colSuccess.Printf("Fetching %s\n", name)
		if err := downloadFile(url, cachePath); err != nil {
			os.Remove(cachePath)
			return "", &NetworkError{URL: url, Err: err}
		}
	} else {
		debugf("Already in cache: %s\n", cachePath)
	}

	if err := copyFile(cachePath, dest); err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}
	return dest, nil
}

// downloadFile downloads a URL into absPath. An optional S3 mirror is
// consulted first; upstream transfers go through curl, then wget, then the
// native Go HTTP client.
func downloadFile(url, absPath string) error {
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", absPath, err)
	}
	lockPath := absPath + ".lock"

	// Create/Open a lock file to serialize overlapping invocations on the
	// same cache entry.
	lFile, err := os.Create(lockPath)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer lFile.Close()

	if err := unix.Flock(int(lFile.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock for download: %w", err)
	}
	defer unix.Flock(int(lFile.Fd()), unix.LOCK_UN)

	// DOUBLE CHECK: the file may have appeared while we waited for the lock.
	if _, err := os.Stat(absPath); err == nil {
		debugf("File %s appeared after acquiring lock, skipping download.\n", absPath)
		_ = os.Remove(lockPath)
		return nil
	}

	defer func() {
		if _, err := os.Stat(absPath); err == nil {
			_ = os.Remove(lockPath)
		}
	}()

	// --- Mirror first, when configured ---
	if mirror := newMirrorClient(); mirror != nil {
		err := mirror.Download(filepath.Base(absPath), absPath)
		if err == nil {
			debugf("Download satisfied by mirror.\n")
			return nil
		}
		debugf("Mirror miss, falling back to upstream: %v\n", err)
	}

	debugf("Downloading %s -> %s\n", url, absPath)

	// --- Primary choice: curl ---
	if _, err := exec.LookPath("curl"); err == nil {
		curlArgs := []string{"-L", "--fail", "-o", absPath}
		if Verbose || Debug {
			curlArgs = append(curlArgs, "-#")
		} else {
			curlArgs = append(curlArgs, "-sS")
		}
		curlArgs = append(curlArgs, url)
		cmd := exec.Command("curl", curlArgs...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err == nil {
			debugf("Download successful with curl.\n")
			return nil
		}
		debugf("curl failed, falling back to wget\n")
	} else {
		debugf("curl not found, trying wget\n")
	}

	// --- Fallback 1: wget ---
	if _, err := exec.LookPath("wget"); err == nil {
		args := []string{"-nv", "-O", absPath, url}
		cmd := exec.Command("wget", args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err == nil {
			debugf("Download successful with wget.\n")
			return nil
		}
		debugf("wget failed, falling back to native Go HTTP client\n")
	} else {
		debugf("wget not found, using native Go HTTP client\n")
	}

	// --- Fallback 2: native Go HTTP client ---
	client := newHTTPClient()

	out, err := os.Create(absPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", absPath, err)
	}
	defer out.Close()

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("native http get failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	var dst io.Writer = out
	if term.IsTerminal(int(os.Stdout.Fd())) {
		bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(absPath))
		dst = io.MultiWriter(out, bar)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("failed to write to destination file: %w", err)
	}

	debugf("Download successful with native Go HTTP client.\n")
	return nil
}
