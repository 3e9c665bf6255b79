// Package ingest wraps an external video platform for pulling reference
// material into a local library. It has no relationship to the orchestration
// core; only the CLI wires both.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	iexec "github.com/mbayswater/adjutant/internal/exec"
)

// Video holds the metadata subset Adjutant keeps for a platform video.
type Video struct {
	ID          string
	Title       string
	Channel     string
	URL         string
	Duration    time.Duration
	UploadDate  string
	Description string
}

// videoJSON mirrors the fields of interest in yt-dlp's -J dump.
type videoJSON struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Channel     string  `json:"channel"`
	Uploader    string  `json:"uploader"`
	WebpageURL  string  `json:"webpage_url"`
	Duration    float64 `json:"duration"`
	UploadDate  string  `json:"upload_date"`
	Description string  `json:"description"`
}

// Client shells out to yt-dlp for metadata and transcript retrieval.
type Client struct {
	runner    iexec.CommandRunner
	ytdlpPath string
}

// NewClient creates a Client. An empty ytdlpPath falls back to "yt-dlp" on PATH.
func NewClient(runner iexec.CommandRunner, ytdlpPath string) *Client {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	return &Client{
		runner:    runner,
		ytdlpPath: ytdlpPath,
	}
}

// Available reports whether the yt-dlp binary can be found.
func (c *Client) Available() bool {
	return c.runner.LookPath(c.ytdlpPath)
}

// Metadata fetches a video's metadata without downloading media.
func (c *Client) Metadata(ctx context.Context, url string) (*Video, error) {
	out, err := c.runner.Run(ctx, "", c.ytdlpPath, "-J", "--no-playlist", url)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp metadata for %s: %w", url, err)
	}

	var parsed videoJSON
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}
	if parsed.ID == "" {
		return nil, fmt.Errorf("yt-dlp returned no video id for %s", url)
	}

	channel := parsed.Channel
	if channel == "" {
		channel = parsed.Uploader
	}
	pageURL := parsed.WebpageURL
	if pageURL == "" {
		pageURL = url
	}

	return &Video{
		ID:          parsed.ID,
		Title:       parsed.Title,
		Channel:     channel,
		URL:         pageURL,
		Duration:    time.Duration(parsed.Duration * float64(time.Second)),
		UploadDate:  parsed.UploadDate,
		Description: parsed.Description,
	}, nil
}

// Transcript fetches English subtitles for a video into dir and returns the
// written file's path. Auto-generated captions are accepted when no manual
// track exists.
func (c *Client) Transcript(ctx context.Context, video *Video, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create transcript dir %s: %w", dir, err)
	}

	out, err := c.runner.Run(ctx, "", c.ytdlpPath,
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", "en.*",
		"--convert-subs", "srt",
		"-P", dir,
		"-o", "%(id)s",
		video.URL,
	)
	if err != nil {
		return "", fmt.Errorf("yt-dlp subtitles for %s: %w: %s", video.ID, err, string(out))
	}

	// yt-dlp names the file <id>.<lang>.srt; the language tag varies.
	matches, err := filepath.Glob(filepath.Join(dir, video.ID+"*.srt"))
	if err == nil && len(matches) > 0 {
		return matches[0], nil
	}
	return "", fmt.Errorf("no subtitle file produced for %s", video.ID)
}
