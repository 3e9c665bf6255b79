package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mbayswater/adjutant/internal/config"
	iexec "github.com/mbayswater/adjutant/internal/exec"
	"github.com/mbayswater/adjutant/internal/ingest"
)

var ingestSkipTranscript bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Manage the reference video library",
	Long: `Pull video metadata and transcripts into a local library.

Ingested transcripts are reference material for writing work requests;
the scheduler never reads the library. Requires yt-dlp on PATH (or set
ingest.ytdlp_path).`,
}

var ingestAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Fetch a video's metadata and transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestAdd,
}

var ingestListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the library, newest first",
	RunE:  runIngestList,
}

var ingestRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a library entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestRemove,
}

func init() {
	ingestAddCmd.Flags().BoolVar(&ingestSkipTranscript, "skip-transcript", false, "Store metadata only")

	ingestCmd.AddCommand(ingestAddCmd)
	ingestCmd.AddCommand(ingestListCmd)
	ingestCmd.AddCommand(ingestRemoveCmd)
}

func runIngestAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client := ingest.NewClient(iexec.NewRunner(), cfg.Ingest.YtdlpPath)
	if !client.Available() {
		return fmt.Errorf("yt-dlp not found; install it or set ingest.ytdlp_path")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	url := args[0]
	fmt.Printf("Fetching metadata for %s ...\n", url)
	video, err := client.Metadata(ctx, url)
	if err != nil {
		return err
	}
	printStatus("✓", fmt.Sprintf("%s — %s (%s)", video.Title, video.Channel, formatDuration(video.Duration)), color.FgGreen)

	transcriptPath := ""
	if !ingestSkipTranscript {
		fmt.Println("Fetching transcript ...")
		transcriptPath, err = client.Transcript(ctx, video, cfg.TranscriptsDir())
		if err != nil {
			// Metadata is still worth keeping when no captions exist.
			printStatus("⚠", fmt.Sprintf("no transcript: %v", err), color.FgYellow)
		} else {
			printStatus("✓", fmt.Sprintf("Transcript saved to %s", transcriptPath), color.FgGreen)
		}
	}

	lib, err := ingest.OpenLibrary(cfg.LibraryPath())
	if err != nil {
		return err
	}
	defer lib.Close()

	entry := &ingest.Entry{
		ID:             video.ID,
		Title:          video.Title,
		Channel:        video.Channel,
		URL:            video.URL,
		DurationS:      int64(video.Duration / time.Second),
		TranscriptPath: transcriptPath,
	}
	if err := lib.Add(entry); err != nil {
		return err
	}

	fmt.Printf("Added %s to the library.\n", video.ID)
	return nil
}

func runIngestList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := os.Stat(cfg.LibraryPath()); os.IsNotExist(err) {
		fmt.Println("Library is empty. Add videos with 'adjutant ingest add <url>'.")
		return nil
	}

	lib, err := ingest.OpenLibrary(cfg.LibraryPath())
	if err != nil {
		return err
	}
	defer lib.Close()

	entries, err := lib.List(50)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Library is empty. Add videos with 'adjutant ingest add <url>'.")
		return nil
	}

	for _, e := range entries {
		transcript := "no transcript"
		if e.TranscriptPath != "" {
			transcript = e.TranscriptPath
		}
		fmt.Printf("%s  %-40s %-20s %6s  %s\n",
			e.ID,
			truncateLine(e.Title, 40),
			truncateLine(e.Channel, 20),
			formatDuration(time.Duration(e.DurationS)*time.Second),
			transcript)
	}
	return nil
}

func runIngestRemove(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lib, err := ingest.OpenLibrary(cfg.LibraryPath())
	if err != nil {
		return err
	}
	defer lib.Close()

	// Transcript files are left on disk; only the catalog entry goes away.
	if err := lib.Remove(args[0]); err != nil {
		return err
	}
	printStatus("✓", fmt.Sprintf("Removed %s", args[0]), color.FgGreen)
	return nil
}
