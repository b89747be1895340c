package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	shamela "github.com/azizmrsh/shamela-go"
)

var (
	maxPages   int
	maxWorkers int
	outputFile string
	compress   bool
	stream     bool
	resume     bool
	delay      time.Duration
	cacheDir   string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shamela",
		Short: "Shamela library harvester",
		Long:  "Extracts complete books from the Shamela digital library as structured JSON",
	}

	extractCmd := &cobra.Command{
		Use:   "extract <book-id>",
		Short: "Extract one book and write it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtract,
	}
	extractCmd.Flags().IntVar(&maxPages, "max-pages", 0, "Limit the number of pages fetched (0 = whole book)")
	extractCmd.Flags().IntVar(&maxWorkers, "workers", 0, "Fixed worker count (0 = scale with book size)")
	extractCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output path (default: book_<id>.json)")
	extractCmd.Flags().BoolVar(&compress, "compress", false, "Gzip the output")
	extractCmd.Flags().BoolVar(&stream, "stream-json", false, "Stream the pages array while encoding")
	extractCmd.Flags().BoolVar(&resume, "resume", false, "Resume from an existing checkpoint")
	extractCmd.Flags().DurationVar(&delay, "delay", 100*time.Millisecond, "Delay before each page request")
	extractCmd.Flags().StringVar(&cacheDir, "cache", "", "Enable the persistent response cache at this directory")
	extractCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	categoryCmd := &cobra.Command{
		Use:   "category <category-id>",
		Short: "List the book IDs in a category",
		Args:  cobra.ExactArgs(1),
		RunE:  runCategory,
	}
	categoryCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("shamela v1.0.0")
		},
	}

	rootCmd.AddCommand(extractCmd, categoryCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() *shamela.Client {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := []shamela.Option{
		shamela.WithLogger(logger),
		shamela.WithMaxPages(maxPages),
		shamela.WithMaxWorkers(maxWorkers),
		shamela.WithRequestDelay(delay),
		shamela.WithResume(resume),
	}
	if cacheDir != "" {
		opts = append(opts, shamela.WithPersistentCache(cacheDir, time.Hour))
	}
	return shamela.New(opts...)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newClient()
	doc, err := client.Extract(ctx, args[0])
	if err != nil {
		return err
	}

	path := outputFile
	if path == "" {
		path = fmt.Sprintf("book_%s.json", doc.BookID)
	}
	final, err := shamela.WriteFile(path, doc, shamela.SaveOptions{Compress: compress, Stream: stream})
	if err != nil {
		return err
	}

	stats := client.Stats()
	fmt.Printf("%s: %d pages, %d volumes -> %s\n", doc.Title, len(doc.Pages), doc.VolumeCount, final)
	fmt.Printf("requests=%d retries=%d recoveries=%d cache_hits=%d\n",
		stats.TotalRequests, stats.RetriesUsed, stats.RecoveriesPerformed, stats.CacheHits)
	return nil
}

func runCategory(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listing, err := newClient().Category(ctx, args[0])
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(listing)
}
