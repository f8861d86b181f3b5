package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"hairtryapi/models"
	"hairtryapi/services"
	"hairtryapi/studio"

	"github.com/joho/godotenv"
)

// relaybatch runs the preview batch as a plain HTTP client of a remote
// relay: the same orchestrator the server uses, pointed at RelayClient
// instead of the model. Generated previews land in the output directory as
// <style-id>.png, failures are reported per style at the end.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	relayURL := flag.String("relay", services.GetEnv("RELAY_URL", "http://localhost:8083"), "base URL of the relay server")
	imagePath := flag.String("image", "", "path to the source photo")
	outDir := flag.String("out", "previews", "output directory for generated previews")
	flag.Parse()

	if *imagePath == "" {
		log.Fatal("usage: relaybatch -image <photo> [-relay <url>] [-out <dir>]")
	}

	imageBytes, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatalf("failed to read source photo: %v", err)
	}
	mimeType := http.DetectContentType(imageBytes)
	if !services.IsAllowedImageMimeType(mimeType) {
		log.Fatalf("unsupported photo type: %s", mimeType)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	store := studio.NewStore()
	session := store.Create(imageBytes, mimeType)
	orchestrator := studio.NewOrchestrator(services.NewRelayClient(*relayURL))

	fmt.Printf("Generating %v previews through %s\n", len(models.StyleCatalog), *relayURL)
	if err := orchestrator.RunBatch(context.Background(), session); err != nil {
		log.Fatalf("batch failed to start: %v", err)
	}

	var failed int
	for _, style := range models.StyleCatalog {
		preview, ok := session.Preview(style.ID)
		if !ok {
			continue
		}
		switch preview.Status {
		case models.PreviewSuccess:
			if err := writePreview(*outDir, style.ID, *preview.ImageURL); err != nil {
				fmt.Printf("  %-16s generated but not saved: %v\n", style.ID, err)
				failed++
				continue
			}
			fmt.Printf("  %-16s ok\n", style.ID)
		case models.PreviewError:
			fmt.Printf("  %-16s failed: %s\n", style.ID, *preview.Error)
			failed++
		}
	}

	if failed > 0 {
		fmt.Printf("Done with %v failures, re-run to retry failed styles\n", failed)
		os.Exit(1)
	}
	fmt.Println("Done")
}

func writePreview(outDir, styleID, dataURL string) error {
	comma := strings.Index(dataURL, ",")
	if !strings.HasPrefix(dataURL, "data:") || comma < 0 {
		return fmt.Errorf("unexpected image payload")
	}
	decoded, err := base64.StdEncoding.DecodeString(dataURL[comma+1:])
	if err != nil {
		return fmt.Errorf("failed to decode image: %v", err)
	}
	return os.WriteFile(filepath.Join(outDir, styleID+".png"), decoded, 0o644)
}
