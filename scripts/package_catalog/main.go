package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"coursehunter/internal/catalog"

	"github.com/rs/zerolog"
)

// package_catalog validates a catalog file and writes a gzipped copy ready
// for upload to the S3 catalog bucket.
//
// Usage: go run ./scripts/package_catalog [source.json] [dest.json.gz]
// With no arguments the embedded catalog is written to data/catalog/catalog.json.gz.
func main() {
	source := ""
	dest := filepath.Join("data", "catalog", "catalog.json.gz")
	if len(os.Args) > 1 {
		source = os.Args[1]
	}
	if len(os.Args) > 2 {
		dest = os.Args[2]
	}

	c, err := catalog.Open(context.Background(), catalog.NewFileLoader(zerolog.Nop()), source)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	if err := writeCatalog(dest, c.All()); err != nil {
		log.Fatalf("Failed to write %s: %v", dest, err)
	}

	fmt.Printf("Packaged %d courses into %s\n", c.Len(), dest)
	fmt.Println("\nUpload it with:")
	fmt.Printf("  aws s3 cp %s s3://$S3_BUCKET/$S3_PREFIX%s\n", dest, filepath.Base(dest))
	fmt.Printf("and set CATALOG_PATH=%s\n", filepath.Base(dest))
}

func writeCatalog(filePath string, courses []catalog.Course) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := json.NewEncoder(gzipWriter)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(courses); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}

	return nil
}
