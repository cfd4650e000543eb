// Command import_catalog scrapes shop product pages into the catalog.
//
//	import_catalog -editor <uid> [-file urls.txt] [url ...]
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/raushankrgupta/fitly-tryon/admin"
	"github.com/raushankrgupta/fitly-tryon/config"
	"github.com/raushankrgupta/fitly-tryon/docstore"
	"github.com/raushankrgupta/fitly-tryon/objectstore"
	"github.com/raushankrgupta/fitly-tryon/scrapers"
)

// maxConcurrentImports limits concurrent page fetches and uploads.
const maxConcurrentImports = 5

func main() {
	editor := flag.String("editor", "import", "user id recorded as createdBy")
	file := flag.String("file", "", "file with one product URL per line")
	category := flag.String("category", "", "category for every imported item, empty takes it from the page")
	flag.Parse()

	config.LoadConfig()
	ctx := context.Background()

	urls := flag.Args()
	if *file != "" {
		fromFile, err := readURLs(*file)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *file, err)
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		log.Fatal("no product URLs given")
	}

	store, err := docstore.Open(ctx)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer store.Close()
	objects, err := objectstore.Open(ctx)
	if err != nil {
		log.Fatalf("Failed to open object store: %v", err)
	}
	if objects == nil {
		log.Fatal("OBJECT_STORE must be set to import catalog images")
	}

	// No role source: the operator running this is trusted.
	svc := admin.NewCatalogService(store, objects, nil, config.ObjectFolderPrefix)
	svc.Scraper = scrapers.NewImporter()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	sem := make(chan struct{}, maxConcurrentImports)
	for _, u := range urls {
		wg.Add(1)
		go func(pageURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			item, err := svc.ImportFromPage(ctx, *editor, pageURL, admin.Item{Category: *category})
			if err != nil {
				log.Printf("Failed to import %s: %v", pageURL, err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			b, _ := json.Marshal(item)
			fmt.Printf("Imported %s: %s\n", pageURL, b)
		}(u)
	}
	wg.Wait()

	fmt.Printf("Imported %d of %d pages\n", len(urls)-failed, len(urls))
	if failed > 0 {
		os.Exit(1)
	}
}

func readURLs(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}
