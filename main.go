package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/raushankrgupta/fitly-tryon/admin"
	"github.com/raushankrgupta/fitly-tryon/api"
	"github.com/raushankrgupta/fitly-tryon/auth"
	"github.com/raushankrgupta/fitly-tryon/catalog"
	"github.com/raushankrgupta/fitly-tryon/config"
	"github.com/raushankrgupta/fitly-tryon/docstore"
	"github.com/raushankrgupta/fitly-tryon/garments"
	"github.com/raushankrgupta/fitly-tryon/history"
	"github.com/raushankrgupta/fitly-tryon/inference"
	"github.com/raushankrgupta/fitly-tryon/localstore"
	"github.com/raushankrgupta/fitly-tryon/objectstore"
	"github.com/raushankrgupta/fitly-tryon/profile"
	"github.com/raushankrgupta/fitly-tryon/scrapers"
	"github.com/raushankrgupta/fitly-tryon/selection"
	"github.com/raushankrgupta/fitly-tryon/tryon"
)

func main() {
	config.LoadConfig()
	ctx := context.Background()

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
		log.Println("No OBJECT_STORE configured, cloud upload is disabled")
	}

	client, err := inference.Open()
	if err != nil {
		log.Fatalf("Failed to configure inference: %v", err)
	}

	verifier, err := auth.Open(ctx)
	if err != nil {
		log.Fatalf("Failed to configure auth: %v", err)
	}

	files, err := localstore.NewFiles(config.AppDataDir)
	if err != nil {
		log.Fatalf("Failed to prepare app data dir: %v", err)
	}

	profiles := profile.NewService(store, objects, config.ObjectFolderPrefix)
	hist := history.NewRepository(store)
	selections := selection.NewRegistry()

	catalogAdmin := admin.NewCatalogService(store, objects, profiles, config.ObjectFolderPrefix)
	catalogAdmin.Scraper = scrapers.NewImporter()

	sessions := tryon.NewSessions(tryon.Deps{
		Inference: client,
		Files:     files,
		Gallery:   &localstore.DirGallery{Dir: config.GalleryDir, Files: files},
		Picker:    &localstore.DirFolderPicker{Dir: config.ExportDir},
		Objects:   objects,
		History:   hist,
		Folder:    config.ObjectFolderPrefix,
	}, selections)

	h := &api.Handler{
		Catalog:      catalog.NewReader(store),
		Garments:     garments.NewRepository(store, objects, config.ObjectFolderPrefix),
		Selections:   selections,
		TryOn:        sessions,
		History:      hist,
		Profiles:     profiles,
		Admin:        catalogAdmin,
		GarmentLimit: config.GarmentLimit,
		CatalogLimit: config.CatalogLimit,
		HistoryLimit: config.HistoryLimit,
	}

	filesDir := ""
	if config.ObjectStore == "local" {
		filesDir = config.LocalObjectDir
	}

	fmt.Printf("Server starting on port %s...\n", config.Port)
	if err := http.ListenAndServe(":"+config.Port, api.NewRouter(h, verifier, filesDir)); err != nil {
		log.Fatal(err)
	}
}
