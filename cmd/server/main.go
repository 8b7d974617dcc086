package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/markRiceOld/trackerApi/internal/config"
	"github.com/markRiceOld/trackerApi/internal/serverapp"
	"github.com/markRiceOld/trackerApi/internal/store"
)

func main() {
	cfg, err := config.Load("tracker_config.yml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}
	st, err := store.Open(filepath.Join(cfg.Data.Dir, "tracker.db"))
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	handler, err := serverapp.NewHandler(serverapp.Options{
		Config: &cfg,
		Store:  st,
		Logger: log.Default(),
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	log.Printf("listening on %s", cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, handler))
}
