package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"realty-backoffice/api"
	"realty-backoffice/config"
	"realty-backoffice/feed"
	"realty-backoffice/models"
	"realty-backoffice/services"
	"realty-backoffice/storage"
	"realty-backoffice/store"
	"realty-backoffice/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Brokerage back office starting ===")
	logger.Info("Config: db: %s | cache: %s | flush: %dms | port: %s",
		cfg.MongoDatabase, cfg.CacheBackend, cfg.CacheFlushMs, cfg.APIPort)

	kv := openKV(cfg, logger)

	client, err := feed.Connect(cfg.MongoURI, logger)
	if err != nil {
		logger.Error("Failed to connect to the document store: %v", err)
		os.Exit(1)
	}
	db := client.Database(cfg.MongoDatabase)

	queue := store.NewWriteQueue(kv, time.Duration(cfg.CacheFlushMs)*time.Millisecond, logger)

	listings := store.New[models.Listing](cfg.ListingsCollection,
		feed.NewMongoSource[models.Listing](db.Collection(cfg.ListingsCollection), feed.PrimaryQuery(), logger),
		queue, kv, logger)
	buyers := store.New[models.Buyer](cfg.BuyersCollection,
		feed.NewMongoSource[models.Buyer](db.Collection(cfg.BuyersCollection), feed.PrimaryQuery(), logger),
		queue, kv, logger)
	listingProj := store.New[models.MatchListing](cfg.ListingMatchCollection,
		feed.NewMongoSource[models.MatchListing](db.Collection(cfg.ListingMatchCollection), feed.PrimaryQuery(), logger),
		queue, kv, logger)
	buyerProj := store.New[models.BuyerMatchSnapshot](cfg.BuyerMatchCollection,
		feed.NewMongoSource[models.BuyerMatchSnapshot](db.Collection(cfg.BuyerMatchCollection), feed.PrimaryQuery(), logger),
		queue, kv, logger)
	curated := store.New[models.CuratedSet](cfg.CuratedSetsCollection,
		feed.NewMongoSource[models.CuratedSet](db.Collection(cfg.CuratedSetsCollection), feed.PrimaryQuery(), logger),
		queue, kv, logger)

	index := services.NewMatchIndex(listingProj, buyerProj, logger)
	buffer := services.NewMatchBuffer(kv, logger)
	selection := services.NewSelectionMemory(kv, logger)

	router := mux.NewRouter()
	handler := api.NewHandler(listings, buyers, curated, index, buffer, selection, logger)
	handler.WithWriters(
		feed.NewMutator(db.Collection(cfg.ListingsCollection), logger),
		feed.NewMutator(db.Collection(cfg.BuyersCollection), logger),
	)
	handler.RegisterRoutes(router)

	server := &http.Server{Addr: ":" + cfg.APIPort, Handler: router}
	go func() {
		logger.Info("API listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("API server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Session ending, tearing down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)

	// Teardown order: stores first (they emit their final empty snapshot),
	// then the write queue so the last pending snapshots reach the cache.
	listings.Close()
	buyers.Close()
	listingProj.Close()
	buyerProj.Close()
	curated.Close()
	queue.Close()
	_ = client.Disconnect(ctx)

	logger.Info("Done.")
}

// openKV picks the durable cache backend; any failure degrades to the
// in-memory store so the session still works, just without a warm start.
func openKV(cfg *config.Config, logger *utils.Logger) storage.KV {
	if cfg.CacheBackend == "postgres" && cfg.PostgresDSN != "" {
		kv, err := storage.NewPostgresKV(cfg.PostgresDSN)
		if err == nil {
			return kv
		}
		logger.Warn("Postgres cache unavailable, falling back to files: %v", err)
	}

	kv, err := storage.NewFileKV(cfg.CacheDir)
	if err != nil {
		logger.Warn("File cache unavailable, running memory-only: %v", err)
		return storage.NewMemoryKV()
	}
	return kv
}
