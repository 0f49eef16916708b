package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stylequiz/internal/catalog"
	"stylequiz/internal/model"
	"stylequiz/internal/repository"
)

// Usage: seed [catalog.yaml]
// Without a path the embedded default catalog is stored.
func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DATABASE")
	if dbName == "" {
		dbName = "stylequiz"
	}

	var (
		cat *model.Catalog
		err error
	)
	if len(os.Args) > 1 {
		cat, err = catalog.LoadFile(os.Args[1])
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	repo := repository.NewCatalogRepo(client.Database(dbName))
	existing, err := repo.GetByVersion(ctx, cat.Version)
	if err != nil {
		log.Fatalf("Failed to read catalog: %v", err)
	}
	if existing != nil {
		fmt.Printf("Replacing catalog '%s' stored at %s\n", existing.Version, existing.UpdatedAt.Format(time.RFC3339))
	}

	if err := repo.Save(ctx, cat); err != nil {
		log.Fatalf("Failed to store catalog: %v", err)
	}

	fmt.Printf("Successfully stored catalog '%s' (%d questions, %d styles)\n", cat.Version, len(cat.Questions), len(cat.Styles))
}
