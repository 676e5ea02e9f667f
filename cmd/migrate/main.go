package main

import (
	"context"
	"log"

	"multimodal-rag-be/internal/config"
	"multimodal-rag-be/internal/repository/implementation"
	"multimodal-rag-be/pkg/database"
	"multimodal-rag-be/pkg/vectorstore/pgvector"
)

// Creates the Postgres tables used when SESSION_STORE=postgres or
// VECTOR_STORE=pgvector. Mongo and Qdrant need no migration.
func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.Open(cfg.Database.Connection, true, database.DefaultPoolConfig())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Session and file tables...")
	if err := implementation.AutoMigrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Step 2: pgvector extension and vector tables...")
	if err := pgvector.New(db).Migrate(context.Background()); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed")
}
