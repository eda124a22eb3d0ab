/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the RCD rating host. Handles configuration,
  dependency wiring and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load and validate the tariff book (file or built-in sample)
  3. Initialize the SQLite snapshot store
  4. Create the API handler and router
  5. Start the server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: 8080)
  -db       SQLite database path (default: quotes.db, ":memory:" works)
  -tariff   Path to a JSON tariff book (default: built-in sample book)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for
  in-flight requests, close the database, exit.

SEE ALSO:
  - api/server.go: Router configuration
  - factory/tariff.go: Tariff book loading
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/rating-engine/api"
	"github.com/warp/rating-engine/factory"
	"github.com/warp/rating-engine/rating"
	"github.com/warp/rating-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "quotes.db", "SQLite database path")
	tariffPath := flag.String("tariff", "", "JSON tariff book path (empty = built-in sample)")
	flag.Parse()

	// Tariff book
	book := factory.DefaultTariffBook()
	if *tariffPath != "" {
		data, err := os.ReadFile(*tariffPath)
		if err != nil {
			log.Fatalf("Failed to read tariff book: %v", err)
		}
		book, err = factory.ParseTariff(data)
		if err != nil {
			log.Fatalf("Failed to parse tariff book: %v", err)
		}
	}

	engine, err := rating.NewEngine(book)
	if err != nil {
		log.Fatalf("Failed to initialize rating engine: %v", err)
	}
	log.Printf("Tariff book %s loaded (%d activity profiles)", book.Version, len(book.Activities))

	// Snapshot store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Handler + router
	handler, err := api.NewHandler(engine, store)
	if err != nil {
		log.Fatalf("Failed to initialize handler: %v", err)
	}
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Rating host listening on http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
