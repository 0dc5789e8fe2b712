package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"gitlab.com/iryna.kovalenko/contacts-api/internal/repository"
	"gitlab.com/iryna.kovalenko/contacts-api/internal/service"
	"gitlab.com/iryna.kovalenko/contacts-api/pkg/logging"
)

// Usage example on the command line:
// > PORT=8080 DB_DSN='dirk:bullo92@tcp(localhost)/contacts?parseTime=true' GIN_MODE=release go run ./cmd/service
//
// All variables can also come from a .env file in the working directory.
func main() {
	_ = godotenv.Load()
	logging.Setup()

	sqlDB, err := service.CreateDatabase()
	if err != nil {
		slog.Error("could not open database", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	db := service.NewDatabaseWrapper(sqlDB)
	contacts, err := repository.NewContactRepository(db)
	if err != nil {
		slog.Error("could not prepare statements", "error", err)
		os.Exit(1)
	}

	router := service.SetupHttpRouter(contacts)
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("contacts service listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
