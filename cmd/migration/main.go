package main

import (
	"bufio"
	"flag"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"gitlab.com/iryna.kovalenko/contacts-api/internal/service"
	"gitlab.com/iryna.kovalenko/contacts-api/pkg/logging"
)

// Usage example on the command line:
// > DB_DSN='dirk:bullo92@tcp(localhost)/contacts?parseTime=true' go run ./cmd/migration -file=scripts/database.sql
func main() {
	_ = godotenv.Load()
	logging.Setup()

	filePtr := flag.String("file", "scripts/database.sql", "the sql file to execute")
	flag.Parse()

	sqlDB, err := service.CreateDatabase()
	if err != nil {
		slog.Error("could not open database", "error", err)
		os.Exit(1)
	}
	db := service.NewDatabaseWrapper(sqlDB)
	defer db.Close()

	readFile, err := os.Open(*filePtr)
	if err != nil {
		slog.Error("could not open sql file", "file", *filePtr, "error", err)
		os.Exit(1)
	}
	defer readFile.Close()

	for _, statement := range splitStatements(readFile) {
		db.MustExec(statement)
	}
	slog.Info("migration applied", "file", *filePtr)
}

// splitStatements cuts the SQL file into executable statements, each
// terminated by a semicolon. Line comments are dropped first, so a ';'
// inside a comment does not cut a statement, and chunks without any
// executable content never reach the database.
func splitStatements(reader io.Reader) []string {
	fileScanner := bufio.NewScanner(reader)
	fileScanner.Split(bufio.ScanLines)
	var statements []string
	builder := strings.Builder{}
	for fileScanner.Scan() {
		line := fileScanner.Text()
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			if statement := builder.String(); !executableEmpty(statement) {
				statements = append(statements, statement)
			}
			builder = strings.Builder{}
		}
	}
	return statements
}

// executableEmpty reports whether a chunk holds nothing but whitespace and
// semicolons. MySQL answers such a query with "Query was empty".
func executableEmpty(statement string) bool {
	return strings.TrimSpace(strings.ReplaceAll(statement, ";", "")) == ""
}
