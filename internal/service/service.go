// Package service wires the contacts REST API: database connection setup,
// the gin router, and the handlers that translate HTTP requests into
// repository calls and repository results into status codes.
package service

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.com/iryna.kovalenko/contacts-api/internal/model"
	"gitlab.com/iryna.kovalenko/contacts-api/internal/repository"
)

// defaultLimit caps a list or search result when the caller does not pass an
// explicit limit.
const defaultLimit = 10

// CreateDatabase opens a database connection. The connection string is taken
// from the DB_DSN environment variable; if it is unset, the DSN is composed
// from DBUSER, DBPWD, DBHOST and DBNAME the classic way.
//
// Usage example:
// > DB_DSN='dirk:bullo92@tcp(localhost)/contacts?parseTime=true' go run ./cmd/service
func CreateDatabase() (*sql.DB, error) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dbname := os.Getenv("DBNAME")
		if dbname == "" {
			dbname = "contacts"
		}
		dsn = fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true",
			os.Getenv("DBUSER"), os.Getenv("DBPWD"), os.Getenv("DBHOST"), dbname)
	}
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return sqlDB, nil
}

// NewDatabaseWrapper wraps the specified sql database with sqlx. The database
// argument can be a real database for production use or a mock database
// within unit tests.
func NewDatabaseWrapper(sqlDB *sql.DB) *sqlx.DB {
	return sqlx.NewDb(sqlDB, "mysql")
}

// Server holds the handler dependencies.
type Server struct {
	contacts *repository.ContactRepository
}

// SetupHttpRouter initializes the REST API router and registers all
// endpoints against the given repository.
func SetupHttpRouter(contacts *repository.ContactRepository) *gin.Engine {
	var router *gin.Engine
	if strings.EqualFold(os.Getenv("GIN_LOGGING"), "off") {
		router = gin.New()
		router.Use(gin.Recovery())
	} else {
		router = gin.Default()
	}
	router.Use(metricsMiddleware())
	router.GET("/", healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s := &Server{contacts: contacts}
	group := router.Group("/contacts")
	group.POST("/", s.createContact)
	group.GET("/", s.findContacts)
	group.GET("/search/", s.searchContacts)
	group.GET("/birthdays/", s.upcomingBirthdays)
	group.GET("/:id", s.findContactByID)
	group.PUT("/:id", s.updateContactByID)
	group.PATCH("/:id", s.patchContactByID)
	group.DELETE("/:id", s.deleteContactByID)
	return router
}

// healthCheck responds with a static status so that load balancers and the
// wait-until-available tool can probe the service.
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// createContact inserts the contact specified in the request's JSON into the
// database. It responds with the full contact data including the newly
// assigned id. The email is pre-checked for uniqueness so that the common
// case yields a clean 409; the unique key on the table catches the race
// where two requests pass the pre-check simultaneously.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/ --request "POST" --include --header "Content-Type: application/json" --data '{"first_name": "Hans", "last_name": "Wurst", "email": "hans@example.com", "phone": "0815", "birthday": "1969-03-02T00:00:00Z"}'
func (s *Server) createContact(c *gin.Context) {
	var input model.ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid contact payload: " + err.Error()})
		return
	}
	existing, err := s.contacts.GetByEmail(c.Request.Context(), input.Email)
	if err != nil {
		abortServerError(c, "checking email uniqueness", err)
		return
	}
	if existing != nil {
		slog.Warn("email already exists", "email", input.Email)
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "contact with this email already exists"})
		return
	}
	created, err := s.contacts.Create(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateContact) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": err.Error()})
			return
		}
		abortServerError(c, "creating contact", err)
		return
	}
	c.IndentedJSON(http.StatusCreated, created)
}

// findContacts responds with a list of contacts as JSON, ordered by
// ascending id.
//
// The URL parameter 'skip' specifies how many contacts from the ordered list
// are left out in the beginning; 'limit' caps how many are returned.
// Together they implement search result paging.
//
// REST API calls:
//
//	> curl "http://localhost:8080/contacts/"
//	> curl "http://localhost:8080/contacts/?skip=20&limit=10"
func (s *Server) findContacts(c *gin.Context) {
	skip, limit, ok := parseSkipAndLimit(c)
	if !ok {
		return
	}
	contacts, err := s.contacts.List(c.Request.Context(), skip, limit)
	if err != nil {
		abortServerError(c, "listing contacts", err)
		return
	}
	c.IndentedJSON(http.StatusOK, emptyIfNil(contacts))
}

// findContactByID locates the contact whose ID value matches the id
// parameter of the request URL, then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56
func (s *Server) findContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	contact, err := s.contacts.GetByID(c.Request.Context(), id)
	if err != nil {
		abortServerError(c, "loading contact", err)
		return
	}
	if contact == nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID replaces the contact whose ID value matches the id
// parameter of the request URL with the complete set of values in the JSON
// body, and responds with the new version of the contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --data '{"first_name": "Erika", "last_name": "Mustermann", "email": "erika@example.com", "phone": "+49 0815 4711", "birthday": "1969-03-02T00:00:00Z"}'
func (s *Server) updateContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input model.ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid contact payload: " + err.Error()})
		return
	}
	s.applyUpdate(c, id, model.FullUpdate(input))
}

// patchContactByID updates the contact whose ID value matches the id
// parameter of the request URL, updates the values specified in the JSON
// (and only those), and finally responds with the new version of the
// contact.
//
// Example REST API calls:
//
//	> curl http://localhost:8080/contacts/56 --request "PATCH" --include --header "Content-Type: application/json" --data '{"phone": "81970"}'
//	> curl http://localhost:8080/contacts/56 --request "PATCH" --include --header "Content-Type: application/json" --data '{"birthday": "1972-06-06T00:00:00Z"}'
func (s *Server) patchContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var changes model.ContactUpdate
	if err := c.ShouldBindJSON(&changes); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid contact payload: " + err.Error()})
		return
	}
	// It only makes sense to continue if we have at least one value to update.
	if changes.Empty() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "no values to be updated"})
		return
	}
	s.applyUpdate(c, id, changes)
}

// applyUpdate runs the repository update and maps its outcome to a status
// code. Shared by PUT and PATCH.
func (s *Server) applyUpdate(c *gin.Context, id int64, changes model.ContactUpdate) {
	updated, err := s.contacts.Update(c.Request.Context(), id, changes)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateContact) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": err.Error()})
			return
		}
		abortServerError(c, "updating contact", err)
		return
	}
	if updated == nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, updated)
}

// deleteContactByID deletes the contact whose ID value matches the id
// parameter of the request URL from the database.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "DELETE"
func (s *Server) deleteContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	deleted, err := s.contacts.Delete(c.Request.Context(), id)
	if err != nil {
		abortServerError(c, "deleting contact", err)
		return
	}
	if deleted == nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// searchContacts responds with the contacts where the 'query' URL parameter
// appears as a case-insensitive substring of the first name, last name, or
// email. The 'skip' and 'limit' URL parameters behave as in findContacts.
//
// REST API calls:
//
//	> curl "http://localhost:8080/contacts/search/?query=alice"
//	> curl "http://localhost:8080/contacts/search/?query=%40example.com&limit=5"
func (s *Server) searchContacts(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "missing query parameter"})
		return
	}
	skip, limit, ok := parseSkipAndLimit(c)
	if !ok {
		return
	}
	contacts, err := s.contacts.Search(c.Request.Context(), query, skip, limit)
	if err != nil {
		abortServerError(c, "searching contacts", err)
		return
	}
	c.IndentedJSON(http.StatusOK, emptyIfNil(contacts))
}

// upcomingBirthdays responds with the contacts whose birthday falls within
// the next 7 days, the current day included, comparing month and day only.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/birthdays/"
func (s *Server) upcomingBirthdays(c *gin.Context) {
	contacts, err := s.contacts.UpcomingBirthdays(c.Request.Context(), time.Now())
	if err != nil {
		abortServerError(c, "loading upcoming birthdays", err)
		return
	}
	c.IndentedJSON(http.StatusOK, emptyIfNil(contacts))
}

// parseID inspects the id path parameter. A non-numeric id cannot match any
// contact, so it is answered with NOT FOUND without reaching the database.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return 0, false
	}
	return id, true
}

// parseSkipAndLimit inspects the URL parameters and determines values for
// skip and limit of the result set.
func parseSkipAndLimit(c *gin.Context) (skip int, limit int, success bool) {
	skip, errSkip := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if errSkip != nil || skip < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid skip parameter"})
		return 0, 0, false
	}
	limit, errLimit := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if errLimit != nil || limit < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid limit parameter"})
		return 0, 0, false
	}
	return skip, limit, true
}

// abortServerError logs a store-level failure and answers with a generic
// INTERNAL SERVER ERROR. Details stay in the log, not in the response.
func abortServerError(c *gin.Context, action string, err error) {
	slog.Error("persistence failure while "+action, "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
}

// emptyIfNil keeps empty result sets rendering as [] instead of null.
func emptyIfNil(contacts []model.Contact) []model.Contact {
	if contacts == nil {
		return []model.Contact{}
	}
	return contacts
}
