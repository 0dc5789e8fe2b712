package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

const baseURL = "http://localhost:8080"

// Contact mirrors the service's JSON representation.
type Contact struct {
	Id             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Birthday       time.Time `json:"birthday"`
	AdditionalData *string   `json:"additional_data,omitempty"`
}

// Exercises every endpoint of a running contacts service once and prints
// the responses. Intended as a quick smoke check after deployment.
//
// Usage example on the command line:
// > go run ./cmd/client
func main() {
	suffix := rand.Intn(1000000)
	created := post(Contact{
		FirstName: "Marcus",
		LastName:  "Antonius",
		Email:     fmt.Sprintf("marcus.antonius.%d@example.com", suffix),
		Phone:     fmt.Sprintf("+39 999 %06d", suffix),
		Birthday:  time.Date(1983, time.November, 9, 0, 0, 0, 0, time.UTC),
	})
	fmt.Printf("created: %+v\n", created)

	fmt.Printf("get:     %s\n", request(http.MethodGet, fmt.Sprintf("/contacts/%d", created.Id), nil))
	fmt.Printf("list:    %s\n", request(http.MethodGet, "/contacts/?skip=0&limit=5", nil))
	fmt.Printf("search:  %s\n", request(http.MethodGet, "/contacts/search/?query=marcus", nil))
	fmt.Printf("bdays:   %s\n", request(http.MethodGet, "/contacts/birthdays/", nil))

	patch := []byte(`{"additional_data": "met at the forum"}`)
	fmt.Printf("patch:   %s\n", request(http.MethodPatch, fmt.Sprintf("/contacts/%d", created.Id), patch))

	put, _ := json.Marshal(Contact{
		FirstName: "Marcus",
		LastName:  "Aurelius",
		Email:     created.Email,
		Phone:     created.Phone,
		Birthday:  created.Birthday,
	})
	fmt.Printf("put:     %s\n", request(http.MethodPut, fmt.Sprintf("/contacts/%d", created.Id), put))
	fmt.Printf("delete:  %s\n", request(http.MethodDelete, fmt.Sprintf("/contacts/%d", created.Id), nil))
}

func post(contact Contact) Contact {
	body, _ := json.Marshal(contact)
	answer := request(http.MethodPost, "/contacts/", body)
	var created Contact
	if err := json.Unmarshal(answer, &created); err != nil {
		panic(err)
	}
	return created
}

func request(method string, path string, body []byte) []byte {
	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(body))
	if err != nil {
		panic(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer res.Body.Close()
	answer, err := io.ReadAll(res.Body)
	if err != nil {
		panic(err)
	}
	return answer
}
