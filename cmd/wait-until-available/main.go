package main

import (
	"fmt"
	"net/http"
	"time"
)

// Polls the health endpoint until the contacts service answers with OK.
// Useful in compose setups where the database and the service come up in
// arbitrary order.
func main() {
	totalWaitTime := 0
	for {
		res, err := http.Get("http://localhost:8080/")
		if err == nil {
			if res.StatusCode == http.StatusOK {
				fmt.Println(res)
				break
			}
			fmt.Println(res)
		} else {
			fmt.Println(err)
		}
		totalWaitTime += 5
		fmt.Printf("Waiting %d seconds\n", totalWaitTime)
		time.Sleep(5 * time.Second)
	}
}
