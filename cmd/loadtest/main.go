package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"
)

var URL, _ = os.LookupEnv("API_URL")
var PORT, _ = os.LookupEnv("API_PORT")
var apiURL = fmt.Sprintf("http://%s:%s/api/v1/transactions", URL, PORT)

const (
	workers    = 10
	duration   = 30 * time.Second
	customerID = "loadtest-customer"
)

var accounts = []string{
	"2f5d1c0e-7d84-4c1b-9f0e-000000000001",
	"2f5d1c0e-7d84-4c1b-9f0e-000000000002",
	"2f5d1c0e-7d84-4c1b-9f0e-000000000003",
}

type request struct {
	path string
	body map[string]string
}

type summary struct {
	mu       sync.Mutex
	byStatus map[int]int
}

func (s *summary) add(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byStatus[status]++
}

func (s *summary) print() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for status, n := range s.byStatus {
		fmt.Printf("  %d: %d\n", status, n)
	}
}

func main() {
	var wg sync.WaitGroup
	wg.Add(workers)
	stats := &summary{byStatus: map[int]int{}}

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			start := time.Now()
			for time.Since(start) < duration {
				status, message, err := send(randomRequest())
				if err != nil {
					fmt.Println("Error sending transaction:", err)
				} else {
					stats.add(status)
					fmt.Printf("Transaction sent. Status code: %d, Message: %v\n", status, message)
				}

				time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				printAccounts()
			}
		}
	}()

	wg.Wait()
	close(done)
	printAccounts()
	fmt.Println("Responses by status:")
	stats.print()
}

func randomRequest() request {
	amount := fmt.Sprintf("%.2f", rand.Float64()*500+1)
	source := accounts[rand.Intn(len(accounts))]
	destination := accounts[rand.Intn(len(accounts))]

	switch rand.Intn(3) {
	case 0:
		return request{path: "/deposit", body: map[string]string{"accountId": source, "amount": amount, "reference": uuid.New().String()}}
	case 1:
		return request{path: "/withdrawal", body: map[string]string{"accountId": source, "amount": amount}}
	default:
		// same account now and then to exercise validation
		return request{path: "/transfer", body: map[string]string{"sourceAccountId": source, "destinationAccountId": destination, "amount": amount}}
	}
}

func send(r request) (int, interface{}, error) {
	data, err := json.Marshal(r.body)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequest(http.MethodPost, apiURL+r.path, bytes.NewBuffer(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	setIdentity(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var message interface{}
	if err = json.NewDecoder(resp.Body).Decode(&message); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("error decoding transaction response: %w", err)
	}
	return resp.StatusCode, message, nil
}

func printAccounts() {
	for _, account := range accounts {
		req, err := http.NewRequest(http.MethodGet, apiURL+"/account/"+account, nil)
		if err != nil {
			fmt.Println("Error building request:", err)
			return
		}
		setIdentity(req)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Println("Error listing transactions:", err)
			return
		}

		var txs []struct {
			Status string `json:"status"`
		}
		err = json.NewDecoder(resp.Body).Decode(&txs)
		resp.Body.Close()
		if err != nil {
			fmt.Println("Error decoding transactions:", err)
			return
		}

		byStatus := map[string]int{}
		for _, tx := range txs {
			byStatus[tx.Status]++
		}
		fmt.Printf("Account %s: %d transactions %v\n", account, len(txs), byStatus)
	}
}

func setIdentity(req *http.Request) {
	req.Header.Set("X-Auth-Username", "loadtest")
	req.Header.Set("X-Auth-Customer-Id", customerID)
	req.Header.Set("X-Auth-Role", "CUSTOMER")
}
