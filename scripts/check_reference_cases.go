// check_reference_cases.go runs a Crosscheck instance against its own
// published reference cases by posting them back as a batch.
//
// Usage:
//
//	go run scripts/check_reference_cases.go -api http://localhost:8700 -client ci
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

type referenceCase struct {
	Name            string      `json:"name"`
	Source          string      `json:"source"`
	Matrix          [][]float64 `json:"matrix"`
	Items           []string    `json:"items"`
	ExpectedWeights []float64   `json:"expected_weights"`
	ExpectedCR      float64     `json:"expected_cr"`
	Tolerance       float64     `json:"tolerance"`
}

type batchMatrix struct {
	Name        string      `json:"name"`
	Matrix      [][]float64 `json:"matrix"`
	Items       []string    `json:"items"`
	YourWeights []float64   `json:"your_weights"`
	YourCR      float64     `json:"your_cr"`
}

type batchResult struct {
	Name       string `json:"name"`
	ErrorKind  string `json:"error_kind"`
	Message    string `json:"message"`
	Comparison *struct {
		MaxDelta float64 `json:"max_delta"`
		Pass     bool    `json:"pass"`
	} `json:"comparison"`
}

func main() {
	apiURL := flag.String("api", "http://localhost:8700", "Crosscheck API base URL")
	clientID := flag.String("client", "reference-check", "X-Client-ID header value")
	flag.Parse()

	httpClient := &http.Client{Timeout: 30 * time.Second}

	resp, err := httpClient.Get(*apiURL + "/reference-cases")
	if err != nil {
		log.Fatalf("get reference cases: %v", err)
	}
	var cases struct {
		Engine string          `json:"engine"`
		Cases  []referenceCase `json:"cases"`
	}
	err = json.NewDecoder(resp.Body).Decode(&cases)
	resp.Body.Close()
	if err != nil {
		log.Fatalf("decode reference cases: %v", err)
	}

	// Published values carry their own rounding, so each case is checked at
	// its own tolerance in a separate batch.
	failed := 0
	for _, c := range cases.Cases {
		payload := map[string]interface{}{
			"matrices": []batchMatrix{{
				Name:        c.Name,
				Matrix:      c.Matrix,
				Items:       c.Items,
				YourWeights: c.ExpectedWeights,
				YourCR:      c.ExpectedCR,
			}},
			"tolerance": c.Tolerance,
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest("POST", *apiURL+"/validate-batch", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Client-ID", *clientID)

		resp, err := httpClient.Do(req)
		if err != nil {
			log.Fatalf("post %s: %v", c.Name, err)
		}
		var report struct {
			Results []batchResult `json:"results"`
			RunID   string        `json:"run_id"`
		}
		err = json.NewDecoder(resp.Body).Decode(&report)
		resp.Body.Close()
		if err != nil || resp.StatusCode != http.StatusOK {
			log.Fatalf("validate %s: status %d: %v", c.Name, resp.StatusCode, err)
		}

		for _, r := range report.Results {
			switch {
			case r.ErrorKind != "":
				failed++
				fmt.Printf("  ERROR %-40s %s: %s\n", r.Name, r.ErrorKind, r.Message)
			case r.Comparison != nil && r.Comparison.Pass:
				fmt.Printf("  PASS  %-40s max_delta=%.5f run=%s\n", r.Name, r.Comparison.MaxDelta, report.RunID)
			default:
				failed++
				fmt.Printf("  FAIL  %-40s max_delta=%.5f run=%s\n", r.Name, r.Comparison.MaxDelta, report.RunID)
			}
		}
	}

	fmt.Printf("\n%d/%d reference cases agree with engine %q\n", len(cases.Cases)-failed, len(cases.Cases), cases.Engine)
	if failed > 0 {
		os.Exit(1)
	}
}
