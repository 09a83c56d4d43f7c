package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

type bookRequest struct {
	DoctorID     string `json:"doctor_id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone"`
	PatientEmail string `json:"patient_email"`
}

func main() {
	var (
		baseURL  = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "clinic-service base url")
		doctorID = flag.String("doctor-id", getenv("DOCTOR_ID", ""), "doctor to book")
		date     = flag.String("date", getenv("DATE", time.Now().AddDate(0, 0, 1).Format("2006-01-02")), "booking date (YYYY-MM-DD)")
		slot     = flag.String("time", getenv("SLOT", "10:00"), "slot time (HH:MM)")
		n        = flag.Int("n", 20, "number of concurrent requests")
	)
	flag.Parse()

	if strings.TrimSpace(*doctorID) == "" {
		fatal("DOCTOR_ID is required")
	}
	if *n < 2 {
		fatal("-n must be at least 2")
	}

	url := strings.TrimRight(*baseURL, "/") + "/api/v1/public/book"
	client := &http.Client{Timeout: 10 * time.Second}

	start := make(chan struct{})
	results := make([]string, *n)
	var wg sync.WaitGroup
	for i := 0; i < *n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, _ := json.Marshal(bookRequest{
				DoctorID:     *doctorID,
				Date:         *date,
				Time:         *slot,
				PatientName:  fmt.Sprintf("race-%02d", i),
				PatientPhone: fmt.Sprintf("0170000%04d", i),
				PatientEmail: fmt.Sprintf("race-%02d@example.com", i),
			})
			<-start
			resp, err := client.Post(url, "application/json", bytes.NewReader(body))
			if err != nil {
				results[i] = "error"
				return
			}
			_ = resp.Body.Close()
			results[i] = fmt.Sprintf("%d", resp.StatusCode)
		}(i)
	}
	close(start)
	wg.Wait()

	counts := map[string]int{}
	for _, r := range results {
		counts[r]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("status=%s count=%d\n", k, counts[k])
	}

	if counts["201"] != 1 || counts["409"] != *n-1 {
		fatal(fmt.Sprintf("expected exactly one 201 and %d 409 responses", *n-1))
	}
	fmt.Println("ok: slot booked exactly once")
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
