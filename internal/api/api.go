package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RunComplete is the body posted after a finished run. It carries counts
// only, never paths or attribute values.
type RunComplete struct {
	Records int    `json:"records"`
	Images  int    `json:"images"`
	Skipped int    `json:"skipped"`
	State   string `json:"state"`
}

var client = &http.Client{Timeout: 10 * time.Second}

func NotifyRunComplete(apiUrl string, payload RunComplete) error {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := client.Post(apiUrl, "application/json", bytes.NewBuffer(jsonPayload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status code: %d", resp.StatusCode)
	}

	return nil
}
