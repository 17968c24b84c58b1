package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// remoteToolStatus mirrors pkg/transport's statusResponse wire shape; it
// is redeclared here rather than imported because the gateway's HTTP
// response is the only contract a CLI client depends on, not the
// server-side Go type.
type remoteToolStatus struct {
	Name              string `json:"name"`
	OriginalName      string `json:"original_name,omitempty"`
	SourceVersionPin  string `json:"source_version_pin,omitempty"`
	ValidationStatus  string `json:"validation_status"`
	ValidationMessage string `json:"validation_message,omitempty"`
	Disabled          bool   `json:"disabled"`
}

type remoteStatus struct {
	APILastActivity string             `json:"api_last_activity"`
	Tools           []remoteToolStatus `json:"tools"`
}

func fetchStatus(url string) (*remoteStatus, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned %s for %q", resp.Status, url)
	}

	var status remoteStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}
	return &status, nil
}

func renderRemoteStatus(status *remoteStatus) error {
	fmt.Printf("Last activity: %s\n\n", status.APILastActivity)

	if len(status.Tools) == 0 {
		fmt.Println("No tools reported.")
		return nil
	}

	table := newTable([]string{"Tool", "Original Name", "Version Pin", "Status", "Disabled"})
	for _, t := range status.Tools {
		disabled := "no"
		if t.Disabled {
			disabled = "yes"
		}
		if err := table.Append([]string{
			t.Name,
			t.OriginalName,
			t.SourceVersionPin,
			t.ValidationStatus,
			disabled,
		}); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	return table.Render()
}
