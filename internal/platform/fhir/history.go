package fhir

import (
	"fmt"
	"strconv"
	"time"
)

// Version-record actions as they appear in history entries.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// HistoryEntry is one version of a resource, newest entries first.
type HistoryEntry struct {
	ResourceType string
	ResourceID   string
	VersionID    int
	Action       string
	LastModified time.Time
	Resource     Resource
}

// NewHistoryBundle creates a FHIR Bundle of type "history" from history entries.
func NewHistoryBundle(entries []HistoryEntry, baseURL string) *Bundle {
	total := len(entries)
	bundleEntries := make([]BundleEntry, len(entries))

	for i, entry := range entries {
		url := FormatReference(entry.ResourceType, entry.ResourceID)
		fullURL := fmt.Sprintf("%s/%s/_history/%d", baseURL, url, entry.VersionID)

		method := "PUT"
		status := "200"
		switch entry.Action {
		case ActionCreate:
			method = "POST"
			status = "201"
		case ActionDelete:
			method = "DELETE"
			status = "204"
		}

		be := BundleEntry{
			FullURL: fullURL,
			Request: &BundleRequest{
				Method: method,
				URL:    url,
			},
			Response: &BundleResponse{
				Status:       status,
				LastModified: FormatInstant(entry.LastModified),
			},
		}
		if entry.Action != ActionDelete {
			be.Resource = entry.Resource
			be.Response.Location = url + "/_history/" + strconv.Itoa(entry.VersionID)
		}
		bundleEntries[i] = be
	}

	return &Bundle{
		Type:  "history",
		Total: &total,
		Entry: bundleEntries,
	}
}
