package fhir

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewHistoryBundle(t *testing.T) {
	now := time.Now().UTC()
	entries := []HistoryEntry{
		{
			ResourceType: "Patient",
			ResourceID:   "1",
			VersionID:    2,
			Resource:     &Patient{Base: Base{ID: "1"}},
			Action:       ActionUpdate,
			LastModified: now,
		},
		{
			ResourceType: "Patient",
			ResourceID:   "1",
			VersionID:    1,
			Resource:     &Patient{Base: Base{ID: "1"}},
			Action:       ActionCreate,
			LastModified: now.Add(-time.Hour),
		},
	}

	bundle := NewHistoryBundle(entries, "/fhir")

	if bundle.Type != "history" {
		t.Errorf("bundle type = %q, want 'history'", bundle.Type)
	}
	if *bundle.Total != 2 {
		t.Errorf("total = %d, want 2", *bundle.Total)
	}
	if len(bundle.Entry) != 2 {
		t.Fatalf("entries = %d, want 2", len(bundle.Entry))
	}

	if bundle.Entry[0].Request.Method != "PUT" {
		t.Errorf("entry[0] method = %q, want PUT", bundle.Entry[0].Request.Method)
	}
	if bundle.Entry[0].Response.Status != "200" {
		t.Errorf("entry[0] status = %q, want 200", bundle.Entry[0].Response.Status)
	}
	if bundle.Entry[0].FullURL != "/fhir/Patient/1/_history/2" {
		t.Errorf("entry[0] fullUrl = %q", bundle.Entry[0].FullURL)
	}
	if bundle.Entry[1].Request.Method != "POST" {
		t.Errorf("entry[1] method = %q, want POST", bundle.Entry[1].Request.Method)
	}
	if bundle.Entry[1].Response.Status != "201" {
		t.Errorf("entry[1] status = %q, want 201", bundle.Entry[1].Response.Status)
	}
}

func TestNewHistoryBundle_DeleteAction(t *testing.T) {
	entries := []HistoryEntry{{
		ResourceType: "Device",
		ResourceID:   "3",
		VersionID:    1,
		Resource:     &Device{Base: Base{ID: "3"}},
		Action:       ActionDelete,
		LastModified: time.Now(),
	}}

	bundle := NewHistoryBundle(entries, "/fhir")
	e := bundle.Entry[0]
	if e.Request.Method != "DELETE" {
		t.Errorf("method = %q, want DELETE", e.Request.Method)
	}
	if e.Response.Status != "204" {
		t.Errorf("status = %q, want 204", e.Response.Status)
	}
	if e.Resource != nil {
		t.Error("delete entries should not carry a resource")
	}
}

func TestHistoryBundle_Encodes(t *testing.T) {
	entries := []HistoryEntry{{
		ResourceType: "Device",
		ResourceID:   "7",
		VersionID:    1,
		Resource:     &Device{Base: Base{ID: "7"}, Model: "X1"},
		Action:       ActionCreate,
		LastModified: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	bundle := NewHistoryBundle(entries, "/fhir")

	data, err := JSONCodec{}.Encode(bundle)
	if err != nil {
		t.Fatalf("json encode: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["resourceType"] != "Bundle" {
		t.Errorf("resourceType = %v", decoded["resourceType"])
	}
	entry := decoded["entry"].([]any)[0].(map[string]any)
	res := entry["resource"].(map[string]any)
	if res["resourceType"] != "Device" || res["model"] != "X1" {
		t.Errorf("entry resource = %v", res)
	}

	xmlData, err := XMLCodec{}.Encode(bundle)
	if err != nil {
		t.Fatalf("xml encode: %v", err)
	}
	s := string(xmlData)
	for _, want := range []string{`<Bundle xmlns="http://hl7.org/fhir">`, `<type value="history"></type>`, `<resource><Device>`, `<model value="X1"></model>`} {
		if !strings.Contains(s, want) {
			t.Errorf("xml missing %s:\n%s", want, s)
		}
	}
}
