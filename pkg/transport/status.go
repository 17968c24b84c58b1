package transport

import (
	"encoding/json"
	"net/http"

	"github.com/stacklok/mcp-vgateway/pkg/vgw"
	"github.com/stacklok/mcp-vgateway/pkg/vgw/jsonpath"
)

// toolStatus is the per-tool entry in GET /status's tools array: beyond
// bare liveness, it surfaces the versioning/validation bookkeeping the
// original exposed (spec's supplemented feature over the distilled spec).
type toolStatus struct {
	Name              string         `json:"name"`
	OriginalName      string         `json:"original_name,omitempty"`
	SourceVersionPin  string         `json:"source_version_pin,omitempty"`
	ValidationStatus  string         `json:"validation_status"`
	ValidationMessage string         `json:"validation_message,omitempty"`
	Disabled          bool           `json:"disabled"`
	OutputSchema      map[string]any `json:"output_schema,omitempty"`
}

type statusResponse struct {
	APILastActivity string       `json:"api_last_activity"`
	Tools           []toolStatus `json:"tools"`
}

// statusRoutes holds the dependencies the /status handler reads.
type statusRoutes struct {
	tools    []*vgw.VirtualTool
	activity *activityTracker
}

func (s *statusRoutes) getStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		APILastActivity: s.activity.last().Format("2006-01-02T15:04:05.999999999Z07:00"),
		Tools:           make([]toolStatus, 0, len(s.tools)),
	}
	for _, t := range s.tools {
		entry := toolStatus{
			Name:              t.Name,
			OriginalName:      t.OriginalName,
			SourceVersionPin:  t.SourceVersionPin,
			ValidationStatus:  string(t.ValidationStatus),
			ValidationMessage: t.ValidationMessage,
			Disabled:          t.Disabled(),
		}
		if t.OutputSchema != nil {
			entry.OutputSchema = jsonpath.StripSourceFields(t.OutputSchema)
		}
		resp.Tools = append(resp.Tools, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
