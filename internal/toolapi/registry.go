// Package toolapi exposes the appeal pipeline as a registry of named
// operations, one per pipeline stage. The registry serves two boundary
// layers with the same contract: the HTTP surface and the LLM advisor's
// tool-use loop.
package toolapi

import (
	"context"
	"encoding/json"

	"github.com/parcelworks/appealdesk/internal/appeal"
	"github.com/parcelworks/appealdesk/internal/export"
)

type Handler func(ctx context.Context, input json.RawMessage) (any, error)

// Tool is one invocable operation: its wire name, a description and input
// schema suitable for an LLM tool definition, and the handler itself.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     Handler
}

type Registry struct {
	svc    *appeal.Service
	tools  []Tool
	byName map[string]Tool
}

func NewRegistry(svc *appeal.Service) *Registry {
	r := &Registry{svc: svc, byName: map[string]Tool{}}
	for _, t := range []Tool{
		r.resolveProperty(),
		r.findComparables(),
		r.checkEligibility(),
		r.manageProperty(),
		r.manageComparable(),
		r.draftArgument(),
		r.buildPacket(),
		r.exportPacket(),
	} {
		r.tools = append(r.tools, t)
		r.byName[t.Name] = t
	}
	return r
}

// Tools returns the operations in registration order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Invoke dispatches one operation by wire name.
func (r *Registry) Invoke(ctx context.Context, name string, input json.RawMessage) (any, error) {
	tool, ok := r.byName[name]
	if !ok {
		return nil, &appeal.Error{Code: appeal.CodeNotFound, Message: "unknown operation " + name, Status: 404}
	}
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	return tool.Handler(ctx, input)
}

func decodeInput(input json.RawMessage, dst any) error {
	if err := json.Unmarshal(input, dst); err != nil {
		return &appeal.Error{Code: appeal.CodeValidation, Message: "invalid input: " + err.Error(), Status: 400}
	}
	return nil
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (r *Registry) resolveProperty() Tool {
	return Tool{
		Name: "resolve-property",
		Description: "Look up the subject property on the assessment roll by street address or block/lot identifier. " +
			"A single match becomes the active property; multiple matches return a candidate list for disambiguation.",
		InputSchema: objectSchema(map[string]any{
			"query":           map[string]any{"type": "string", "description": "street address or block/lot, e.g. '990 Green St' or '0595/021'"},
			"reference_value": map[string]any{"type": "number", "description": "owner's estimate of market value; defaults to the assessed value"},
		}, "query"),
		Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
			var req struct {
				Query          string  `json:"query"`
				ReferenceValue float64 `json:"reference_value"`
			}
			if err := decodeInput(input, &req); err != nil {
				return nil, err
			}
			return r.svc.ResolveProperty(ctx, req.Query, req.ReferenceValue)
		},
	}
}

func (r *Registry) findComparables() Tool {
	return Tool{
		Name: "find-comparables",
		Description: "Search recent residential sales near the active property, expanding the radius automatically " +
			"when nothing is found. Results merge into the case without duplicating existing comparables.",
		InputSchema: objectSchema(map[string]any{
			"radius_miles":   map[string]any{"type": "number", "description": "starting search radius in miles, default 0.5"},
			"recency_months": map[string]any{"type": "integer", "description": "how far back sales may date, default 12"},
			"limit":          map[string]any{"type": "integer", "description": "maximum rows fetched per search, default 10"},
		}),
		Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
			var req struct {
				RadiusMiles   float64 `json:"radius_miles"`
				RecencyMonths int     `json:"recency_months"`
				Limit         int     `json:"limit"`
			}
			if err := decodeInput(input, &req); err != nil {
				return nil, err
			}
			return r.svc.FindComparables(ctx, req.RadiusMiles, req.RecencyMonths, req.Limit)
		},
	}
}

func (r *Registry) checkEligibility() Tool {
	return Tool{
		Name: "check-eligibility",
		Description: "Judge whether an appeal is worth filing: appealable property type, filing window state, " +
			"and the strength tier the given values would score.",
		InputSchema: objectSchema(map[string]any{
			"property_type":   map[string]any{"type": "string", "enum": []string{"single_family", "condo", "townhouse", "live_work", "co_op"}},
			"assessed_value":  map[string]any{"type": "number"},
			"reference_value": map[string]any{"type": "number"},
		}, "assessed_value", "reference_value"),
		Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
			var req struct {
				PropertyType   string  `json:"property_type"`
				AssessedValue  float64 `json:"assessed_value"`
				ReferenceValue float64 `json:"reference_value"`
			}
			if err := decodeInput(input, &req); err != nil {
				return nil, err
			}
			return r.svc.CheckEligibility(appeal.PropertyType(req.PropertyType), req.AssessedValue, req.ReferenceValue)
		},
	}
}

func (r *Registry) manageProperty() Tool {
	return Tool{
		Name: "manage-property",
		Description: "Store or replace the active property from an explicit payload, bypassing roll lookup. " +
			"Replacement does not touch comparables already on the case.",
		InputSchema: objectSchema(map[string]any{
			"address":         map[string]any{"type": "string"},
			"parcel_id":       map[string]any{"type": "string"},
			"property_type":   map[string]any{"type": "string", "enum": []string{"single_family", "condo", "townhouse", "live_work", "co_op"}},
			"assessed_value":  map[string]any{"type": "number"},
			"reference_value": map[string]any{"type": "number"},
			"area":            map[string]any{"type": "number"},
			"bedrooms":        map[string]any{"type": "number"},
			"bathrooms":       map[string]any{"type": "number"},
			"coordinates": objectSchema(map[string]any{
				"lat": map[string]any{"type": "number"},
				"lon": map[string]any{"type": "number"},
			}),
		}, "address", "parcel_id", "assessed_value"),
		Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
			var p appeal.Property
			if err := decodeInput(input, &p); err != nil {
				return nil, err
			}
			return r.svc.SetProperty(p)
		},
	}
}

func (r *Registry) manageComparable() Tool {
	return Tool{
		Name: "manage-comparable",
		Description: "Mutate the comparable list: add a manual comparable, update fields on an existing one, " +
			"remove one, or toggle its inclusion in aggregates and the packet. Added comparables count " +
			"toward aggregates immediately.",
		InputSchema: objectSchema(map[string]any{
			"action": map[string]any{"type": "string", "enum": []string{"add", "update", "remove", "toggle"}},
			"id":     map[string]any{"type": "string", "description": "comparable identifier; required for update, remove, and toggle"},
			"comparable": objectSchema(map[string]any{
				"address":    map[string]any{"type": "string"},
				"sale_date":  map[string]any{"type": "string", "description": "RFC 3339 timestamp"},
				"sale_price": map[string]any{"type": "number"},
				"area":       map[string]any{"type": "number"},
				"bedrooms":   map[string]any{"type": "number"},
				"bathrooms":  map[string]any{"type": "number"},
				"notes":      map[string]any{"type": "string"},
			}),
			"coordinates": objectSchema(map[string]any{
				"lat": map[string]any{"type": "number"},
				"lon": map[string]any{"type": "number"},
			}),
			"patch": objectSchema(map[string]any{
				"address":        map[string]any{"type": "string"},
				"sale_date":      map[string]any{"type": "string"},
				"sale_price":     map[string]any{"type": "number"},
				"area":           map[string]any{"type": "number"},
				"bedrooms":       map[string]any{"type": "number"},
				"bathrooms":      map[string]any{"type": "number"},
				"distance_miles": map[string]any{"type": "number"},
				"notes":          map[string]any{"type": "string"},
			}),
		}, "action"),
		Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
			var req struct {
				Action      string                 `json:"action"`
				ID          string                 `json:"id"`
				Comparable  appeal.Comparable      `json:"comparable"`
				Coordinates *appeal.Coordinates    `json:"coordinates"`
				Patch       appeal.ComparablePatch `json:"patch"`
			}
			if err := decodeInput(input, &req); err != nil {
				return nil, err
			}
			store := r.svc.Store()
			switch req.Action {
			case "add":
				return r.svc.AddManualComparable(req.Comparable, req.Coordinates)
			case "update":
				return store.UpdateComparable(req.ID, req.Patch)
			case "remove":
				return store.RemoveComparable(req.ID)
			case "toggle":
				return store.ToggleComparable(req.ID)
			default:
				return nil, &appeal.Error{Code: appeal.CodeValidation, Message: "action must be one of add, update, remove, toggle", Status: 400}
			}
		},
	}
}

func (r *Registry) draftArgument() Tool {
	return Tool{
		Name: "draft-argument",
		Description: "Compose the appeal narrative from the active property and included comparables. " +
			"Without a declared value, the mean included sale price is requested.",
		InputSchema: objectSchema(map[string]any{
			"tone":           map[string]any{"type": "string", "enum": []string{"formal", "neutral", "concise"}},
			"declared_value": map[string]any{"type": "number", "description": "the value the owner asks the board to enroll"},
		}),
		Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
			var req struct {
				Tone          string  `json:"tone"`
				DeclaredValue float64 `json:"declared_value"`
			}
			if err := decodeInput(input, &req); err != nil {
				return nil, err
			}
			return r.svc.DraftArgument(appeal.Tone(req.Tone), req.DeclaredValue)
		},
	}
}

func (r *Registry) buildPacket() Tool {
	return Tool{
		Name: "build-packet",
		Description: "Assemble the filing-ready evidence packet: subject summary, comparable table, the drafted " +
			"narrative verbatim, filing checklist, and submission instructions.",
		InputSchema: objectSchema(map[string]any{}),
		Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
			doc, err := r.svc.BuildPacket()
			if err != nil {
				return nil, err
			}
			return map[string]any{"document": doc}, nil
		},
	}
}

func (r *Registry) exportPacket() Tool {
	return Tool{
		Name:        "export-packet",
		Description: "Build the evidence packet and return it as markdown or a standalone HTML document.",
		InputSchema: objectSchema(map[string]any{
			"format": map[string]any{"type": "string", "enum": []string{"markdown", "html"}},
		}),
		Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
			var req struct {
				Format string `json:"format"`
			}
			if err := decodeInput(input, &req); err != nil {
				return nil, err
			}
			doc, err := r.svc.BuildPacket()
			if err != nil {
				return nil, err
			}
			switch req.Format {
			case "", "markdown":
				return map[string]any{"format": "markdown", "document": doc}, nil
			case "html":
				htmlDoc, err := export.HTML(doc, "Assessment Appeal Evidence Packet")
				if err != nil {
					return nil, &appeal.Error{Code: appeal.CodeInternal, Message: err.Error(), Status: 500}
				}
				return map[string]any{"format": "html", "document": htmlDoc}, nil
			default:
				return nil, &appeal.Error{Code: appeal.CodeValidation, Message: "format must be markdown or html", Status: 400}
			}
		},
	}
}
