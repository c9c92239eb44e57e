package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/healthdash/pkg/export"
	"github.com/hazyhaar/healthdash/pkg/format"
	"github.com/hazyhaar/healthdash/pkg/importer"
	"github.com/hazyhaar/healthdash/pkg/kit"
	"github.com/hazyhaar/healthdash/pkg/mapping"
	"github.com/hazyhaar/healthdash/pkg/schema"
)

// Shared request/response types used by both HTTP and MCP transports.

var errInvalidRequest = errors.New("invalid request")

type importReq struct {
	Name    string
	Content []byte
}

type importResponse struct {
	*importer.Outcome
	Fields      []string             `json:"fields,omitempty"`
	Mapping     mapping.Mapping      `json:"mapping,omitempty"`
	Unmapped    []string             `json:"unmapped,omitempty"`
	Suggestions []mapping.Suggestion `json:"suggestions,omitempty"`
}

type applyReq struct {
	Name    string
	Content []byte
	Mapping mapping.Mapping
}

type applyResponse struct {
	Status  importer.Status `json:"status"`
	Count   int             `json:"count"`
	Records []schema.Record `json:"records"`
}

type exportReq struct {
	Records []schema.Record
}

type demoReq struct {
	Days int
}

// maxDemoDays bounds demo requests to one year of records.
const maxDemoDays = 366

type fieldInfo struct {
	Path string      `json:"path"`
	Name string      `json:"name"`
	Kind schema.Kind `json:"kind"`
}

type schemaResponse struct {
	Fields []fieldInfo `json:"fields"`
}

type formatInfo struct {
	ID          string   `json:"id"`
	Extensions  []string `json:"extensions"`
	Description string   `json:"description"`
}

type formatsResponse struct {
	Formats []formatInfo `json:"formats"`
}

// Endpoints backed by the importer.

func importEndpoint(im *importer.Importer) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*importReq)
		if req.Name == "" {
			return nil, fmt.Errorf("%w: missing file name", errInvalidRequest)
		}
		out, err := im.Import(ctx, req.Name, bytes.NewReader(req.Content))
		if err != nil {
			return nil, err
		}
		resp := importResponse{Outcome: out}
		if s := out.Session; s != nil {
			resp.Fields = s.Candidates()
			resp.Mapping = s.Mapping()
			resp.Unmapped = s.Unmapped()
			resp.Suggestions = s.Suggestions()
		}
		return resp, nil
	}
}

func applyEndpoint(im *importer.Importer) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*applyReq)
		if req.Name == "" {
			return nil, fmt.Errorf("%w: missing file name", errInvalidRequest)
		}
		out, err := im.Import(ctx, req.Name, bytes.NewReader(req.Content))
		if err != nil {
			return nil, err
		}
		switch out.Status {
		case importer.StatusImported:
			return applyResponse{Status: out.Status, Count: len(out.Records), Records: out.Records}, nil
		case importer.StatusEmpty:
			return applyResponse{Status: out.Status, Records: []schema.Record{}}, nil
		}

		s := out.Session
		if req.Mapping != nil {
			if err := s.UseMapping(req.Mapping); err != nil {
				return nil, err
			}
		}
		recs, err := im.Apply(ctx, s)
		if err != nil {
			return nil, err
		}
		return applyResponse{Status: importer.StatusMapped, Count: len(recs), Records: recs}, nil
	}
}

func exportCSVEndpoint() kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*exportReq)
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, req.Records); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// demoEndpoint returns the sample dataset for the days ending today.
func demoEndpoint(now func() time.Time) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		days := schema.DemoDays
		if req, ok := request.(*demoReq); ok && req.Days != 0 {
			days = req.Days
		}
		if days < 1 || days > maxDemoDays {
			return nil, fmt.Errorf("%w: days must be between 1 and %d", errInvalidRequest, maxDemoDays)
		}
		y, m, d := now().Date()
		start := time.Date(y, m, d-days+1, 0, 0, 0, 0, time.UTC)
		recs := schema.Demo(start, days)
		return applyResponse{Status: importer.StatusImported, Count: len(recs), Records: recs}, nil
	}
}

func schemaEndpoint() kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		paths := schema.RequiredPaths()
		fields := make([]fieldInfo, 0, len(paths))
		for _, p := range paths {
			kind, _ := schema.KindOf(p)
			fields = append(fields, fieldInfo{Path: p, Name: schema.DisplayName(p), Kind: kind})
		}
		return schemaResponse{Fields: fields}, nil
	}
}

func formatsEndpoint() kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		var resp formatsResponse
		for _, a := range format.All() {
			resp.Formats = append(resp.Formats, formatInfo{
				ID:          a.ID(),
				Extensions:  a.Extensions(),
				Description: a.Description(),
			})
		}
		return resp, nil
	}
}
