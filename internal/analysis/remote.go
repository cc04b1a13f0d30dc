package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docflow/internal/model"
)

// excerptLimit bounds how much document text is shipped to the remote service.
const excerptLimit = 4096

// Remote delegates analysis to an external HTTP service. Every transport,
// status, or decoding problem is reported as ErrFailed; callers never see
// transport-specific errors.
type Remote struct {
	url    string
	client *http.Client
}

// NewRemote creates a remote engine calling the given analyze endpoint.
// The client's transport is traced via otelhttp. Timeouts are owned by the
// caller's context, not the client.
func NewRemote(url string) *Remote {
	return &Remote{
		url:    url,
		client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

var _ Engine = (*Remote)(nil)

type remoteRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Excerpt     string `json:"excerpt"`
}

type remoteResponse struct {
	Summary        string   `json:"summary"`
	KeyPoints      []string `json:"key_points"`
	Urgency        string   `json:"urgency"`
	Departments    []string `json:"departments"`
	ComplianceNote string   `json:"compliance_note"`
	ActionItems    []string `json:"action_items"`
}

func (r *Remote) Analyze(ctx context.Context, req Request) (*model.DocumentAnalysis, error) {
	body, err := json.Marshal(remoteRequest{
		Name:        req.Name,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		Excerpt:     excerpt(req.Content),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: analyzer returned status %d", ErrFailed, resp.StatusCode)
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrFailed, err)
	}

	urgency, ok := model.ParseUrgency(out.Urgency)
	if !ok {
		return nil, fmt.Errorf("%w: unknown urgency %q", ErrFailed, out.Urgency)
	}

	a := &model.DocumentAnalysis{
		Summary:        out.Summary,
		KeyPoints:      out.KeyPoints,
		Urgency:        urgency,
		Departments:    out.Departments,
		ComplianceNote: out.ComplianceNote,
		ActionItems:    out.ActionItems,
	}
	if err := Validate(a); err != nil {
		return nil, err
	}
	return a, nil
}

// excerpt extracts a bounded, valid-UTF-8 text preview of the payload.
func excerpt(content []byte) string {
	if len(content) > excerptLimit {
		content = content[:excerptLimit]
	}
	return strings.ToValidUTF8(string(content), "")
}
