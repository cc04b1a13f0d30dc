package library

import (
	"context"
	"sort"
	"strings"

	"docflow/internal/model"
	"docflow/internal/store"
)

// Filter is the per-query set of constraints. All fields are optional; an
// absent field imposes no constraint. An unrecognized urgency value is
// treated as unconstrained rather than rejected.
type Filter struct {
	SearchText string
	Urgency    string
	Department string
}

// Engine evaluates filters against the document store. It holds no state of
// its own; every query reflects the store as of the call.
type Engine struct {
	docs store.DocumentStore
}

// New creates a query engine over the given store.
func New(docs store.DocumentStore) *Engine {
	return &Engine{docs: docs}
}

// Query returns the documents matching every constraint in the filter,
// ordered by uploaded_at descending with ties broken by id ascending. The
// ordering is stable across repeated calls with unchanged data.
func (e *Engine) Query(ctx context.Context, f Filter) ([]model.Document, error) {
	docs, err := e.docs.List(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(f.SearchText)
	urgency, urgencyOK := model.ParseUrgency(f.Urgency)
	constrainUrgency := f.Urgency != "" && urgencyOK
	constrainDept := f.Department != ""

	out := make([]model.Document, 0, len(docs))
	for _, doc := range docs {
		if !matches(&doc, search, urgency, constrainUrgency, f.Department, constrainDept) {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

// matches applies the conjunction of the filter's predicates. Documents
// without an analysis can never satisfy an urgency or department constraint,
// and their search text is matched against the name alone.
func matches(doc *model.Document, search string, urgency model.Urgency, constrainUrgency bool, dept string, constrainDept bool) bool {
	if constrainUrgency && (doc.Analysis == nil || doc.Analysis.Urgency != urgency) {
		return false
	}
	if constrainDept && (doc.Analysis == nil || !doc.Analysis.HasDepartment(dept)) {
		return false
	}
	if search != "" {
		if strings.Contains(strings.ToLower(doc.Name), search) {
			return true
		}
		return doc.Analysis != nil && strings.Contains(strings.ToLower(doc.Analysis.Summary), search)
	}
	return true
}

// Departments returns the sorted union of analysis departments across all
// analyzed documents, computed fresh from the store on every call.
func (e *Engine) Departments(ctx context.Context) ([]string, error) {
	docs, err := e.docs.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, doc := range docs {
		if doc.Analysis == nil {
			continue
		}
		for _, d := range doc.Analysis.Departments {
			seen[d] = true
		}
	}

	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}
