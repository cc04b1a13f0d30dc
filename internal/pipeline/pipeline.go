package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/mail"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docflow/internal/analysis"
	"docflow/internal/model"
	"docflow/internal/notify"
	"docflow/internal/storage"
	"docflow/internal/store"
)

var (
	// ErrInvalidInput marks malformed or missing call data; the caller must
	// correct the request before retrying.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedFormat marks a file type outside the accepted set.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNotReady marks an operation requested before the document reached
	// its precondition state.
	ErrNotReady = errors.New("document not ready")
)

// MaxUploadBytes caps the accepted payload size.
const MaxUploadBytes = 10 << 20

// DefaultMessage is used when the operator supplies no distribution message.
const DefaultMessage = "Please review the attached document and its analysis."

// acceptedExtensions is the set of supported upload formats.
var acceptedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Upload is the raw file handed to Ingest by the upload boundary.
type Upload struct {
	Name        string
	ContentType string
	SizeBytes   int64
	Content     io.Reader
}

// Outcome reports the result of one distribution attempt to the caller.
type Outcome struct {
	DocumentID string    `json:"document_id"`
	Recipient  string    `json:"recipient"`
	Delivered  bool      `json:"delivered"`
	SentAt     time.Time `json:"sent_at"`
	Detail     string    `json:"detail,omitempty"`
}

// Pipeline drives a document from "file received" through analysis to
// distribution. It owns every state transition: transitions for one document
// id are serialized through a per-id mutex, while unrelated documents proceed
// fully in parallel.
type Pipeline struct {
	store    store.DocumentStore
	objects  storage.Storage
	engine   analysis.Engine
	notifier notify.Notifier

	analysisTimeout time.Duration

	locks sync.Map // document id -> *sync.Mutex
	wg    sync.WaitGroup
}

// New wires the intake pipeline. analysisTimeout bounds each asynchronous
// analysis; zero means no bound beyond the engine's own behavior.
func New(docs store.DocumentStore, objects storage.Storage, engine analysis.Engine, notifier notify.Notifier, analysisTimeout time.Duration) *Pipeline {
	return &Pipeline{
		store:           docs,
		objects:         objects,
		engine:          engine,
		notifier:        notifier,
		analysisTimeout: analysisTimeout,
	}
}

// Ingest validates and accepts one uploaded file, creates its Document, and
// kicks off analysis asynchronously. It returns the new document id without
// waiting for analysis; callers observe progress through the store.
func (p *Pipeline) Ingest(ctx context.Context, up Upload) (string, error) {
	if up.Content == nil || up.Name == "" {
		return "", fmt.Errorf("%w: exactly one named file is required", ErrInvalidInput)
	}
	ext := strings.ToLower(filepath.Ext(up.Name))
	if !acceptedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if up.SizeBytes > MaxUploadBytes {
		return "", fmt.Errorf("%w: payload exceeds %d bytes", ErrInvalidInput, MaxUploadBytes)
	}

	content, err := io.ReadAll(io.LimitReader(up.Content, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read payload: %v", ErrInvalidInput, err)
	}
	if len(content) > MaxUploadBytes {
		return "", fmt.Errorf("%w: payload exceeds %d bytes", ErrInvalidInput, MaxUploadBytes)
	}

	id := uuid.New().String()
	key := filepath.ToSlash(filepath.Join("documents", id+ext))

	info, err := p.objects.Put(ctx, key, bytes.NewReader(content), storage.PutOptions{
		Size:        int64(len(content)),
		ContentType: up.ContentType,
		Metadata:    map[string]string{"original-filename": up.Name},
	})
	if err != nil {
		return "", fmt.Errorf("store payload: %w", err)
	}

	doc := &model.Document{
		ID:          id,
		Name:        up.Name,
		StoragePath: info.Key,
		SizeBytes:   int64(len(content)),
		ContentType: up.ContentType,
		UploadedAt:  time.Now().UTC(),
		Status:      model.StatusReceived,
	}
	if err := p.store.Insert(ctx, doc); err != nil {
		// Roll back the stored payload so no orphan object remains.
		if delErr := p.objects.Delete(ctx, key); delErr != nil {
			return "", fmt.Errorf("create document: %v; rollback delete failed: %v", err, delErr)
		}
		return "", fmt.Errorf("create document: %w", err)
	}

	unlock := p.lock(id)
	_, err = p.store.Update(ctx, id, func(d *model.Document) error {
		d.Status = model.StatusAnalyzing
		return nil
	})
	unlock()
	if err != nil {
		return "", fmt.Errorf("start analysis: %w", err)
	}

	req := analysis.Request{
		Name:        up.Name,
		ContentType: up.ContentType,
		SizeBytes:   int64(len(content)),
		Content:     content,
	}
	p.wg.Add(1)
	go p.analyze(id, req)

	return id, nil
}

// analyze runs the engine and records the Analyzed or Failed transition.
// It is detached from the ingest caller's context: an accepted document is
// analyzed even if the upload request has already returned.
func (p *Pipeline) analyze(id string, req analysis.Request) {
	defer p.wg.Done()

	ctx := context.Background()
	if p.analysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.analysisTimeout)
		defer cancel()
	}

	result, err := p.engine.Analyze(ctx, req)
	if err == nil {
		err = analysis.Validate(result)
	}

	// Transitions are recorded on a detached context: when the engine failed
	// because the analysis deadline expired, the Failed transition must still
	// reach a context-honoring store, or the document stays in Analyzing.
	recordCtx := context.WithoutCancel(ctx)

	unlock := p.lock(id)
	defer unlock()

	if err != nil {
		// No partial analysis is stored; the failure is terminal and the
		// caller must re-ingest to retry.
		if _, uerr := p.store.Update(recordCtx, id, func(d *model.Document) error {
			d.Status = model.StatusFailed
			d.Analysis = nil
			d.FailureReason = err.Error()
			return nil
		}); uerr != nil {
			logEvent("analysis_record_failed", map[string]any{"document_id": id, "error": uerr.Error()})
		}
		logEvent("analysis_failed", map[string]any{"document_id": id, "error": err.Error()})
		return
	}

	if _, uerr := p.store.Update(recordCtx, id, func(d *model.Document) error {
		d.Status = model.StatusAnalyzed
		d.Analysis = result
		return nil
	}); uerr != nil {
		logEvent("analysis_record_failed", map[string]any{"document_id": id, "error": uerr.Error()})
		return
	}
	logEvent("analysis_complete", map[string]any{"document_id": id, "urgency": string(result.Urgency)})
}

// Distribute notifies a recipient about an analyzed document. The call is
// synchronous: the notifier's outcome is awaited and returned. A notifier
// failure moves the document back to Analyzed so the operator can retry
// without re-uploading.
func (p *Pipeline) Distribute(ctx context.Context, id, recipient, message string) (Outcome, error) {
	if recipient == "" {
		return Outcome{}, fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(recipient); err != nil {
		return Outcome{}, fmt.Errorf("%w: invalid recipient address", ErrInvalidInput)
	}
	if message == "" {
		message = DefaultMessage
	}

	// The send itself honors the caller's context, but the transitions around
	// it are recorded on a detached one: a client that disconnects mid-send
	// must not strand the document in Distributing.
	recordCtx := context.WithoutCancel(ctx)

	unlock := p.lock(id)
	defer unlock()

	doc, err := p.store.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if !doc.Status.HasAnalysis() {
		return Outcome{}, fmt.Errorf("%w: status is %s", ErrNotReady, doc.Status)
	}

	if _, err := p.store.Update(recordCtx, id, func(d *model.Document) error {
		d.Status = model.StatusDistributing
		return nil
	}); err != nil {
		return Outcome{}, fmt.Errorf("start distribution: %w", err)
	}

	receipt, sendErr := p.notifier.Send(ctx, *doc, recipient, message)

	attempt := model.Distribution{
		Recipient: recipient,
		SentAt:    time.Now().UTC(),
		Delivered: sendErr == nil,
	}
	if sendErr != nil {
		attempt.Detail = sendErr.Error()
	} else if !receipt.SentAt.IsZero() {
		attempt.SentAt = receipt.SentAt
	}

	if err := p.store.AddDistribution(recordCtx, id, attempt); err != nil {
		logEvent("distribution_record_failed", map[string]any{"document_id": id, "error": err.Error()})
	}

	next := model.StatusDistributed
	if sendErr != nil {
		next = model.StatusAnalyzed
	}
	if _, err := p.store.Update(recordCtx, id, func(d *model.Document) error {
		d.Status = next
		d.Distribution = &attempt
		return nil
	}); err != nil {
		return Outcome{}, fmt.Errorf("record distribution: %w", err)
	}

	outcome := Outcome{
		DocumentID: id,
		Recipient:  recipient,
		Delivered:  attempt.Delivered,
		SentAt:     attempt.SentAt,
		Detail:     attempt.Detail,
	}
	if sendErr != nil {
		logEvent("distribution_failed", map[string]any{"document_id": id, "recipient": recipient, "error": sendErr.Error()})
		return outcome, sendErr
	}
	logEvent("distribution_complete", map[string]any{"document_id": id, "recipient": recipient})
	return outcome, nil
}

// Wait blocks until all in-flight analyses have been recorded. Used on
// shutdown so accepted documents are never left stuck in Analyzing.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// lock serializes state transitions for one document id and returns the
// release function.
func (p *Pipeline) lock(id string) func() {
	v, _ := p.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func logEvent(event string, fields map[string]any) {
	fields["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	fields["component"] = "pipeline"
	fields["event"] = event
	b, err := json.Marshal(fields)
	if err != nil {
		log.Printf("failed to marshal pipeline log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
