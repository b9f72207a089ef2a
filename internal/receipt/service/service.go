// Package service runs the receipt pipeline: OCR, line parsing, guessing and import.
package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/guesser"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/importer"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/ocr"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/parser"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/i18n"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
)

// MaxParallelScans bounds concurrent OCR runs in AnalyzeAll.
const MaxParallelScans = 2

// Recognizer turns image bytes into text. Implemented by ocr.Recognizer.
type Recognizer interface {
	Analyze(ctx context.Context, raw []byte) ocr.Result
}

// Analysis is the response of the analyze endpoint.
type Analysis struct {
	Success       bool               `json:"success"`
	Message       string             `json:"message"`
	Items         []parser.Candidate `json:"items"`
	Source        string             `json:"source"`
	LowConfidence bool               `json:"lowConfidence"`
	Engine        string             `json:"engine,omitempty"`
	DurationMs    int64              `json:"durationMs"`
}

// ImportResult is an analysis followed by an import of its items.
type ImportResult struct {
	Success      bool                   `json:"success"`
	Message      string                 `json:"message"`
	Analyses     []*Analysis            `json:"analyses"`
	AddedItems   []ImportedItem         `json:"addedItems"`
	Errors       []importer.RecordError `json:"errors,omitempty"`
	SkippedScans int                    `json:"skippedScans"`
}

// ImportedItem summarizes an item created from a receipt.
type ImportedItem struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Service wires the recognizer, parser, guesser and importer over the store.
type Service struct {
	recognizer Recognizer
	importer   *importer.Importer
	store      *store.Store
	rules      *guesser.Rules
	jobs       *JobStore
	logger     *logger.Logger
	wg         sync.WaitGroup
}

// New creates the receipt service. jobs may be nil when scans are not used.
func New(rec Recognizer, im *importer.Importer, st *store.Store, rules *guesser.Rules, jobs *JobStore, log *logger.Logger) *Service {
	if jobs == nil {
		jobs = NewJobStore(DefaultJobTTL)
	}
	return &Service{
		recognizer: rec,
		importer:   im,
		store:      st,
		rules:      rules,
		jobs:       jobs,
		logger:     log.WithComponent("receipt"),
	}
}

// Jobs exposes the scan job store.
func (s *Service) Jobs() *JobStore { return s.jobs }

// Analyze runs the whole pipeline on one image. It does not fail: OCR problems
// degrade to the placeholder items and unparseable text yields no items.
func (s *Service) Analyze(ctx context.Context, image []byte) *Analysis {
	res := s.recognizer.Analyze(ctx, image)
	g := s.guesser()

	var items []parser.Candidate
	if res.Source == ocr.SourcePlaceholder {
		items = placeholders(g)
	} else {
		items = annotate(g, parser.Parse(res.Text))
	}

	s.logger.Info().
		Str("source", res.Source).
		Str("engine", res.Engine).
		Int("items", len(items)).
		Dur("duration", res.Duration).
		Msg("receipt analyzed")

	return &Analysis{
		Success:       true,
		Message:       i18n.TFromContext(ctx, "receipt.recognized", map[string]string{"count": strconv.Itoa(len(items))}),
		Items:         items,
		Source:        res.Source,
		LowConfidence: res.LowConfidence,
		Engine:        res.Engine,
		DurationMs:    res.Duration.Milliseconds(),
	}
}

// AnalyzeText parses already recognized text.
func (s *Service) AnalyzeText(ctx context.Context, text string) *Analysis {
	items := annotate(s.guesser(), parser.Parse(text))
	return &Analysis{
		Success: true,
		Message: i18n.TFromContext(ctx, "receipt.recognized", map[string]string{"count": strconv.Itoa(len(items))}),
		Items:   items,
		Source:  "text",
	}
}

// AnalyzeAll analyzes images concurrently and returns results in input order.
func (s *Service) AnalyzeAll(ctx context.Context, images [][]byte) []*Analysis {
	out := make([]*Analysis, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxParallelScans)
	for i, img := range images {
		g.Go(func() error {
			out[i] = s.Analyze(gctx, img)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// StartScan records a job and analyzes image in the background. The job outlives
// the request; it keeps the request's values but not its cancellation.
func (s *Service) StartScan(ctx context.Context, image []byte) *ScanJob {
	job := &ScanJob{
		JobID:     NewJobID(),
		Status:    StatusProcessing,
		CreatedAt: time.Now(),
	}
	s.jobs.Store(job)

	s.wg.Add(1)
	go s.runScan(context.WithoutCancel(ctx), job.JobID, image)

	return s.jobs.Get(job.JobID)
}

func (s *Service) runScan(ctx context.Context, jobID string, image []byte) {
	defer s.wg.Done()
	log := s.logger.WithJobID(jobID)
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("receipt scan panicked")
			s.finish(jobID, nil, fmt.Sprintf("scan failed: %v", r))
		}
	}()

	log.Info().Int("bytes", len(image)).Msg("receipt scan started")
	s.finish(jobID, s.Analyze(ctx, image), "")
}

func (s *Service) finish(jobID string, result *Analysis, failure string) {
	now := time.Now()
	s.jobs.Update(jobID, func(j *ScanJob) {
		j.CompletedAt = &now
		if failure != "" {
			j.Status, j.Error = StatusFailed, failure
			return
		}
		j.Status, j.Result = StatusCompleted, result
	})
}

// Scan returns a scan job by id.
func (s *Service) Scan(ctx context.Context, jobID string) (*ScanJob, error) {
	job := s.jobs.Get(jobID)
	if job == nil {
		return nil, errors.NotFound("scan_job")
	}
	return job, nil
}

// Wait blocks until every background scan has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Import stores records as items.
func (s *Service) Import(ctx context.Context, records []importer.Record) (*importer.Report, error) {
	if len(records) == 0 {
		return nil, errors.BadRequestKey("errors.import_empty", nil)
	}
	return s.importer.Import(ctx, records, importer.SourceBulk), nil
}

// AnalyzeAndImport analyzes every image and imports the recognized items.
// Placeholder results are low-confidence and never imported.
func (s *Service) AnalyzeAndImport(ctx context.Context, images [][]byte) *ImportResult {
	out := &ImportResult{
		Success:    true,
		Analyses:   s.AnalyzeAll(ctx, images),
		AddedItems: []ImportedItem{},
	}

	var records []importer.Record
	for _, a := range out.Analyses {
		if a.LowConfidence {
			out.SkippedScans++
			continue
		}
		for _, c := range a.Items {
			records = append(records, recordFrom(c))
		}
	}

	if len(records) > 0 {
		report := s.importer.Import(ctx, records, importer.SourceReceipt)
		for _, it := range report.Added {
			out.AddedItems = append(out.AddedItems, ImportedItem{ID: it.ID, Name: it.Name, Quantity: it.Quantity})
		}
		out.Errors = report.Errors
	}

	out.Message = i18n.TFromContext(ctx, "receipt.imported", map[string]string{"count": strconv.Itoa(len(out.AddedItems))})
	return out
}

func (s *Service) guesser() *guesser.Guesser {
	categories, locations := guesser.Names{}, guesser.Names{}
	s.store.View(func(st *store.State) {
		for _, c := range st.Categories {
			categories[c.Name] = c.ID
		}
		for _, l := range st.Locations {
			if _, seen := locations[l.Name]; !seen {
				locations[l.Name] = l.ID
			}
		}
	})
	return guesser.New(s.rules, categories, locations)
}

func annotate(g *guesser.Guesser, items []parser.Candidate) []parser.Candidate {
	for i := range items {
		items[i].CategoryID = g.Category(items[i].Name)
		items[i].LocationID = g.Location(items[i].Name)
	}
	if items == nil {
		items = []parser.Candidate{}
	}
	return items
}

func placeholders(g *guesser.Guesser) []parser.Candidate {
	out := make([]parser.Candidate, len(ocr.PlaceholderItems))
	for i, p := range ocr.PlaceholderItems {
		price := p.Price
		out[i] = parser.Candidate{
			Name:       p.Name,
			Quantity:   p.Quantity,
			Price:      &price,
			CategoryID: g.CategoryByName(p.Category),
		}
	}
	return out
}

func recordFrom(c parser.Candidate) importer.Record {
	qty := c.Quantity
	return importer.Record{
		Name:              c.Name,
		Quantity:          &qty,
		Price:             c.Price,
		CategoryID:        c.CategoryID,
		SuggestedLocation: c.LocationID,
	}
}
