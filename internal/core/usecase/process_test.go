package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/document-organizer/internal/core/domain"
)

type extractorFake struct {
	contents map[string]domain.ExtractedContent
	calls    []string
}

func (f *extractorFake) Extract(_ context.Context, path string) domain.ExtractedContent {
	f.calls = append(f.calls, filepath.Base(path))
	return f.contents[filepath.Base(path)]
}

type classifierFake struct {
	analyses map[string]domain.FileAnalysis
	errs     map[string]error
	requests []domain.AnalysisRequest

	// interrupt is called while analysing interruptOn.
	interruptOn string
	interrupt   context.CancelFunc
}

func (f *classifierFake) Analyse(ctx context.Context, req domain.AnalysisRequest) (domain.FileAnalysis, error) {
	f.requests = append(f.requests, req)
	if f.interrupt != nil && req.FileName == f.interruptOn {
		f.interrupt()
		return domain.FileAnalysis{}, ctx.Err()
	}
	if err := f.errs[req.FileName]; err != nil {
		return domain.FileAnalysis{}, err
	}
	return f.analyses[req.FileName], nil
}

type routeCall struct {
	src, folder, filename string
}

type noteCall struct {
	destDir, filename string
	threshold         float64
}

type quarantineCall struct {
	src, name string
}

type routerFake struct {
	outputDir     string
	routeErr      error
	noteErr       error
	quarantineErr error

	routes      []routeCall
	notes       []noteCall
	quarantines []quarantineCall
}

func (f *routerFake) Route(_ context.Context, src, folder, filename string) (string, error) {
	f.routes = append(f.routes, routeCall{src: src, folder: folder, filename: filename})
	if f.routeErr != nil {
		return "", f.routeErr
	}
	return filepath.Join(f.outputDir, folder, filename), nil
}

func (f *routerFake) WriteReviewNote(_ context.Context, destDir, filename string, _ domain.FileAnalysis, threshold float64) (string, error) {
	f.notes = append(f.notes, noteCall{destDir: destDir, filename: filename, threshold: threshold})
	if f.noteErr != nil {
		return "", f.noteErr
	}
	return filepath.Join(destDir, filename+"_note.txt"), nil
}

func (f *routerFake) Quarantine(_ context.Context, src, name string) (string, error) {
	f.quarantines = append(f.quarantines, quarantineCall{src: src, name: name})
	if f.quarantineErr != nil {
		return "", f.quarantineErr
	}
	return filepath.Join(f.outputDir, domain.ErrorFolder, name), nil
}

type reportWriterFake struct {
	reports []domain.Report
	err     error
}

func (f *reportWriterFake) WriteReport(_ context.Context, report domain.Report) (string, error) {
	f.reports = append(f.reports, report)
	if f.err != nil {
		return "", f.err
	}
	return "/out/rapport_traitement.json", nil
}

type notifierFake struct {
	results []domain.ProcessingResult
	reports []domain.Report
	err     error
}

func (f *notifierFake) PublishResult(_ context.Context, _ string, result domain.ProcessingResult) error {
	f.results = append(f.results, result)
	return f.err
}

func (f *notifierFake) PublishReport(_ context.Context, report domain.Report) error {
	f.reports = append(f.reports, report)
	return f.err
}

type observerFake struct {
	started  int
	finished []domain.ProcessingStatus
	aborted  int
	batches  int
}

func (f *observerFake) AbortFile() { f.aborted++ }

func (f *observerFake) StartFile() { f.started++ }

func (f *observerFake) FinishFile(result domain.ProcessingResult, _ time.Duration) {
	f.finished = append(f.finished, result.Status)
}

func (f *observerFake) FinishBatch(domain.Report) error {
	f.batches++
	return nil
}

type batchFixture struct {
	inputDir   string
	extractor  *extractorFake
	classifier *classifierFake
	router     *routerFake
	reports    *reportWriterFake
	notifier   *notifierFake
	observer   *observerFake
}

func newBatchFixture(t *testing.T, files ...string) *batchFixture {
	t.Helper()
	inputDir := t.TempDir()
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(inputDir, name), []byte("content of "+name), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", name, err)
		}
	}
	return &batchFixture{
		inputDir:   inputDir,
		extractor:  &extractorFake{contents: map[string]domain.ExtractedContent{}},
		classifier: &classifierFake{analyses: map[string]domain.FileAnalysis{}, errs: map[string]error{}},
		router:     &routerFake{outputDir: "/out"},
		reports:    &reportWriterFake{},
		notifier:   &notifierFake{},
		observer:   &observerFake{},
	}
}

func (f *batchFixture) useCase() *BatchUseCase {
	return NewBatchUseCase(
		domain.BatchSettings{InputDir: f.inputDir, OutputDir: "/out", ConfidenceThreshold: 0.7},
		f.extractor,
		f.classifier,
		NewDecisionEngine(0.7, fixedClock),
		f.router,
		f.reports,
		BatchOptions{
			Notifier: f.notifier,
			Observer: f.observer,
			Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
			Now:      fixedClock,
			NewRunID: func() string { return "run-test" },
		},
	)
}

func TestProcessDirectoryMixedOutcomes(t *testing.T) {
	fx := newBatchFixture(t, "a_contract.pdf", "b_scan.docx", "c_photo.png")
	fx.extractor.contents["a_contract.pdf"] = domain.ExtractedContent{Text: "contract text", HasText: true}
	fx.extractor.contents["c_photo.png"] = domain.ExtractedContent{IsImage: true}
	fx.classifier.analyses["a_contract.pdf"] = domain.FileAnalysis{Category: domain.CategoryContracts, Description: "contrat kone", Confidence: 0.9}
	fx.classifier.analyses["b_scan.docx"] = domain.FileAnalysis{Category: domain.CategoryReports, Description: "scan", Confidence: 0.5, Reasoning: "unclear"}
	fx.classifier.errs["c_photo.png"] = errors.New("provider unavailable after 3 attempts")

	results, err := fx.useCase().ProcessDirectory(context.Background(), fx.inputDir)
	if err != nil {
		t.Fatalf("ProcessDirectory() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	wantStatus := []domain.ProcessingStatus{domain.StatusSuccess, domain.StatusToBeChecked, domain.StatusError}
	for i, want := range wantStatus {
		if results[i].Status != want {
			t.Fatalf("result %d (%s): expected %s, got %s", i, results[i].OriginalTitle, want, results[i].Status)
		}
	}

	if results[0].FinalTitle != "2026-03-14_Contracts_contrat kone.pdf" || results[0].Category != domain.CategoryContracts {
		t.Fatalf("unexpected success result: %+v", results[0])
	}
	if results[2].FinalTitle != "" || results[2].Category != "" || results[2].Confidence != 0 {
		t.Fatalf("error result must not carry filing data: %+v", results[2])
	}
	if !strings.Contains(results[2].ErrorMessage, "provider unavailable") {
		t.Fatalf("expected classifier message in error, got %q", results[2].ErrorMessage)
	}

	if len(fx.router.routes) != 2 {
		t.Fatalf("expected 2 routed files, got %+v", fx.router.routes)
	}
	if fx.router.routes[1].folder != domain.ReviewFolder {
		t.Fatalf("expected low confidence file routed to review, got %+v", fx.router.routes[1])
	}
	if len(fx.router.notes) != 1 || fx.router.notes[0].filename != "2026-03-14_Reports_scan.docx" || fx.router.notes[0].threshold != 0.7 {
		t.Fatalf("unexpected review notes: %+v", fx.router.notes)
	}
	if fx.router.notes[0].destDir != filepath.Join("/out", domain.ReviewFolder) {
		t.Fatalf("expected note next to moved file, got %s", fx.router.notes[0].destDir)
	}
	if len(fx.router.quarantines) != 1 {
		t.Fatalf("expected 1 quarantine, got %+v", fx.router.quarantines)
	}
	if q := fx.router.quarantines[0]; q.name != "c_photo.png" || q.src != filepath.Join(fx.inputDir, "c_photo.png") {
		t.Fatalf("expected original file quarantined untouched, got %+v", q)
	}

	if req := fx.classifier.requests[2]; req.ImagePath == "" || req.Text != "" {
		t.Fatalf("expected image request for png, got %+v", req)
	}
	if req := fx.classifier.requests[0]; req.Text != "contract text" || req.ImagePath != "" {
		t.Fatalf("expected text request for pdf, got %+v", req)
	}

	report := GenerateReport("run-test", fixedClock(), results)
	if len(report.Categories) != 2 || report.Categories["Contracts"] != 1 || report.Categories["Reports"] != 1 {
		t.Fatalf("unexpected category counts: %v", report.Categories)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("expected exactly one error entry, got %d", len(report.Errors))
	}

	if fx.observer.started != 3 || len(fx.observer.finished) != 3 {
		t.Fatalf("expected observer to see 3 files, got %+v", fx.observer)
	}
	if len(fx.notifier.results) != 3 {
		t.Fatalf("expected 3 published results, got %d", len(fx.notifier.results))
	}
}

func TestProcessDirectoryUnsupportedTypeStillClassified(t *testing.T) {
	fx := newBatchFixture(t, "bundle.zip")
	fx.classifier.analyses["bundle.zip"] = domain.FileAnalysis{Category: domain.CategoryOther, Description: "bundle", Confidence: 0.8}

	results, err := fx.useCase().ProcessDirectory(context.Background(), fx.inputDir)
	if err != nil {
		t.Fatalf("ProcessDirectory() error = %v", err)
	}
	if len(results) != 1 || results[0].Status != domain.StatusSuccess {
		t.Fatalf("unexpected results: %+v", results)
	}
	req := fx.classifier.requests[0]
	if req.Text != "" || req.ImagePath != "" || req.FileName != "bundle.zip" {
		t.Fatalf("expected filename-only request, got %+v", req)
	}
}

func TestProcessDirectoryRoutingFailureQuarantinesSource(t *testing.T) {
	fx := newBatchFixture(t, "invoice.pdf")
	fx.classifier.analyses["invoice.pdf"] = domain.FileAnalysis{Category: domain.CategoryInvoice, Description: "march", Confidence: 0.9}
	fx.router.routeErr = domain.ErrDestinationExists

	results, err := fx.useCase().ProcessDirectory(context.Background(), fx.inputDir)
	if err != nil {
		t.Fatalf("ProcessDirectory() error = %v", err)
	}
	if results[0].Status != domain.StatusError {
		t.Fatalf("expected error result, got %+v", results[0])
	}
	if !strings.Contains(results[0].ErrorMessage, "routing failed") {
		t.Fatalf("expected routing error kind in message, got %q", results[0].ErrorMessage)
	}
	if fx.router.quarantines[0].src != filepath.Join(fx.inputDir, "invoice.pdf") {
		t.Fatalf("expected quarantine from source, got %+v", fx.router.quarantines[0])
	}
}

func TestProcessDirectoryNoteFailureQuarantinesMovedFile(t *testing.T) {
	fx := newBatchFixture(t, "blurry.jpg")
	fx.classifier.analyses["blurry.jpg"] = domain.FileAnalysis{Category: domain.CategoryPhotos, Description: "blurry", Confidence: 0.3}
	fx.router.noteErr = errors.New("disk full")

	results, err := fx.useCase().ProcessDirectory(context.Background(), fx.inputDir)
	if err != nil {
		t.Fatalf("ProcessDirectory() error = %v", err)
	}
	if results[0].Status != domain.StatusError {
		t.Fatalf("expected error result, got %+v", results[0])
	}
	want := filepath.Join("/out", domain.ReviewFolder, "2026-03-14_Photos_blurry.jpg")
	if q := fx.router.quarantines[0]; q.src != want || q.name != "blurry.jpg" {
		t.Fatalf("expected moved file quarantined under original name, got %+v", q)
	}
}

func TestProcessDirectoryRejectsInvalidAnalysis(t *testing.T) {
	fx := newBatchFixture(t, "weird.txt")
	fx.classifier.analyses["weird.txt"] = domain.FileAnalysis{Category: domain.CategoryOther, Description: "x", Confidence: 1.5}

	results, err := fx.useCase().ProcessDirectory(context.Background(), fx.inputDir)
	if err != nil {
		t.Fatalf("ProcessDirectory() error = %v", err)
	}
	if results[0].Status != domain.StatusError || !strings.Contains(results[0].ErrorMessage, "classification failed") {
		t.Fatalf("expected classification error, got %+v", results[0])
	}
	if len(fx.router.routes) != 0 {
		t.Fatalf("invalid analysis must not be routed")
	}
}

func TestProcessDirectoryQuarantineFailureKeepsBothErrors(t *testing.T) {
	fx := newBatchFixture(t, "a.pdf")
	fx.classifier.errs["a.pdf"] = errors.New("timeout")
	fx.router.quarantineErr = errors.New("permission denied")

	results, err := fx.useCase().ProcessDirectory(context.Background(), fx.inputDir)
	if err != nil {
		t.Fatalf("ProcessDirectory() error = %v", err)
	}
	msg := results[0].ErrorMessage
	if !strings.Contains(msg, "timeout") || !strings.Contains(msg, "quarantine: permission denied") {
		t.Fatalf("expected both errors in message, got %q", msg)
	}
}

func TestProcessDirectorySkipsSubdirectories(t *testing.T) {
	fx := newBatchFixture(t, "a.csv")
	if err := os.Mkdir(filepath.Join(fx.inputDir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	fx.classifier.analyses["a.csv"] = domain.FileAnalysis{Category: domain.CategoryExportCSV, Description: "export", Confidence: 0.9}

	results, err := fx.useCase().ProcessDirectory(context.Background(), fx.inputDir)
	if err != nil {
		t.Fatalf("ProcessDirectory() error = %v", err)
	}
	if len(results) != 1 || len(fx.extractor.calls) != 1 {
		t.Fatalf("expected only the regular file processed, got %+v", results)
	}
}

func TestProcessDirectoryMissingInputDir(t *testing.T) {
	fx := newBatchFixture(t)
	_, err := fx.useCase().ProcessDirectory(context.Background(), filepath.Join(fx.inputDir, "missing"))
	if err == nil || !strings.Contains(err.Error(), "read input dir") {
		t.Fatalf("expected read input dir error, got %v", err)
	}
}

func TestRunWritesReportOnce(t *testing.T) {
	fx := newBatchFixture(t, "a.pdf", "b.pdf")
	fx.classifier.analyses["a.pdf"] = domain.FileAnalysis{Category: domain.CategoryInvoice, Description: "a", Confidence: 0.9}
	fx.classifier.errs["b.pdf"] = errors.New("boom")

	report, err := fx.useCase().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(fx.reports.reports) != 1 {
		t.Fatalf("expected report written once, got %d", len(fx.reports.reports))
	}
	if report.RunID != "run-test" || report.TotalFiles != 2 || len(report.Errors) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(fx.notifier.reports) != 1 || fx.observer.batches != 1 {
		t.Fatalf("expected summary published and metrics flushed")
	}
}

func TestRunStopsBetweenFilesWhenCancelled(t *testing.T) {
	fx := newBatchFixture(t, "a.pdf", "b.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := fx.useCase().Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report == nil || report.TotalFiles != 0 {
		t.Fatalf("expected empty report for interrupted batch, got %+v", report)
	}
	if len(fx.reports.reports) != 1 {
		t.Fatalf("expected partial report to be written")
	}
	if len(fx.extractor.calls) != 0 {
		t.Fatalf("expected no file processed after cancellation")
	}
}

func TestRunInterruptedDuringClassificationLeavesFileInInbox(t *testing.T) {
	fx := newBatchFixture(t, "a.pdf", "contrat.pdf", "z.pdf")
	fx.classifier.analyses["a.pdf"] = domain.FileAnalysis{Category: domain.CategoryInvoice, Description: "a", Confidence: 0.9}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fx.classifier.interruptOn = "contrat.pdf"
	fx.classifier.interrupt = cancel

	report, err := fx.useCase().Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report == nil || report.TotalFiles != 1 || len(report.Errors) != 0 {
		t.Fatalf("expected only the first file in the report, got %+v", report)
	}
	if len(fx.router.quarantines) != 0 {
		t.Fatalf("interrupted file must not be quarantined, got %+v", fx.router.quarantines)
	}
	if len(fx.router.routes) != 1 {
		t.Fatalf("expected only the first file routed, got %+v", fx.router.routes)
	}
	if len(fx.classifier.requests) != 2 {
		t.Fatalf("expected the batch to stop after the interrupted file, got %d requests", len(fx.classifier.requests))
	}
	if fx.observer.aborted != 1 || len(fx.observer.finished) != 1 {
		t.Fatalf("expected one aborted and one finished file, got %+v", fx.observer)
	}
	if len(fx.reports.reports) != 1 {
		t.Fatalf("expected partial report to be written")
	}
}

func TestRunInterruptedOnLastFileReportsCancellation(t *testing.T) {
	fx := newBatchFixture(t, "contrat.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fx.classifier.interruptOn = "contrat.pdf"
	fx.classifier.interrupt = cancel

	report, err := fx.useCase().Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report.TotalFiles != 0 || len(fx.router.quarantines) != 0 {
		t.Fatalf("expected file left in inbox, got report %+v quarantines %+v", report, fx.router.quarantines)
	}
	if _, statErr := os.Stat(filepath.Join(fx.inputDir, "contrat.pdf")); statErr != nil {
		t.Fatalf("expected file still in inbox: %v", statErr)
	}
}

func TestRunReturnsReportWriteError(t *testing.T) {
	fx := newBatchFixture(t)
	fx.reports.err = errors.New("read-only fs")

	report, err := fx.useCase().Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "write report") {
		t.Fatalf("expected write report error, got %v", err)
	}
	if report == nil {
		t.Fatalf("expected report to be returned alongside the error")
	}
}

func TestPublishFailureDoesNotChangeResults(t *testing.T) {
	fx := newBatchFixture(t, "a.pdf")
	fx.classifier.analyses["a.pdf"] = domain.FileAnalysis{Category: domain.CategoryInvoice, Description: "a", Confidence: 0.9}
	fx.notifier.err = errors.New("nats down")

	report, err := fx.useCase().Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Files[0].Status != domain.StatusSuccess {
		t.Fatalf("expected success despite notifier failure, got %+v", report.Files[0])
	}
}
