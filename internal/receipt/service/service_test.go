package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/guesser"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/importer"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/ocr"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/service"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const receiptText = `동네마트
라면 4,500
칫솔 3,000
합계 7,500`

// fakeRecognizer maps image bytes to OCR results; unknown images get the placeholder.
type fakeRecognizer map[string]ocr.Result

func (f fakeRecognizer) Analyze(_ context.Context, raw []byte) ocr.Result {
	if res, ok := f[string(raw)]; ok {
		return res
	}
	return ocr.Result{Engine: "fake", Source: ocr.SourcePlaceholder, LowConfidence: true}
}

var recognized = fakeRecognizer{
	"receipt": {Engine: "fake", Source: ocr.SourcePrimary, Text: receiptText},
	"blank":   {Engine: "fake", Source: ocr.SourceFallback, Text: "영수증\n감사합니다"},
}

func newService(t *testing.T) (*service.Service, *store.Store) {
	t.Helper()
	rules, err := guesser.DefaultRules()
	require.NoError(t, err)
	st := store.New(nil)
	im := importer.New(st, nil, nil, logger.Nop())
	return service.New(recognized, im, st, rules, nil, logger.Nop()), st
}

func TestAnalyze_ParsesAndAnnotates(t *testing.T) {
	svc, _ := newService(t)

	a := svc.Analyze(context.Background(), []byte("receipt"))
	assert.True(t, a.Success)
	assert.Equal(t, "2개의 물건을 인식했습니다.", a.Message)
	assert.Equal(t, ocr.SourcePrimary, a.Source)
	assert.False(t, a.LowConfidence)

	require.Len(t, a.Items, 2)
	assert.Equal(t, "라면", a.Items[0].Name)
	assert.Equal(t, 4500, *a.Items[0].Price)
	assert.Equal(t, 4, *a.Items[0].CategoryID)
	assert.Equal(t, 3, *a.Items[0].LocationID)

	assert.Equal(t, "칫솔", a.Items[1].Name)
	assert.Equal(t, 8, *a.Items[1].CategoryID)
	assert.Equal(t, 4, *a.Items[1].LocationID)
}

func TestAnalyze_UnparseableTextIsEmptySuccess(t *testing.T) {
	svc, _ := newService(t)

	a := svc.Analyze(context.Background(), []byte("blank"))
	assert.True(t, a.Success)
	assert.NotNil(t, a.Items)
	assert.Empty(t, a.Items)
	assert.Equal(t, "0개의 물건을 인식했습니다.", a.Message)
}

func TestAnalyze_PlaceholderWhenOCRFails(t *testing.T) {
	svc, _ := newService(t)

	a := svc.Analyze(context.Background(), []byte("unreadable"))
	assert.True(t, a.Success)
	assert.True(t, a.LowConfidence)
	assert.Equal(t, ocr.SourcePlaceholder, a.Source)

	require.Len(t, a.Items, 2)
	assert.Equal(t, "테스트 상품 1", a.Items[0].Name)
	assert.Equal(t, 1000, *a.Items[0].Price)
	assert.Equal(t, 4, *a.Items[0].CategoryID)
	assert.Equal(t, "테스트 상품 2", a.Items[1].Name)
	assert.Equal(t, 2, a.Items[1].Quantity)
	assert.Equal(t, 8, *a.Items[1].CategoryID, "생활용품 resolves to the bathroom category")
}

func TestAnalyzeAll_KeepsInputOrder(t *testing.T) {
	svc, _ := newService(t)

	out := svc.AnalyzeAll(context.Background(), [][]byte{[]byte("x"), []byte("receipt"), []byte("blank")})
	require.Len(t, out, 3)
	assert.Equal(t, ocr.SourcePlaceholder, out[0].Source)
	assert.Equal(t, ocr.SourcePrimary, out[1].Source)
	assert.Equal(t, ocr.SourceFallback, out[2].Source)
}

func TestScan_CompletesInBackground(t *testing.T) {
	defer goleak.VerifyNone(t)
	svc, _ := newService(t)

	ctx, cancel := context.WithCancel(context.Background())
	job := svc.StartScan(ctx, []byte("receipt"))
	cancel()

	assert.NotEmpty(t, job.JobID)
	svc.Wait()

	got, err := svc.Scan(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, service.StatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Len(t, got.Result.Items, 2)
	assert.NotNil(t, got.CompletedAt)
}

func TestScan_UnknownJob(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Scan(context.Background(), "missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestImport_RejectsEmptyBatch(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Import(context.Background(), nil)
	require.Error(t, err)

	report, err := svc.Import(context.Background(), []importer.Record{{Name: "우유", Price: testutil.PtrInt(2500)}})
	require.NoError(t, err)
	assert.Len(t, report.Added, 1)
}

func TestAnalyzeAndImport_SkipsPlaceholders(t *testing.T) {
	svc, st := newService(t)

	res := svc.AnalyzeAndImport(context.Background(), [][]byte{[]byte("receipt"), []byte("unreadable")})
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.SkippedScans)
	require.Len(t, res.AddedItems, 2)
	assert.Equal(t, "2개의 물건을 등록했습니다.", res.Message)

	snap := st.Snapshot()
	require.Len(t, snap.Items, 2)
	assert.Equal(t, 3, *snap.Items[0].LocationID)
	require.Len(t, snap.History, 2)
	assert.Equal(t, domain.ReasonReceiptImport, snap.History[0].Reason)
}

func TestJobStore_Expire(t *testing.T) {
	jobs := service.NewJobStore(time.Minute)
	jobs.Store(&service.ScanJob{JobID: "old", CreatedAt: time.Now().Add(-2 * time.Minute)})
	jobs.Store(&service.ScanJob{JobID: "new", CreatedAt: time.Now()})

	assert.Equal(t, 1, jobs.Expire())
	assert.Nil(t, jobs.Get("old"))
	assert.NotNil(t, jobs.Get("new"))
}

func TestJobStore_RunStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)
	jobs := service.NewJobStore(20 * time.Millisecond)
	jobs.Store(&service.ScanJob{JobID: "old", CreatedAt: time.Now().Add(-time.Hour)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- jobs.Run(ctx) }()

	testutil.RequireEventually(t, func() bool { return jobs.Len() == 0 }, time.Second, "expired job dropped")
	cancel()
	require.NoError(t, <-done)
}

func TestJobStore_GetReturnsCopy(t *testing.T) {
	jobs := service.NewJobStore(time.Minute)
	jobs.Store(&service.ScanJob{JobID: "a", Status: service.StatusProcessing, CreatedAt: time.Now()})

	got := jobs.Get("a")
	got.Status = service.StatusFailed
	assert.Equal(t, service.StatusProcessing, jobs.Get("a").Status)
}
