package ocr_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smartinventory/smartinventory-backend/internal/receipt/ocr"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/preprocess"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedEngine answers calls in order and records what it was given.
type scriptedEngine struct {
	mu      sync.Mutex
	answers []error
	text    string
	calls   []call
}

type call struct {
	path    string
	dataURL bool
	lang    string
	exists  bool
}

func (e *scriptedEngine) Name() string { return "scripted" }

func (e *scriptedEngine) Recognize(_ context.Context, src ocr.Source, lang string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := call{path: src.Path, dataURL: src.DataURL != "", lang: lang}
	if src.Path != "" {
		_, err := os.Stat(src.Path)
		c.exists = err == nil
	}
	e.calls = append(e.calls, c)

	var err error
	if len(e.answers) > 0 {
		err, e.answers = e.answers[0], e.answers[1:]
	}
	if err != nil {
		return "", err
	}
	return e.text, nil
}

func newRecognizer(t *testing.T, engine ocr.Engine) (*ocr.Recognizer, string) {
	t.Helper()
	dir := t.TempDir()
	return ocr.NewRecognizer(preprocess.New(500, dir), engine, ocr.Options{}, logger.Nop()), dir
}

func TestAnalyze_PrimarySucceeds(t *testing.T) {
	engine := &scriptedEngine{text: "우유 2,500"}
	rec, dir := newRecognizer(t, engine)

	res := rec.Analyze(context.Background(), testutil.JPEG(t, 800, 400))
	assert.Equal(t, ocr.SourcePrimary, res.Source)
	assert.Equal(t, "우유 2,500", res.Text)
	assert.False(t, res.LowConfidence)

	require.Len(t, engine.calls, 1)
	assert.Equal(t, "kor+eng", engine.calls[0].lang)
	assert.True(t, engine.calls[0].exists, "temp file exists during recognition")

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "temp file removed afterwards")
}

func TestAnalyze_FallsBackToRawDataURL(t *testing.T) {
	engine := &scriptedEngine{answers: []error{errors.New("engine crashed")}, text: "빵 3,000"}
	rec, dir := newRecognizer(t, engine)

	res := rec.Analyze(context.Background(), testutil.PNG(t, 50, 50))
	assert.Equal(t, ocr.SourceFallback, res.Source)
	assert.Equal(t, "빵 3,000", res.Text)

	require.Len(t, engine.calls, 2)
	assert.True(t, engine.calls[1].dataURL)
	assert.Equal(t, "kor", engine.calls[1].lang)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "temp file removed on the failure path")
}

func TestAnalyze_UndecodableImageSkipsToFallback(t *testing.T) {
	engine := &scriptedEngine{text: "text"}
	rec, _ := newRecognizer(t, engine)

	res := rec.Analyze(context.Background(), []byte("not an image"))
	assert.Equal(t, ocr.SourceFallback, res.Source)
	require.Len(t, engine.calls, 1)
	assert.True(t, engine.calls[0].dataURL)
}

func TestAnalyze_BothFailReturnsPlaceholder(t *testing.T) {
	engine := &scriptedEngine{answers: []error{errors.New("one"), errors.New("two")}}
	rec, _ := newRecognizer(t, engine)

	var res ocr.Result
	assert.NotPanics(t, func() {
		res = rec.Analyze(context.Background(), testutil.JPEG(t, 20, 20))
	})
	assert.Equal(t, ocr.SourcePlaceholder, res.Source)
	assert.True(t, res.LowConfidence)
	assert.Empty(t, res.Text)
}

func TestAnalyze_NilEngineIsNoop(t *testing.T) {
	rec, _ := newRecognizer(t, nil)
	assert.Equal(t, "none", rec.Engine())
	assert.Equal(t, ocr.SourcePlaceholder, rec.Analyze(context.Background(), nil).Source)
}

func TestSource_Bytes(t *testing.T) {
	src := ocr.DataURLSource([]byte("abc"))
	assert.True(t, strings.HasPrefix(src.String(), "data:image/jpeg;base64,"))
	data, err := src.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	_, err = ocr.Source{DataURL: "nonsense"}.Bytes()
	assert.Error(t, err)
}

func TestHTTPEngine(t *testing.T) {
	var got struct {
		Image    string `json:"image"`
		Language string `json:"language"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ocr", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got.Language == "fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "라면 4,500"})
	}))
	defer srv.Close()

	engine := ocr.NewHTTPEngine(srv.URL+"/", time.Second)

	text, err := engine.Recognize(context.Background(), ocr.DataURLSource([]byte("img")), "kor+eng")
	require.NoError(t, err)
	assert.Equal(t, "라면 4,500", text)
	assert.Equal(t, "kor+eng", got.Language)
	assert.True(t, strings.HasPrefix(got.Image, "data:image/jpeg;base64,"))

	_, err = engine.Recognize(context.Background(), ocr.DataURLSource([]byte("img")), "fail")
	assert.Error(t, err)
}

func TestTesseractCLI_MissingBinary(t *testing.T) {
	engine := ocr.NewTesseractCLI("/nonexistent/tesseract")
	_, err := engine.Recognize(context.Background(), ocr.FileSource("/tmp/x.jpg"), "kor")
	assert.Error(t, err)
}
