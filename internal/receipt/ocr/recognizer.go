package ocr

import (
	"context"
	"time"

	"github.com/smartinventory/smartinventory-backend/internal/receipt/preprocess"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
)

// Result sources
const (
	SourcePrimary     = "primary"
	SourceFallback    = "fallback"
	SourcePlaceholder = "placeholder"
)

// Default language selectors
const (
	DefaultPrimaryLanguages = "kor+eng"
	DefaultFallbackLanguage = "kor"
)

// PlaceholderItem is returned when every recognition attempt failed.
type PlaceholderItem struct {
	Name     string
	Quantity int
	Price    int
	Category string
}

// PlaceholderItems is the fixed low-confidence result.
var PlaceholderItems = []PlaceholderItem{
	{Name: "테스트 상품 1", Quantity: 1, Price: 1000, Category: "식품"},
	{Name: "테스트 상품 2", Quantity: 2, Price: 2000, Category: "생활용품"},
}

// Result is the outcome of Analyze. Text is empty for the placeholder source.
type Result struct {
	Text          string
	Engine        string
	Source        string
	LowConfidence bool
	Duration      time.Duration
}

// Options configures a Recognizer.
type Options struct {
	PrimaryLanguages string
	FallbackLanguage string
	Timeout          time.Duration
}

// Recognizer runs preprocessing and OCR with a single fallback.
type Recognizer struct {
	pre    *preprocess.Preprocessor
	engine Engine
	opts   Options
	logger *logger.Logger
}

// NewRecognizer creates a recognizer. A nil engine behaves like NoopEngine.
func NewRecognizer(pre *preprocess.Preprocessor, engine Engine, opts Options, log *logger.Logger) *Recognizer {
	if engine == nil {
		engine = NoopEngine{}
	}
	if opts.PrimaryLanguages == "" {
		opts.PrimaryLanguages = DefaultPrimaryLanguages
	}
	if opts.FallbackLanguage == "" {
		opts.FallbackLanguage = DefaultFallbackLanguage
	}
	return &Recognizer{pre: pre, engine: engine, opts: opts, logger: log.WithComponent("ocr")}
}

// Engine returns the configured engine name.
func (r *Recognizer) Engine() string { return r.engine.Name() }

// Analyze never fails: it degrades from the preprocessed image to the raw bytes to the
// placeholder result.
func (r *Recognizer) Analyze(ctx context.Context, raw []byte) Result {
	start := time.Now()
	res := Result{Engine: r.engine.Name()}

	text, err := r.primary(ctx, raw)
	if err == nil {
		res.Text, res.Source = text, SourcePrimary
		res.Duration = time.Since(start)
		return res
	}
	r.logger.Warn().Err(err).Str("engine", res.Engine).Msg("primary recognition failed, retrying with raw image")

	text, err = r.recognize(ctx, DataURLSource(raw), r.opts.FallbackLanguage)
	if err == nil {
		res.Text, res.Source = text, SourceFallback
		res.Duration = time.Since(start)
		return res
	}
	r.logger.Error().Err(err).Str("engine", res.Engine).Msg("fallback recognition failed, returning placeholder items")

	res.Source, res.LowConfidence = SourcePlaceholder, true
	res.Duration = time.Since(start)
	return res
}

func (r *Recognizer) primary(ctx context.Context, raw []byte) (string, error) {
	prepared, err := r.pre.Prepare(ctx, raw)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := prepared.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to remove receipt temp file")
		}
	}()
	return r.recognize(ctx, FileSource(prepared.Path), r.opts.PrimaryLanguages)
}

func (r *Recognizer) recognize(ctx context.Context, src Source, lang string) (string, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}
	return r.engine.Recognize(ctx, src, lang)
}
