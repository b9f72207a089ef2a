package ocr

import (
	"github.com/smartinventory/smartinventory-backend/pkg/config"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
)

// EngineFromConfig builds the configured engine. Misconfiguration degrades to
// NoopEngine so receipts still get placeholder results.
func EngineFromConfig(cfg config.OCRConfig, log *logger.Logger) Engine {
	switch cfg.Engine {
	case config.OCREngineTesseract:
		return NewTesseractCLI(cfg.TesseractPath)
	case config.OCREngineHTTP:
		return NewHTTPEngine(cfg.Endpoint, cfg.Timeout)
	case config.OCREngineGosseract:
		engine, err := NewGosseract()
		if err != nil {
			log.Warn().Err(err).Msg("gosseract unavailable, receipts will use placeholder results")
			return NoopEngine{}
		}
		return engine
	case config.OCREngineNone:
		return NoopEngine{}
	default:
		log.Warn().Str("engine", cfg.Engine).Msg("unknown OCR engine, receipts will use placeholder results")
		return NoopEngine{}
	}
}

// OptionsFromConfig maps the OCR configuration onto recognizer options.
func OptionsFromConfig(cfg config.OCRConfig) Options {
	return Options{
		PrimaryLanguages: cfg.PrimaryLanguages,
		FallbackLanguage: cfg.FallbackLanguage,
		Timeout:          cfg.Timeout,
	}
}
