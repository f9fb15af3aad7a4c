package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mohammad-safakhou/medconsensus/provider"
)

// TranslationInfo records how a report was translated.
type TranslationInfo struct {
	TargetLanguage string    `json:"target_language"`
	TranslatedAt   time.Time `json:"translated_at"`
	Failed         []string  `json:"failed,omitempty"`
}

// Translator translates one piece of medical text.
type Translator interface {
	Translate(ctx context.Context, text, language string) (string, error)
}

var ErrUnsupportedLanguage = errors.New("unsupported language")

var translationPrompt = provider.Prompt{
	Name: "translation",
	System: `You are a specialized medical translation assistant.
Translate the medical report text you are given into {language} while maintaining medical accuracy and terminology.

Important guidelines:
1. Preserve all medical terms and their accuracy
2. Maintain the professional tone of medical documents
3. Keep the structure and Markdown formatting of the original text
4. Ensure medical abbreviations and terms are correctly translated
5. Preserve numerical values, percentages, and measurements exactly

When translating medical content, prioritize accuracy over fluency. Reply with the translation only.`,
	User: `{text}`,
}

// LLMTranslator translates with a text completion provider.
type LLMTranslator struct {
	Completer provider.TextCompleter
}

func (t LLMTranslator) Translate(ctx context.Context, text, language string) (string, error) {
	if t.Completer == nil {
		return "", errors.New("no text completion provider configured")
	}
	out, err := t.Completer.Complete(ctx, translationPrompt, map[string]string{
		"text":     text,
		"language": language,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("empty translation")
	}
	return out, nil
}

// TranslateText returns the translation of text, or text prefixed with a
// failure marker when the translator fails.
func TranslateText(ctx context.Context, tr Translator, text, language string) (string, error) {
	out, err := tr.Translate(ctx, text, language)
	if err != nil {
		return fmt.Sprintf("[Translation failed: %v]\n\n%s", err, text), err
	}
	return out, nil
}

// Translate returns a copy of r with the consensus, diagnoses, treatments
// and research findings translated concurrently. A field whose translation
// fails keeps its text behind a failure marker; only an unknown language is
// an error.
func Translate(ctx context.Context, tr Translator, r Report, language string, now time.Time, logger *zap.Logger) (Report, error) {
	lang, ok := LookupLanguage(language)
	if !ok {
		return r, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fields := []struct {
		name string
		text *string
	}{
		{"consensus", &r.Consensus},
		{"diagnoses", &r.Diagnoses},
		{"treatments", &r.Treatments},
		{"research_findings", &r.ResearchFindings},
	}
	failed := make([]bool, len(fields))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range fields {
		i, f := i, f
		source := *f.text
		g.Go(func() error {
			out, err := TranslateText(gctx, tr, source, lang.Name)
			if err != nil {
				failed[i] = true
				logger.Warn("translation failed", zap.String("field", f.name), zap.String("language", lang.Code), zap.Error(err))
			}
			*f.text = out
			return nil
		})
	}
	_ = g.Wait()

	info := &TranslationInfo{TargetLanguage: lang.Name, TranslatedAt: now}
	for i, f := range fields {
		if failed[i] {
			info.Failed = append(info.Failed, f.name)
		}
	}
	r.Translation = info
	return r, nil
}
