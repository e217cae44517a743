package cli

import (
	"github.com/fatih/color"

	"position-engine/internal/config"
	"position-engine/internal/models"
)

// Tone marks an indicator cell for terminal emphasis.
type Tone int

const (
	ToneNone Tone = iota
	ToneRed
	ToneGreen
	ToneBlue
	ToneYellow
)

func (t Tone) attribute() (color.Attribute, bool) {
	switch t {
	case ToneRed:
		return color.FgRed, true
	case ToneGreen:
		return color.FgGreen, true
	case ToneBlue:
		return color.FgBlue, true
	case ToneYellow:
		return color.FgYellow, true
	default:
		return 0, false
	}
}

// Highlighter decides which indicator cells of a row are emphasised. The
// thresholds are the strategy trigger thresholds.
type Highlighter struct {
	pcr config.PCRBBIConfig
	amp config.AmplitudeConfig
	acc config.AccumulationConfig
}

// NewHighlighter creates a highlighter from the strategy configuration.
func NewHighlighter(cfg *config.Config) Highlighter {
	return Highlighter{pcr: cfg.PCRBBI, amp: cfg.Amplitude, acc: cfg.Accumulation}
}

// Tones returns the tone of every emphasised indicator in row, keyed by
// indicator name.
func (h Highlighter) Tones(row models.TradingRow) map[string]Tone {
	tones := make(map[string]Tone)

	pct := row.Value(models.IndicatorPCRPercentile)
	ratio := row.Value(models.IndicatorPCR)
	switch {
	case pct > h.pcr.SellPercentileAbove && ratio > h.pcr.SellRatioAbove:
		tones[models.IndicatorPCRPercentile] = ToneRed
		tones[models.IndicatorPCR] = ToneRed
	case pct < h.pcr.BuyPercentileBelow:
		tones[models.IndicatorPCRPercentile] = ToneGreen
	}

	if row.Value(models.IndicatorAccumulation) > h.acc.ScoreAbove {
		tones[models.IndicatorAccumulation] = ToneBlue
	}

	if row.Value(models.IndicatorAmplitude) > h.amp.AmplitudeAbove && row.Value(models.IndicatorChange) < h.amp.ChangeBelow {
		tones[models.IndicatorAmplitude] = ToneYellow
		tones[models.IndicatorChange] = ToneYellow
	}

	return tones
}

// Cell renders text in the tone's colour.
func (o *Output) Cell(text string, tone Tone) string {
	attr, ok := tone.attribute()
	if !ok {
		return text
	}
	return o.Colored(text, attr)
}
