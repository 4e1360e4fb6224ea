package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	aierrors "github.com/hrygo/genuirouter/internal/errors"
	"github.com/hrygo/genuirouter/plugin/ai"
	"github.com/hrygo/genuirouter/plugin/ai/genui"
	"github.com/hrygo/genuirouter/plugin/ai/i18n"
	"github.com/hrygo/genuirouter/plugin/ai/router"
	"github.com/hrygo/genuirouter/plugin/ai/timeout"
	"github.com/hrygo/genuirouter/plugin/weather"
)

// WeatherHandler reports current conditions for a place named in the message.
type WeatherHandler struct {
	weather           weather.Service
	completion        ai.CompletionService
	defaultCity       string
	weatherTimeout    time.Duration
	completionTimeout time.Duration
}

// NewWeatherHandler creates a WeatherHandler.
func NewWeatherHandler(deps Deps) *WeatherHandler {
	return &WeatherHandler{
		weather:           deps.Weather,
		completion:        deps.Completion,
		defaultCity:       strings.TrimSpace(deps.DefaultCity),
		weatherTimeout:    timeout.OrDefault(deps.WeatherTimeout, timeout.WeatherTimeout),
		completionTimeout: timeout.OrDefault(deps.CompletionTimeout, timeout.CompletionTimeout),
	}
}

var weatherDescriptions = map[genui.WeatherKind]i18n.Key{
	genui.WeatherRain:    i18n.KeyWeatherDescRain,
	genui.WeatherCloud:   i18n.KeyWeatherDescCloud,
	genui.WeatherClear:   i18n.KeyWeatherDescClear,
	genui.WeatherSnow:    i18n.KeyWeatherDescSnow,
	genui.WeatherDefault: i18n.KeyWeatherDescDefault,
}

// Process implements Handler.
func (h *WeatherHandler) Process(ctx context.Context, msg router.Message, locale i18n.Locale) *Result {
	city := h.extractCity(ctx, msg.Text)
	if city == "" {
		return degraded(i18n.T(locale, i18n.KeyWeatherNoCity), nil,
			aierrors.ExtractionFailure("no place in message", nil))
	}

	unavailable := i18n.Format(locale, i18n.KeyWeatherUnavailable, "city", city)
	if h.weather == nil {
		return degraded(unavailable, nil,
			aierrors.ProviderUnavailable("weather", errors.New("weather provider not configured")))
	}

	lookupCtx, cancel := context.WithTimeout(ctx, h.weatherTimeout)
	defer cancel()

	current, err := h.weather.Lookup(lookupCtx, city)
	if err != nil {
		slog.Warn("weather lookup failed", "city", city, "error", err)
		return degraded(unavailable, nil, err)
	}

	if current.Location != "" {
		city = current.Location
	}
	style := genui.StyleForCondition(current.Condition)
	description := i18n.T(locale, weatherDescriptions[style.Kind])

	payload := genui.NewWeatherPayload(genui.WeatherReading{
		City:         city,
		TemperatureF: current.TemperatureF,
		Condition:    current.Condition,
		Humidity:     current.Humidity,
		WindMPH:      current.WindMPH,
		Description:  description,
	})

	text := i18n.Format(locale, i18n.KeyWeatherSuccess,
		"city", city,
		"temperature", payload.Weather.Temperature,
		"condition", current.Condition,
		"description", description)
	return success(text, payload)
}

// extractCity tries lexical patterns, then the completion provider, then the default city.
func (h *WeatherHandler) extractCity(ctx context.Context, text string) string {
	if city := ExtractPlace(text); city != "" {
		return city
	}
	if h.completion != nil && strings.TrimSpace(text) != "" {
		city, err := h.extractCityWithLLM(ctx, text)
		if err != nil {
			slog.Debug("LLM place extraction failed", "error", err)
		} else if city != "" {
			return city
		}
	}
	return h.defaultCity
}

var citySchema = &ai.JSONSchema{
	Type: "object",
	Properties: map[string]*ai.JSONSchema{
		"city": {Type: "string", Description: "city name, empty when none is mentioned"},
	},
	Required: []string{"city"},
}

const cityExtractionPrompt = `Extract the city or place name the user wants the weather for.
Answer with JSON {"city": "<name>"}. Use an empty string when no place is mentioned. Do not guess.`

func (h *WeatherHandler) extractCityWithLLM(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.completionTimeout)
	defer cancel()

	response, err := h.completion.Complete(ctx, text, ai.CompletionOptions{
		System:      cityExtractionPrompt,
		MaxTokens:   32,
		Temperature: ai.Float32(0),
		Schema:      citySchema,
		SchemaName:  "city_extraction",
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal([]byte(ai.StripCodeFence(response)), &parsed); err != nil {
		return "", aierrors.ExtractionFailure("unparseable city response", err)
	}
	return strings.TrimSpace(parsed.City), nil
}

var (
	// "weather in Paris", "forecast for new york today"
	englishPlacePattern = regexp.MustCompile(`(?i)\b(?:in|for|at)\s+([\p{L}][\p{L}'. -]*)`)
	// "东京の天気", "ニューヨークの天気"
	japanesePlacePattern = regexp.MustCompile(`([\p{Han}\p{Katakana}ー]+?)の?天気`)
	// "北京的天气", "上海天气"
	chinesePlacePattern = regexp.MustCompile(`(\p{Han}+?)的?天气`)
)

var englishStopWords = map[string]bool{
	"today": true, "tomorrow": true, "tonight": true, "now": true, "right": true,
	"currently": true, "please": true, "this": true, "week": true, "weekend": true,
	"morning": true, "afternoon": true, "evening": true, "moment": true, "the": true,
	"like": true, "outside": true,
}

var englishPrepositions = map[string]bool{"in": true, "for": true, "at": true}

// A capture containing any of these is not a place: "for the weather", "at all", "for my trip".
var englishRejectWords = map[string]bool{
	"weather": true, "forecast": true, "temperature": true, "all": true,
	"a": true, "an": true, "the": true,
	"my": true, "your": true, "our": true, "their": true, "his": true, "her": true, "its": true,
}

var japaneseTimeWords = []string{"明後日", "今日", "明日", "今週", "週末", "今夜"}

var chineseTimeWords = []string{"今天", "明天", "后天", "现在", "目前", "今晚", "本周", "周末"}

var chinesePrefixes = []string{
	"帮我", "请问", "查询", "查一下", "查看", "看看", "告诉我", "我想知道", "查",
}

// ExtractPlace finds a place name with lexical patterns only. Returns "" when none matches
// or the capture does not look like a place, leaving the decision to the completion provider.
func ExtractPlace(text string) string {
	if m := japanesePlacePattern.FindStringSubmatch(text); m != nil {
		if place := trimAffixes(strings.TrimSpace(m[1]), nil, japaneseTimeWords); place != "" && place != "今" {
			return place
		}
	}
	if m := chinesePlacePattern.FindStringSubmatch(text); m != nil {
		if place := trimAffixes(m[1], chinesePrefixes, chineseTimeWords); place != "" {
			return place
		}
	}
	for _, m := range englishPlacePattern.FindAllStringSubmatch(text, -1) {
		if place := trimEnglishPlace(m[1]); place != "" {
			return place
		}
	}
	return ""
}

func trimEnglishPlace(raw string) string {
	words := strings.Fields(strings.Trim(raw, " .'-"))
	for len(words) > 0 {
		first := strings.ToLower(words[0])
		if first == "the" || (!englishStopWords[first] && !englishPrepositions[first]) {
			break
		}
		words = words[1:]
	}
	// Stop at the first time word: "Paris today please" -> "Paris".
	for i, w := range words {
		lower := strings.ToLower(strings.Trim(w, ".'-"))
		if lower != "the" && englishStopWords[lower] {
			words = words[:i]
			break
		}
	}
	if len(words) == 0 {
		return ""
	}

	hasCapital := false
	for _, w := range words {
		lower := strings.ToLower(strings.Trim(w, ".'-"))
		if englishRejectWords[lower] || strings.HasSuffix(lower, "'s") {
			return ""
		}
		if r := []rune(w)[0]; unicode.IsUpper(r) {
			hasCapital = true
		}
	}
	// Lowercase captures are accepted only when short: "san francisco", not "my trip to paris".
	if !hasCapital && len(words) > 2 {
		return ""
	}
	if len(words) > 4 {
		return ""
	}
	return strings.Trim(strings.Join(words, " "), " .'-")
}

// trimAffixes strips any of prefixes and words from the front, then words from the back.
func trimAffixes(raw string, prefixes, words []string) string {
	front := append(append([]string{}, prefixes...), words...)
	for trimmed := true; trimmed; {
		trimmed = false
		for _, p := range front {
			if p != "" && strings.HasPrefix(raw, p) {
				raw = strings.TrimPrefix(raw, p)
				trimmed = true
			}
		}
	}
	for trimmed := true; trimmed; {
		trimmed = false
		for _, w := range words {
			if strings.HasSuffix(raw, w) {
				raw = strings.TrimSuffix(raw, w)
				trimmed = true
			}
		}
	}
	return raw
}
