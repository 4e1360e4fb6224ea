package genui

import (
	"fmt"
	"strings"
)

// Limits applied when building cards from provider output.
const (
	MaxTasks    = 8
	MaxTaskTags = 3
)

// WeatherKind buckets a free-text condition for styling.
type WeatherKind string

const (
	WeatherRain    WeatherKind = "rain"
	WeatherCloud   WeatherKind = "cloud"
	WeatherClear   WeatherKind = "clear"
	WeatherSnow    WeatherKind = "snow"
	WeatherDefault WeatherKind = "default"
)

// WeatherStyle is the visual treatment for a condition bucket.
type WeatherStyle struct {
	Kind     WeatherKind
	Icon     string
	Gradient string
}

// weatherStyles is checked in order; the first matching keyword wins.
var weatherStyles = []struct {
	keywords []string
	style    WeatherStyle
}{
	{[]string{"rain", "drizzle", "shower"}, WeatherStyle{WeatherRain, "🌧️", "linear-gradient(135deg, #636e72 0%, #2d3436 100%)"}},
	{[]string{"cloud", "overcast"}, WeatherStyle{WeatherCloud, "⛅", "linear-gradient(135deg, #74b9ff 0%, #0984e3 100%)"}},
	{[]string{"sun", "clear"}, WeatherStyle{WeatherClear, "☀️", "linear-gradient(135deg, #fdcb6e 0%, #e17055 100%)"}},
	{[]string{"snow", "sleet", "blizzard"}, WeatherStyle{WeatherSnow, "❄️", "linear-gradient(135deg, #ddd6fe 0%, #a78bfa 100%)"}},
}

var defaultWeatherStyle = WeatherStyle{WeatherDefault, "🌤️", "linear-gradient(135deg, #fd79a8 0%, #fdcb6e 100%)"}

// StyleForCondition maps a provider condition text to icon and gradient.
func StyleForCondition(condition string) WeatherStyle {
	lower := strings.ToLower(condition)
	for _, candidate := range weatherStyles {
		for _, kw := range candidate.keywords {
			if strings.Contains(lower, kw) {
				return candidate.style
			}
		}
	}
	return defaultWeatherStyle
}

// WeatherReading is the raw data a weather card is built from.
type WeatherReading struct {
	City         string
	TemperatureF float64
	Condition    string
	Humidity     int
	WindMPH      float64
	Description  string
}

// NewWeatherPayload builds a weather card with °F, % and mph formatting.
func NewWeatherPayload(r WeatherReading) *Payload {
	style := StyleForCondition(r.Condition)
	return &Payload{
		Tag: TagWeather,
		ID:  generateID(),
		Weather: &WeatherCard{
			City:        r.City,
			Temperature: fmt.Sprintf("%s°F", formatNumber(r.TemperatureF)),
			Condition:   r.Condition,
			Humidity:    fmt.Sprintf("%d%%", r.Humidity),
			WindSpeed:   fmt.Sprintf("%s mph", formatNumber(r.WindMPH)),
			Icon:        style.Icon,
			Gradient:    style.Gradient,
			Description: r.Description,
		},
	}
}

// NewTodoPayload builds a checklist. Blank items are dropped, the list is capped at MaxTasks,
// ids are todo_1..todo_N in order and every task starts incomplete.
// The task slice is never nil so an empty plan serializes as [].
func NewTodoPayload(title string, items []string) *Payload {
	tasks := make([]TodoTask, 0, min(len(items), MaxTasks))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if len(tasks) == MaxTasks {
			break
		}
		tasks = append(tasks, TodoTask{
			ID:   fmt.Sprintf("todo_%d", len(tasks)+1),
			Text: item,
		})
	}

	return &Payload{
		Tag:  TagTodo,
		ID:   generateID(),
		Todo: &TodoCard{Title: strings.TrimSpace(title), Tasks: tasks},
	}
}

// VideoTaskInput is an unnormalized editing step.
type VideoTaskInput struct {
	Title  string
	Detail string
	Tags   []string
}

// NewVideoEditingPayload builds the two-list editing plan.
// Subtraction ids are sub_N, addition ids add_N.
func NewVideoEditingPayload(title string, subtraction, addition []VideoTaskInput) *Payload {
	return &Payload{
		Tag: TagVideoEditing,
		ID:  generateID(),
		VideoEditing: &VideoEditingCard{
			Title:            strings.TrimSpace(title),
			SubtractionTasks: normalizeVideoTasks(subtraction, KindSubtraction, "sub"),
			AdditionTasks:    normalizeVideoTasks(addition, KindAddition, "add"),
		},
	}
}

func normalizeVideoTasks(inputs []VideoTaskInput, kind TaskKind, prefix string) []VideoTask {
	tasks := make([]VideoTask, 0, min(len(inputs), MaxTasks))
	for _, in := range inputs {
		taskTitle := strings.TrimSpace(in.Title)
		if taskTitle == "" {
			continue
		}
		if len(tasks) == MaxTasks {
			break
		}
		tasks = append(tasks, VideoTask{
			ID:     fmt.Sprintf("%s_%d", prefix, len(tasks)+1),
			Kind:   kind,
			Title:  taskTitle,
			Detail: strings.TrimSpace(in.Detail),
			Tags:   normalizeTags(in.Tags),
		})
	}
	return tasks
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, min(len(tags), MaxTaskTags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if len(out) == MaxTaskTags {
			break
		}
		out = append(out, tag)
	}
	return out
}

// formatNumber prints whole numbers without a decimal point.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
