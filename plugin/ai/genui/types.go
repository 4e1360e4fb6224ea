// Package genui provides the structured UI payloads returned alongside a text reply.
package genui

import (
	"fmt"

	"github.com/lithammer/shortuuid/v4"
)

// Tag identifies the payload variant. It always equals the producing intent key.
type Tag string

const (
	TagWeather      Tag = "weather"
	TagTodo         Tag = "todo"
	TagVideoEditing Tag = "video_editing"
)

// Payload is a tagged union; exactly one variant matching Tag is set.
type Payload struct {
	Tag          Tag               `json:"tag"`
	ID           string            `json:"id"`
	Weather      *WeatherCard      `json:"weather,omitempty"`
	Todo         *TodoCard         `json:"todo,omitempty"`
	VideoEditing *VideoEditingCard `json:"videoEditing,omitempty"`
}

// WeatherCard renders current conditions for one place.
type WeatherCard struct {
	City        string `json:"city"`
	Temperature string `json:"temperature"` // 72°F
	Condition   string `json:"condition"`
	Humidity    string `json:"humidity"`  // 65%
	WindSpeed   string `json:"windSpeed"` // 8 mph
	Icon        string `json:"icon"`
	Gradient    string `json:"gradient"` // CSS background
	Description string `json:"description"`
}

// TodoCard is a flat checklist.
type TodoCard struct {
	Title string     `json:"title"`
	Tasks []TodoTask `json:"tasks"`
}

// TodoTask is one checklist item.
type TodoTask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// TaskKind separates the two video editing lists.
type TaskKind string

const (
	KindSubtraction TaskKind = "subtraction"
	KindAddition    TaskKind = "addition"
)

// VideoEditingCard splits an editing plan into removals and additions.
type VideoEditingCard struct {
	Title            string      `json:"title"`
	SubtractionTasks []VideoTask `json:"subtractionTasks"`
	AdditionTasks    []VideoTask `json:"additionTasks"`
}

// VideoTask is one editing step.
type VideoTask struct {
	ID        string   `json:"id"`
	Kind      TaskKind `json:"kind"`
	Title     string   `json:"title"`
	Detail    string   `json:"detail,omitempty"`
	Tags      []string `json:"tags"`
	Completed bool     `json:"completed"`
}

// Validate checks the tagged-union invariant.
func (p *Payload) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("payload %q has no id", p.Tag)
	}

	set := 0
	for _, present := range []bool{p.Weather != nil, p.Todo != nil, p.VideoEditing != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("payload %q must carry exactly one variant, got %d", p.Tag, set)
	}

	switch p.Tag {
	case TagWeather:
		if p.Weather == nil {
			return fmt.Errorf("payload tagged %q carries another variant", p.Tag)
		}
	case TagTodo:
		if p.Todo == nil {
			return fmt.Errorf("payload tagged %q carries another variant", p.Tag)
		}
	case TagVideoEditing:
		if p.VideoEditing == nil {
			return fmt.Errorf("payload tagged %q carries another variant", p.Tag)
		}
	default:
		return fmt.Errorf("unknown payload tag %q", p.Tag)
	}
	return nil
}

// generateID creates a unique card ID.
func generateID() string {
	return shortuuid.New()
}
