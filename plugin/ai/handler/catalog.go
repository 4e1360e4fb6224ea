package handler

import (
	"fmt"

	aierrors "github.com/hrygo/genuirouter/internal/errors"
	"github.com/hrygo/genuirouter/plugin/ai/router"
)

// Factory constructs a handler from the shared dependencies.
type Factory func(deps Deps) (Handler, error)

// Entry is one row of the capability catalog.
type Entry struct {
	Key         router.Intent
	Description string
	Triggers    []string
	Factory     Factory
}

// DefaultCatalog returns the built-in capabilities.
// Adding a capability means adding an entry here; the router and registry need no change.
func DefaultCatalog() []Entry {
	return []Entry{
		{
			Key:         router.IntentWeather,
			Description: "current weather conditions (temperature, sky, humidity, wind) for a city",
			Triggers: []string{
				"weather", "forecast", "temperature", "raining", "snowing", "sunny", "humid",
				"天气", "气温", "下雨", "天気", "気温",
			},
			Factory: func(deps Deps) (Handler, error) { return NewWeatherHandler(deps), nil },
		},
		{
			Key:         router.IntentTodo,
			Description: "break a goal or event into an actionable checklist of tasks",
			Triggers: []string{
				"todo", "to-do", "checklist", "plan", "task", "organize", "prepare",
				"待办", "计划", "清单", "任务", "やること", "タスク", "予定",
			},
			Factory: func(deps Deps) (Handler, error) { return NewTodoHandler(deps), nil },
		},
		{
			Key:         router.IntentVideoEditing,
			Description: "plan edits for a video: what to cut or remove and what to add or enhance",
			Triggers: []string{
				"video", "edit", "footage", "clip", "vlog", "montage", "trim",
				"剪辑", "视频", "短片", "動画", "ビデオ", "編集",
			},
			Factory: func(deps Deps) (Handler, error) { return NewVideoEditingHandler(deps), nil },
		},
	}
}

// Rules derives the router's trigger vocabulary from catalog entries.
func Rules(entries []Entry) []router.Rule {
	rules := make([]router.Rule, 0, len(entries))
	for _, e := range entries {
		rules = append(rules, router.Rule{
			Intent:      e.Key,
			Description: e.Description,
			Triggers:    e.Triggers,
		})
	}
	return rules
}

// BuildFromCatalog instantiates every entry and registers it.
func BuildFromCatalog(entries []Entry, deps Deps) (*Registry, error) {
	b := NewBuilder()
	for _, e := range entries {
		if e.Factory == nil {
			return nil, aierrors.Configuration(fmt.Sprintf("catalog entry %q has no factory", e.Key))
		}
		h, err := e.Factory(deps)
		if err != nil {
			return nil, aierrors.Wrap(err, aierrors.ErrCodeConfiguration, fmt.Sprintf("build handler %q", e.Key))
		}
		if err := b.Register(e.Key, h); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
