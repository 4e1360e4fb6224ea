package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	aierrors "github.com/hrygo/genuirouter/internal/errors"
	"github.com/hrygo/genuirouter/plugin/ai"
	"github.com/hrygo/genuirouter/plugin/ai/genui"
	"github.com/hrygo/genuirouter/plugin/ai/i18n"
	"github.com/hrygo/genuirouter/plugin/ai/router"
	"github.com/hrygo/genuirouter/plugin/ai/timeout"
)

// VideoEditingHandler plans a video edit as removals and additions.
type VideoEditingHandler struct {
	completion ai.CompletionService
	timeout    time.Duration
	markdown   goldmark.Markdown
}

// NewVideoEditingHandler creates a VideoEditingHandler.
func NewVideoEditingHandler(deps Deps) *VideoEditingHandler {
	return &VideoEditingHandler{
		completion: deps.Completion,
		timeout:    timeout.OrDefault(deps.CompletionTimeout, timeout.CompletionTimeout),
		markdown:   goldmark.New(),
	}
}

const videoEditingSystemPrompt = `You are a professional video editing assistant. Based on the user's video editing request, create an editing plan with two categories of tasks:

1. SUBTRACTION tasks (things to remove, cut, or reduce)
2. ADDITION tasks (things to add, enhance, or create)

Requirements:
- A clear, concise title for the project (max 8 words)
- 2-4 subtraction tasks and 2-4 addition tasks
- Each task specific and actionable, with an optional one-sentence detail and up to 3 short tags
- Use the same language as the user's request for all text content

Respond with JSON only:
{"title": "...", "subtractionTasks": [{"title": "...", "detail": "...", "tags": ["..."]}], "additionTasks": [...]}`

var videoTaskSchema = &ai.JSONSchema{
	Type: "object",
	Properties: map[string]*ai.JSONSchema{
		"title":  {Type: "string"},
		"detail": {Type: "string"},
		"tags":   {Type: "array", Items: &ai.JSONSchema{Type: "string"}},
	},
	Required: []string{"title", "detail", "tags"},
}

var videoEditingSchema = &ai.JSONSchema{
	Type: "object",
	Properties: map[string]*ai.JSONSchema{
		"title":            {Type: "string"},
		"subtractionTasks": {Type: "array", Items: videoTaskSchema},
		"additionTasks":    {Type: "array", Items: videoTaskSchema},
	},
	Required: []string{"title", "subtractionTasks", "additionTasks"},
}

// Process implements Handler.
func (h *VideoEditingHandler) Process(ctx context.Context, msg router.Message, locale i18n.Locale) *Result {
	fallbackTitle := DeriveTitle(msg.Text)

	if h.completion == nil {
		return degraded(i18n.Format(locale, i18n.KeyVideoUnavailable, "title", fallbackTitle),
			genui.NewVideoEditingPayload(fallbackTitle, nil, nil),
			aierrors.ProviderUnavailable("completion", errors.New("completion provider not configured")))
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	response, err := h.completion.Complete(ctx, msg.Text, ai.CompletionOptions{
		System:     videoEditingSystemPrompt,
		Schema:     videoEditingSchema,
		SchemaName: "video_editing_plan",
	})
	if err != nil {
		slog.Warn("video editing planning failed", "error", err)
		return degraded(i18n.Format(locale, i18n.KeyVideoUnavailable, "title", fallbackTitle),
			genui.NewVideoEditingPayload(fallbackTitle, nil, nil), err)
	}

	plan := h.parsePlan(response)
	title := plan.title
	if title == "" {
		title = fallbackTitle
	}

	payload := genui.NewVideoEditingPayload(title, plan.subtraction, plan.addition)
	card := payload.VideoEditing
	removals, additions := len(card.SubtractionTasks), len(card.AdditionTasks)
	if removals+additions == 0 {
		return degraded(i18n.Format(locale, i18n.KeyVideoEmpty, "title", title), payload,
			aierrors.ExtractionFailure("no editing tasks in provider response", nil))
	}

	text := i18n.Format(locale, i18n.KeyVideoSuccess,
		"title", title,
		"removal_count", fmt.Sprint(removals),
		"addition_count", fmt.Sprint(additions),
		"total_count", fmt.Sprint(removals+additions))
	return success(text, payload)
}

type videoPlan struct {
	title       string
	subtraction []genui.VideoTaskInput
	addition    []genui.VideoTaskInput
}

// parsePlan accepts the JSON plan, or a markdown reply whose lists sit under
// subtraction and addition headings.
func (h *VideoEditingHandler) parsePlan(response string) videoPlan {
	body := ai.StripCodeFence(response)
	if strings.HasPrefix(body, "{") {
		plan, err := parseVideoPlanJSON(body)
		if err == nil {
			return plan
		}
		slog.Debug("unparseable video editing plan", "error", err)
	}
	return h.parseMarkdownPlan([]byte(body))
}

func parseVideoPlanJSON(body string) (videoPlan, error) {
	var raw struct {
		Title            string            `json:"title"`
		SubtractionTasks []json.RawMessage `json:"subtractionTasks"`
		AdditionTasks    []json.RawMessage `json:"additionTasks"`
	}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return videoPlan{}, err
	}

	plan := videoPlan{title: strings.TrimSpace(raw.Title)}
	for _, item := range raw.SubtractionTasks {
		if task, ok := decodeTask(item); ok {
			plan.subtraction = append(plan.subtraction, task)
		}
	}
	for _, item := range raw.AdditionTasks {
		if task, ok := decodeTask(item); ok {
			plan.addition = append(plan.addition, task)
		}
	}
	return plan, nil
}

// Section markers, matched case-insensitively as substrings of a heading or label line.
var (
	subtractionMarkers = []string{"subtraction", "remove", "removal", "cut", "删减", "删除", "减法", "削除", "カット"}
	additionMarkers    = []string{"addition", "add", "enhance", "添加", "增加", "加法", "追加"}
)

type videoSection int

const (
	sectionNone videoSection = iota
	sectionSubtraction
	sectionAddition
)

// parseMarkdownPlan reads list items under subtraction and addition headings
// (or "Subtraction tasks:" label lines). Items outside a section are ignored.
func (h *VideoEditingHandler) parseMarkdownPlan(source []byte) videoPlan {
	doc := h.markdown.Parser().Parse(text.NewReader(source))

	var plan videoPlan
	section := sectionNone
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			heading := blockText(node, source)
			if s := sectionOf(heading); s != sectionNone {
				section = s
			} else if plan.title == "" {
				plan.title = heading
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			for _, line := range strings.Split(blockText(node, source), "\n") {
				line = strings.TrimSpace(line)
				if rest, ok := cutPrefixFold(line, "title:"); ok {
					if plan.title == "" {
						plan.title = strings.TrimSpace(rest)
					}
					continue
				}
				if strings.HasSuffix(line, ":") || strings.HasSuffix(line, "：") {
					if s := sectionOf(line); s != sectionNone {
						section = s
					}
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			task, ok := markdownTask(firstBlockText(node, source))
			if !ok {
				return ast.WalkSkipChildren, nil
			}
			switch section {
			case sectionSubtraction:
				plan.subtraction = append(plan.subtraction, task)
			case sectionAddition:
				plan.addition = append(plan.addition, task)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return plan
}

func sectionOf(line string) videoSection {
	lower := strings.ToLower(line)
	for _, m := range subtractionMarkers {
		if strings.Contains(lower, m) {
			return sectionSubtraction
		}
	}
	for _, m := range additionMarkers {
		if strings.Contains(lower, m) {
			return sectionAddition
		}
	}
	return sectionNone
}

// markdownTask splits "Title: detail" or "Title - detail" list text.
func markdownTask(item string) (genui.VideoTaskInput, bool) {
	item = strings.Trim(strings.TrimSpace(item), "*_")
	if item == "" {
		return genui.VideoTaskInput{}, false
	}
	for _, sep := range []string{" - ", ": ", "：", " — "} {
		if title, detail, ok := strings.Cut(item, sep); ok && strings.TrimSpace(title) != "" {
			return genui.VideoTaskInput{
				Title:  strings.Trim(strings.TrimSpace(title), "*_"),
				Detail: strings.TrimSpace(detail),
			}, true
		}
	}
	return genui.VideoTaskInput{Title: item}, true
}

// decodeTask accepts a bare string or an object with title (or text), detail
// (or description) and tags.
func decodeTask(raw json.RawMessage) (genui.VideoTaskInput, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return genui.VideoTaskInput{Title: s}, s != ""
	}

	var obj struct {
		Title       string   `json:"title"`
		Text        string   `json:"text"`
		Detail      string   `json:"detail"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return genui.VideoTaskInput{}, false
	}
	task := genui.VideoTaskInput{
		Title:  strings.TrimSpace(firstNonEmpty(obj.Title, obj.Text)),
		Detail: strings.TrimSpace(firstNonEmpty(obj.Detail, obj.Description)),
		Tags:   obj.Tags,
	}
	return task, task.Title != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
