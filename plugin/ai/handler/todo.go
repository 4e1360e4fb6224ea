package handler

import (
	"bytes"
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

// TodoHandler decomposes a goal into a checklist through the completion provider.
type TodoHandler struct {
	completion ai.CompletionService
	timeout    time.Duration
	markdown   goldmark.Markdown
}

// NewTodoHandler creates a TodoHandler.
func NewTodoHandler(deps Deps) *TodoHandler {
	return &TodoHandler{
		completion: deps.Completion,
		timeout:    timeout.OrDefault(deps.CompletionTimeout, timeout.CompletionTimeout),
		markdown:   goldmark.New(),
	}
}

const todoSystemPrompt = `You are a helpful task planning assistant. Based on the user's request, create a concise and actionable plan.

Provide:
1. A clear, concise title for this plan (max 6 words)
2. 3-5 high-level, actionable tasks

Keep tasks at a high level, not detailed sub-steps. Each task should be a meaningful milestone.
Respond with JSON {"title": "...", "tasks": ["...", "..."]}.
IMPORTANT: You must respond in exactly the same language as the user's request.`

var todoSchema = &ai.JSONSchema{
	Type: "object",
	Properties: map[string]*ai.JSONSchema{
		"title": {Type: "string"},
		"tasks": {Type: "array", Items: &ai.JSONSchema{Type: "string"}},
	},
	Required: []string{"title", "tasks"},
}

// Process implements Handler.
func (h *TodoHandler) Process(ctx context.Context, msg router.Message, locale i18n.Locale) *Result {
	fallbackTitle := DeriveTitle(msg.Text)

	if h.completion == nil {
		return degraded(i18n.Format(locale, i18n.KeyTodoUnavailable, "title", fallbackTitle),
			genui.NewTodoPayload(fallbackTitle, nil),
			aierrors.ProviderUnavailable("completion", errors.New("completion provider not configured")))
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	response, err := h.completion.Complete(ctx, msg.Text, ai.CompletionOptions{
		System:     todoSystemPrompt,
		Schema:     todoSchema,
		SchemaName: "todo_plan",
	})
	if err != nil {
		slog.Warn("todo planning failed", "error", err)
		return degraded(i18n.Format(locale, i18n.KeyTodoUnavailable, "title", fallbackTitle),
			genui.NewTodoPayload(fallbackTitle, nil), err)
	}

	title, tasks := h.parsePlan(response)
	if title == "" {
		title = fallbackTitle
	}

	payload := genui.NewTodoPayload(title, tasks)
	if len(payload.Todo.Tasks) == 0 {
		return degraded(i18n.Format(locale, i18n.KeyTodoEmpty, "title", title), payload,
			aierrors.ExtractionFailure("no tasks in provider response", nil))
	}

	text := i18n.Format(locale, i18n.KeyTodoSuccess,
		"title", title,
		"count", fmt.Sprint(len(payload.Todo.Tasks)))
	return success(text, payload)
}

// parsePlan accepts {"title", "tasks"}, a bare JSON array of strings, or a
// markdown reply with a "Title:" line and a bullet list.
func (h *TodoHandler) parsePlan(response string) (string, []string) {
	body := ai.StripCodeFence(response)

	switch {
	case strings.HasPrefix(body, "{"):
		var plan struct {
			Title string            `json:"title"`
			Tasks []json.RawMessage `json:"tasks"`
		}
		if err := json.Unmarshal([]byte(body), &plan); err == nil {
			return strings.TrimSpace(plan.Title), decodeTaskTitles(plan.Tasks)
		}
	case strings.HasPrefix(body, "["):
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(body), &items); err == nil {
			return "", decodeTaskTitles(items)
		}
	}

	return h.parseMarkdownPlan([]byte(body))
}

// parseMarkdownPlan reads the top-level list items of a markdown document.
// Nested items are treated as detail of their parent and skipped.
func (h *TodoHandler) parseMarkdownPlan(source []byte) (string, []string) {
	doc := h.markdown.Parser().Parse(text.NewReader(source))

	var title string
	var tasks []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.ListItem:
			if item := firstBlockText(node, source); item != "" {
				tasks = append(tasks, item)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			if title == "" {
				title = blockText(node, source)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			for _, line := range strings.Split(blockText(node, source), "\n") {
				if rest, ok := cutPrefixFold(strings.TrimSpace(line), "title:"); ok && title == "" {
					title = strings.TrimSpace(rest)
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return title, tasks
}

func firstBlockText(item *ast.ListItem, source []byte) string {
	for child := item.FirstChild(); child != nil; child = child.NextSibling() {
		if child.Type() == ast.TypeBlock && child.Lines().Len() > 0 {
			return blockText(child, source)
		}
	}
	return ""
}

func blockText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return strings.TrimSpace(buf.String())
}

// decodeTaskTitles accepts task entries that are strings or objects with a title.
func decodeTaskTitles(items []json.RawMessage) []string {
	out := make([]string, 0, len(items))
	for _, raw := range items {
		if task, ok := decodeTask(raw); ok {
			out = append(out, task.Title)
		}
	}
	return out
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// DeriveTitle builds a short title from the request: at most 6 words and 24 runes.
func DeriveTitle(request string) string {
	const maxWords, maxRunes = 6, 24

	words := strings.Fields(request)
	if len(words) > maxWords {
		words = words[:maxWords]
	}

	var title []rune
	for _, w := range words {
		candidate := []rune(w)
		if len(title) > 0 {
			candidate = append([]rune{' '}, candidate...)
		}
		if len(title)+len(candidate) > maxRunes {
			if len(title) == 0 {
				title = candidate[:maxRunes]
			}
			break
		}
		title = append(title, candidate...)
	}
	return strings.TrimSpace(string(title))
}
