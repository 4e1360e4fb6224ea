package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aierrors "github.com/hrygo/genuirouter/internal/errors"
	"github.com/hrygo/genuirouter/plugin/ai/genui"
	"github.com/hrygo/genuirouter/plugin/ai/i18n"
	"github.com/hrygo/genuirouter/plugin/ai/router"
)

const videoPlanResponse = `{
  "title": "旅行Vlog剪辑",
  "subtractionTasks": [
    "删除抖动的镜头",
    {"title": "剪掉冗长的开场", "detail": "保留前5秒", "tags": ["节奏", "开场", "精简", "多余"]}
  ],
  "additionTasks": [
    {"title": "添加背景音乐", "tags": ["音频"]},
    {"text": "添加字幕", "description": "中英双语"},
    "调色"
  ]
}`

func TestVideoEditingHandler_Plan(t *testing.T) {
	h := NewVideoEditingHandler(Deps{Completion: staticCompletion(videoPlanResponse)})

	msg := router.NewMessage("帮我剪辑旅行视频")
	locale := i18n.Detect(msg.Text)
	result := h.Process(context.Background(), msg, locale)

	require.NotNil(t, result.Payload)
	require.NoError(t, result.Payload.Validate())
	assert.Equal(t, genui.TagVideoEditing, result.Payload.Tag)
	assert.False(t, result.Degraded)

	card := result.Payload.VideoEditing
	assert.Equal(t, "旅行Vlog剪辑", card.Title)
	require.Len(t, card.SubtractionTasks, 2)
	require.Len(t, card.AdditionTasks, 3)

	for _, task := range card.SubtractionTasks {
		assert.Equal(t, genui.KindSubtraction, task.Kind)
		assert.False(t, task.Completed)
	}
	for _, task := range card.AdditionTasks {
		assert.Equal(t, genui.KindAddition, task.Kind)
		assert.False(t, task.Completed)
	}
	assert.Equal(t, []string{"sub_1", "sub_2"}, []string{card.SubtractionTasks[0].ID, card.SubtractionTasks[1].ID})
	assert.Equal(t, "add_3", card.AdditionTasks[2].ID)
	assert.Equal(t, "保留前5秒", card.SubtractionTasks[1].Detail)
	assert.Len(t, card.SubtractionTasks[1].Tags, genui.MaxTaskTags)
	assert.Equal(t, "中英双语", card.AdditionTasks[1].Detail)

	assert.Equal(t, i18n.LocaleZH, locale)
	assert.Equal(t, i18n.Format(i18n.LocaleZH, i18n.KeyVideoSuccess,
		"title", "旅行Vlog剪辑",
		"removal_count", "2",
		"addition_count", "3",
		"total_count", "5"), result.Text)
}

func TestVideoEditingHandler_LocaleFollowsRequest(t *testing.T) {
	h := NewVideoEditingHandler(Deps{Completion: staticCompletion(`{"title":"Trip","subtractionTasks":["a"],"additionTasks":["b"]}`)})

	for _, locale := range i18n.Locales {
		result := h.Process(context.Background(), router.NewMessage("edit my video"), locale)
		assert.Equal(t, i18n.Format(locale, i18n.KeyVideoSuccess,
			"title", "Trip", "removal_count", "1", "addition_count", "1", "total_count", "2"), result.Text)
	}
}

func TestVideoEditingHandler_EmptyPlan(t *testing.T) {
	for _, response := range []string{`{"title":"Trip","subtractionTasks":[],"additionTasks":[]}`, "not json"} {
		t.Run(response, func(t *testing.T) {
			h := NewVideoEditingHandler(Deps{Completion: staticCompletion(response)})

			result := h.Process(context.Background(), router.NewMessage("edit my video"), i18n.LocaleEN)
			require.NotNil(t, result.Payload)
			card := result.Payload.VideoEditing
			assert.NotNil(t, card.SubtractionTasks)
			assert.NotNil(t, card.AdditionTasks)
			assert.Empty(t, card.SubtractionTasks)
			assert.Empty(t, card.AdditionTasks)
			assert.True(t, result.Degraded)
			assert.Equal(t, aierrors.ErrCodeExtractionFailure, result.ErrorCode)
		})
	}
}

func TestVideoEditingHandler_ProviderFailure(t *testing.T) {
	h := NewVideoEditingHandler(Deps{Completion: failingCompletion(aierrors.ProviderUnavailable("completion", errors.New("502")))})

	result := h.Process(context.Background(), router.NewMessage("動画を編集して"), i18n.LocaleJA)
	require.NotNil(t, result.Payload)
	assert.Empty(t, result.Payload.VideoEditing.SubtractionTasks)
	assert.Empty(t, result.Payload.VideoEditing.AdditionTasks)
	assert.True(t, result.Degraded)
	assert.Equal(t, aierrors.ErrCodeProviderUnavailable, result.ErrorCode)
	assert.Contains(t, result.Text, "利用できない")
}

func TestVideoEditingHandler_Idempotent(t *testing.T) {
	h := NewVideoEditingHandler(Deps{Completion: staticCompletion(videoPlanResponse)})
	msg := router.NewMessage("剪辑视频")

	first := h.Process(context.Background(), msg, i18n.LocaleZH)
	second := h.Process(context.Background(), msg, i18n.LocaleZH)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Payload.VideoEditing, second.Payload.VideoEditing)
	assert.NotEqual(t, first.Payload.ID, second.Payload.ID)
}

func TestVideoEditingHandler_MarkdownPlan(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		title       string
		subtraction []string
		addition    []string
	}{
		{
			name: "headings",
			response: `# Beach Trip Edit

## Subtraction tasks
- Remove shaky clips
- **Trim intro**: keep the first 5 seconds
  - nested detail is ignored

## Addition tasks
1. Add background music
2. Insert subtitles - bilingual
`,
			title:       "Beach Trip Edit",
			subtraction: []string{"Remove shaky clips", "Trim intro"},
			addition:    []string{"Add background music", "Insert subtitles"},
		},
		{
			name:        "label lines",
			response:    "Title: 旅行Vlog\n\n删减任务：\n- 删除抖动镜头\n\n添加任务：\n- 添加背景音乐\n- 调色\n",
			title:       "旅行Vlog",
			subtraction: []string{"删除抖动镜头"},
			addition:    []string{"添加背景音乐", "调色"},
		},
		{
			name:     "list outside sections is ignored",
			response: "Here you go:\n\n- something\n\n### Additions\n- Add a title card\n",
			addition: []string{"Add a title card"},
		},
	}

	titles := func(tasks []genui.VideoTask) []string {
		var out []string
		for _, task := range tasks {
			out = append(out, task.Title)
		}
		return out
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewVideoEditingHandler(Deps{Completion: staticCompletion(tt.response)})

			result := h.Process(context.Background(), router.NewMessage("edit my trip video"), i18n.LocaleEN)
			require.NotNil(t, result.Payload)
			assert.False(t, result.Degraded)

			card := result.Payload.VideoEditing
			if tt.title != "" {
				assert.Equal(t, tt.title, card.Title)
			}
			assert.Equal(t, tt.subtraction, titles(card.SubtractionTasks))
			assert.Equal(t, tt.addition, titles(card.AdditionTasks))
		})
	}
}

func TestVideoEditingHandler_MarkdownTaskDetail(t *testing.T) {
	response := "## Cut\n- Trim intro: keep the first 5 seconds\n\n## Add\n- Subtitles\n"
	h := NewVideoEditingHandler(Deps{Completion: staticCompletion(response)})

	result := h.Process(context.Background(), router.NewMessage("edit my video"), i18n.LocaleEN)
	require.NotNil(t, result.Payload)
	card := result.Payload.VideoEditing
	require.Len(t, card.SubtractionTasks, 1)
	assert.Equal(t, "Trim intro", card.SubtractionTasks[0].Title)
	assert.Equal(t, "keep the first 5 seconds", card.SubtractionTasks[0].Detail)
	assert.Equal(t, genui.KindSubtraction, card.SubtractionTasks[0].Kind)
	assert.Equal(t, "add_1", card.AdditionTasks[0].ID)
}
