package i18n

import "strings"

// Key identifies an entry in the string tables.
type Key string

// Response templates.
const (
	KeyWeatherSuccess     Key = "weather.success"
	KeyWeatherUnavailable Key = "weather.unavailable"
	KeyWeatherNoCity      Key = "weather.no_city"
	KeyTodoSuccess        Key = "todo.success"
	KeyTodoEmpty          Key = "todo.empty"
	KeyTodoUnavailable    Key = "todo.unavailable"
	KeyVideoSuccess       Key = "video_editing.success"
	KeyVideoEmpty         Key = "video_editing.empty"
	KeyVideoUnavailable   Key = "video_editing.unavailable"
	KeyFallbackAck        Key = "fallback.ack"
)

// Weather descriptions.
const (
	KeyWeatherDescRain    Key = "weather.desc.rain"
	KeyWeatherDescCloud   Key = "weather.desc.cloud"
	KeyWeatherDescClear   Key = "weather.desc.clear"
	KeyWeatherDescSnow    Key = "weather.desc.snow"
	KeyWeatherDescDefault Key = "weather.desc.default"
)

// Card labels.
const (
	KeyLabelTemperature Key = "label.temperature"
	KeyLabelCondition   Key = "label.condition"
	KeyLabelHumidity    Key = "label.humidity"
	KeyLabelWind        Key = "label.wind"
	KeyLabelTasks       Key = "label.tasks"
	KeyLabelCompleted   Key = "label.completed"
	KeyLabelPending     Key = "label.pending"
	KeyLabelProgress    Key = "label.progress"
	KeyLabelSubtraction Key = "label.subtraction"
	KeyLabelAddition    Key = "label.addition"
)

// Table maps a key to its per-locale text.
type Table map[Key]map[Locale]string

// messages is static configuration; it is never mutated after init.
var messages = Table{
	KeyWeatherSuccess: {
		LocaleEN: "Here's the current weather for {city}: {temperature}, {condition}. {description}",
		LocaleZH: "这是{city}的当前天气：{temperature}，{condition}。{description}",
		LocaleJA: "{city}の現在の天気：{temperature}、{condition}。{description}",
	},
	KeyWeatherUnavailable: {
		LocaleEN: "Sorry, live weather data for {city} is unavailable right now. Please try again later.",
		LocaleZH: "抱歉，暂时无法获取{city}的实时天气数据，请稍后再试。",
		LocaleJA: "申し訳ありません。現在{city}のリアルタイム天気データを取得できません。しばらくしてから再度お試しください。",
	},
	KeyWeatherNoCity: {
		LocaleEN: "Which city would you like the weather for?",
		LocaleZH: "请问您想查询哪个城市的天气？",
		LocaleJA: "どの都市の天気を知りたいですか？",
	},
	KeyTodoSuccess: {
		LocaleEN: "I've created a task plan titled '{title}' with {count} actionable steps to help you achieve your goal.",
		LocaleZH: "我已经创建了一个名为'{title}'的任务计划，包含{count}个可执行步骤来帮助您实现目标。",
		LocaleJA: "'{title}'というタスクプランを作成しました。目標達成のために{count}個の実行可能なステップが含まれています。",
	},
	KeyTodoEmpty: {
		LocaleEN: "I couldn't break '{title}' down into concrete tasks. Could you describe the goal in a bit more detail?",
		LocaleZH: "我无法将'{title}'拆分为具体任务，能否更详细地描述一下您的目标？",
		LocaleJA: "'{title}'を具体的なタスクに分解できませんでした。目標をもう少し詳しく教えていただけますか？",
	},
	KeyTodoUnavailable: {
		LocaleEN: "The planning service is unavailable right now, so I couldn't create a task plan for '{title}'. Please try again later.",
		LocaleZH: "规划服务暂时不可用，无法为'{title}'创建任务计划，请稍后再试。",
		LocaleJA: "現在プランニングサービスが利用できないため、'{title}'のタスクプランを作成できませんでした。しばらくしてから再度お試しください。",
	},
	KeyVideoSuccess: {
		LocaleEN: "I've created a video editing plan titled '{title}' with {removal_count} removal tasks and {addition_count} addition tasks ({total_count} total tasks) to help you complete your video editing project.",
		LocaleZH: "我已经创建了一个名为'{title}'的视频编辑计划，包含{removal_count}个移除任务和{addition_count}个添加任务（共{total_count}个任务）来帮助您完成视频编辑项目。",
		LocaleJA: "'{title}'というビデオ編集プランを作成しました。{removal_count}個の削除タスクと{addition_count}個の追加タスク（合計{total_count}個のタスク）でビデオ編集プロジェクトの完成をサポートします。",
	},
	KeyVideoEmpty: {
		LocaleEN: "I couldn't derive any editing tasks for '{title}'. Tell me more about the footage and the result you want.",
		LocaleZH: "我无法为'{title}'生成任何剪辑任务，请告诉我更多关于素材和期望效果的信息。",
		LocaleJA: "'{title}'の編集タスクを作成できませんでした。素材と仕上がりのイメージをもう少し教えてください。",
	},
	KeyVideoUnavailable: {
		LocaleEN: "The planning service is unavailable right now, so I couldn't create a video editing plan for '{title}'. Please try again later.",
		LocaleZH: "规划服务暂时不可用，无法为'{title}'创建视频编辑计划，请稍后再试。",
		LocaleJA: "現在プランニングサービスが利用できないため、'{title}'のビデオ編集プランを作成できませんでした。しばらくしてから再度お試しください。",
	},
	KeyFallbackAck: {
		LocaleEN: "Got it. I can check the weather, plan tasks, or put together a video editing plan. Try asking about one of those.",
		LocaleZH: "收到。我可以查询天气、规划任务或制定视频剪辑计划，试着问我其中一项吧。",
		LocaleJA: "了解しました。天気の確認、タスクの計画、ビデオ編集プランの作成ができます。いずれかについて聞いてみてください。",
	},

	KeyWeatherDescRain: {
		LocaleEN: "Rainy weather today",
		LocaleZH: "今天有雨",
		LocaleJA: "今日は雨模様です",
	},
	KeyWeatherDescCloud: {
		LocaleEN: "Partly cloudy skies",
		LocaleZH: "局部多云",
		LocaleJA: "所により曇り",
	},
	KeyWeatherDescClear: {
		LocaleEN: "Clear and sunny",
		LocaleZH: "晴朗",
		LocaleJA: "快晴です",
	},
	KeyWeatherDescSnow: {
		LocaleEN: "Snowy conditions",
		LocaleZH: "有雪",
		LocaleJA: "雪が降っています",
	},
	KeyWeatherDescDefault: {
		LocaleEN: "Pleasant weather",
		LocaleZH: "天气宜人",
		LocaleJA: "穏やかな天気です",
	},

	KeyLabelTemperature: {LocaleEN: "Temperature", LocaleZH: "温度", LocaleJA: "気温"},
	KeyLabelCondition:   {LocaleEN: "Condition", LocaleZH: "天气状况", LocaleJA: "天候"},
	KeyLabelHumidity:    {LocaleEN: "Humidity", LocaleZH: "湿度", LocaleJA: "湿度"},
	KeyLabelWind:        {LocaleEN: "Wind", LocaleZH: "风速", LocaleJA: "風速"},
	KeyLabelTasks:       {LocaleEN: "Tasks", LocaleZH: "任务", LocaleJA: "タスク"},
	KeyLabelCompleted:   {LocaleEN: "Completed", LocaleZH: "已完成", LocaleJA: "完了"},
	KeyLabelPending:     {LocaleEN: "Pending", LocaleZH: "待完成", LocaleJA: "未完了"},
	KeyLabelProgress:    {LocaleEN: "Progress", LocaleZH: "进度"},
	KeyLabelSubtraction: {LocaleEN: "Remove", LocaleZH: "删减", LocaleJA: "削除"},
	KeyLabelAddition:    {LocaleEN: "Add", LocaleZH: "添加", LocaleJA: "追加"},
}

// T returns the text for key in locale, falling back to the en entry.
func T(locale Locale, key Key) string {
	return messages.Lookup(locale, key)
}

// Format renders the template for key, replacing {name} placeholders with the
// given name/value pairs.
func Format(locale Locale, key Key, pairs ...string) string {
	return render(T(locale, key), pairs...)
}

// Lookup returns the text for key in locale. Missing translations fall back to
// the en entry; an unknown key yields the key itself so output is never empty.
func (t Table) Lookup(locale Locale, key Key) string {
	entry, ok := t[key]
	if !ok {
		return string(key)
	}
	if s := entry[locale]; s != "" {
		return s
	}
	if s := entry[DefaultLocale]; s != "" {
		return s
	}
	return string(key)
}

// Labels resolves a set of label keys for locale.
func Labels(locale Locale, keys ...Key) map[string]string {
	labels := make(map[string]string, len(keys))
	for _, k := range keys {
		labels[strings.TrimPrefix(string(k), "label.")] = T(locale, k)
	}
	return labels
}

func render(template string, pairs ...string) string {
	if len(pairs) < 2 {
		return template
	}
	oldnew := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		oldnew = append(oldnew, "{"+pairs[i]+"}", pairs[i+1])
	}
	return strings.NewReplacer(oldnew...).Replace(template)
}
