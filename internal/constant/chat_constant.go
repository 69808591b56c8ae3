package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	// Default title until the first exchange lands.
	ChatSessionDefaultTitle = "New conversation"

	// Titles derived from the first utterance are cut at this many runes.
	ChatSessionTitleMaxLen = 50

	// Wraps every prompt sent upstream. The client renders replies as plain
	// text, so markup coming back would leak through verbatim.
	PlainTextSystemInstruction = `You are a helpful assistant. Reply in plain, unformatted text only. Do not use Markdown, HTML, code fences, bullet markers, or any other markup.`
)
