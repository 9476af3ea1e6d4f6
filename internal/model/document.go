package model

// InlineData is the base64 payload inside a document part.
type InlineData struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// DocumentPart is the provider envelope around an inline base64 PDF. It is
// created once per document, serialized to the client, and re-presented with
// every follow-up turn; the server keeps no copy between turns.
type DocumentPart struct {
	InlineData InlineData `json:"inlineData"`
}

// DocumentChatTurn is one prior turn of a document chat, supplied by the
// client alongside the part.
type DocumentChatTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// DocumentAnalysisResult is the unary document answer envelope.
type DocumentAnalysisResult struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}
