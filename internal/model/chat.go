package model

import "time"

// ChatReply is the uniform reply shape returned for every model in a fan-out.
// Exactly one of Text or Error is populated. Timestamp is assigned when the
// reply is constructed, never taken from the provider.
type ChatReply struct {
	ModelID   string    `json:"modelId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// ChatFanOutResult maps model id to its settled outcome. It always contains an
// entry for every requested model.
type ChatFanOutResult map[string]ChatReply
