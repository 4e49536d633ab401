package transport

import json "github.com/goccy/go-json"

type actionFrame struct {
	Action string `json:"action"`
	Params any    `json:"params,omitempty"`
	Echo   string `json:"echo"`
}

type responseFrame struct {
	Status  string          `json:"status"`
	RetCode int             `json:"retcode"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// inboundFrame covers both frame kinds arriving on the socket: responses
// (Echo set) and pushes (PostType set).
type inboundFrame struct {
	responseFrame
	Echo     string        `json:"echo,omitempty"`
	PostType string        `json:"post_type,omitempty"`
	Messages []wireMessage `json:"messages,omitempty"`
}

type wireMessage struct {
	ChatType int    `json:"chat_type"`
	PeerId   string `json:"peer_id"`
	SenderId string `json:"sender_id"`
	Time     any    `json:"time"`
}

type loginInfo struct {
	UserId string `json:"user_id"`
}

type resolveParams struct {
	UserId string `json:"user_id"`
}

// resolveResult is the typed resolution contract: the queried id comes back
// with its resolved counterpart, or empty when unknown.
type resolveResult struct {
	UserId     string `json:"user_id"`
	ResolvedId string `json:"resolved_id"`
}

type sendParams struct {
	UserId string `json:"user_id"`
	Text   string `json:"text"`
}

type historyParams struct {
	UserId string `json:"user_id"`
	Limit  int    `json:"limit"`
}

type historyResult struct {
	Messages []wireMessage `json:"messages"`
}
