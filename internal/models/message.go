package models

import "github.com/spf13/cast"

const (
	ChatTypePrivate = 1
	ChatTypeGroup   = 2
)

// InboundMessage is one element of an inbound event batch as delivered by
// the transport. Time carries the raw timestamp exactly as received, in
// seconds or milliseconds, as a number or a string; use ToMs to read it.
type InboundMessage struct {
	ChatType  int
	PeerUin   string // group code for group chat, friend uin for private chat
	SenderUin string
	Time      any
}

// HistoryMessage is one private-history entry returned by the transport.
type HistoryMessage struct {
	SenderUin string
	Time      any
}

const millisecondThreshold = int64(1e12)

// ToMs normalizes a heterogeneous timestamp into epoch milliseconds.
// Values below 1e12 are taken as seconds. Unparseable or non-positive
// input yields 0.
func ToMs(v any) int64 {
	n := cast.ToInt64(v)
	if n <= 0 {
		return 0
	}
	if n < millisecondThreshold {
		return n * 1000
	}
	return n
}
