package domain

import "strings"

// EventKind is the status column of the event table. Only purchases and
// remainder observations are meaningful.
type EventKind string

const (
	EventPurchase  EventKind = "purchase"
	EventRemainder EventKind = "remainder"
)

var eventKindLabels = map[EventKind]string{
	EventPurchase:  "买入",
	EventRemainder: "剩余",
}

var eventKindCodes = map[string]EventKind{
	"purchase":  EventPurchase,
	"remainder": EventRemainder,
}

// Label returns the sheet label written for the kind.
func (k EventKind) Label() string {
	if label, ok := eventKindLabels[k]; ok {
		return label
	}

	return string(k)
}

// Valid reports whether k is one of the known kinds.
func (k EventKind) Valid() bool {
	_, ok := eventKindLabels[k]
	return ok
}

// ParseEventKind returns the kind for a canonical name (case-insensitive).
func ParseEventKind(label string) (EventKind, bool) {
	kind, ok := eventKindCodes[strings.ToLower(strings.TrimSpace(label))]

	return kind, ok
}
