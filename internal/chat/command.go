package chat

import "strings"

// Kind identifies a parsed chat command.
type Kind string

const (
	KindEmpty         Kind = "empty"
	KindBook          Kind = "book"
	KindPredict       Kind = "predict"
	KindSuggestDay    Kind = "suggest_day"
	KindSuggestRebook Kind = "suggest_rebook"
	KindRebook        Kind = "rebook"
	KindRequestRebook Kind = "request_rebook"
	KindCancel        Kind = "cancel"
	KindSelect        Kind = "select"
	KindRefund        Kind = "refund"
	KindUnknown       Kind = "unknown"
)

// Command is one parsed line of chat input. Arg keeps the caller's casing:
// a flight id for book/predict/rebook/select, a booking reference for cancel.
type Command struct {
	Kind Kind   `json:"kind"`
	Arg  string `json:"arg,omitempty"`
}

// Parse maps free text to a Command. The first word picks the command, so
// "suggest rebook" can never be read as "rebook". Refund questions match
// anywhere in the text. Keywords after a leading filler word are not matched:
// "can you suggest a day" and "please request rebook" are Unknown.
func Parse(raw string) Command {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Command{Kind: KindEmpty}
	}

	lower := strings.ToLower(strings.Join(fields, " "))
	var arg string
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch strings.ToLower(fields[0]) {
	case "book":
		return Command{Kind: KindBook, Arg: arg}
	case "predict":
		return Command{Kind: KindPredict, Arg: arg}
	case "suggest":
		switch {
		case strings.Contains(lower, "day"):
			return Command{Kind: KindSuggestDay}
		case strings.Contains(lower, "rebook"):
			return Command{Kind: KindSuggestRebook}
		}
	case "rebook":
		if arg != "" {
			return Command{Kind: KindRebook, Arg: arg}
		}
	case "request":
		return Command{Kind: KindRequestRebook}
	case "cancel":
		return Command{Kind: KindCancel, Arg: arg}
	case "select":
		if arg != "" {
			return Command{Kind: KindSelect, Arg: arg}
		}
	}

	if strings.Contains(lower, "refund") || strings.Contains(lower, "policy") {
		return Command{Kind: KindRefund}
	}
	return Command{Kind: KindUnknown}
}
