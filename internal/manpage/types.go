package manpage

// Status classifies the outcome of fetching one package's man page.
type Status int

const (
	StatusFound Status = iota
	StatusMissing
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusMissing:
		return "missing"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Reasons recorded for fetches cut short by cancellation.
const (
	ReasonInterrupted = "interrupted"
	ReasonNotFetched  = "not fetched"
)

// Entry is the immutable result of one fetch. Text is set only for
// StatusFound and Reason only for StatusError.
type Entry struct {
	Package string
	Status  Status
	Text    string
	Reason  string
}

func Found(pkg, text string) Entry { return Entry{Package: pkg, Status: StatusFound, Text: text} }

func Missing(pkg string) Entry { return Entry{Package: pkg, Status: StatusMissing} }

func Failed(pkg, reason string) Entry {
	return Entry{Package: pkg, Status: StatusError, Reason: reason}
}
