package chat

// Sender identifies who authored a turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Turn is one message in the transcript.
type Turn struct {
	Sender         Sender `json:"sender"`
	Text           string `json:"text"`
	OptionsVisible bool   `json:"options_visible"`
	IsEnd          bool   `json:"is_end"`
}

// Transcript is the ordered, append-only turn sequence of one session.
// It is not safe for concurrent use; the Controller serialises access.
type Transcript struct {
	turns []Turn
}

// NewTranscript starts a transcript with the synthetic welcome turn.
func NewTranscript(welcome string) *Transcript {
	t := &Transcript{}
	t.Reset(welcome)
	return t
}

// Reset drops everything but a fresh welcome turn.
func (t *Transcript) Reset(welcome string) {
	t.turns = []Turn{{Sender: SenderBot, Text: welcome}}
}

// AppendUser hides the menu of the trailing bot turn, then appends the user turn.
func (t *Transcript) AppendUser(text string) {
	if i := t.lastBotIndex(); i >= 0 {
		t.turns[i].OptionsVisible = false
	}
	t.turns = append(t.turns, Turn{Sender: SenderUser, Text: text})
}

func (t *Transcript) AppendBot(text string, optionsVisible, isEnd bool) {
	t.turns = append(t.turns, Turn{
		Sender:         SenderBot,
		Text:           text,
		OptionsVisible: optionsVisible,
		IsEnd:          isEnd,
	})
}

// LastBotTurn returns the most recent bot turn, if any.
func (t *Transcript) LastBotTurn() (Turn, bool) {
	if i := t.lastBotIndex(); i >= 0 {
		return t.turns[i], true
	}
	return Turn{}, false
}

// Last returns the trailing turn regardless of sender.
func (t *Transcript) Last() (Turn, bool) {
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

func (t *Transcript) Len() int {
	return len(t.turns)
}

// Turns returns a copy of the sequence.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

func (t *Transcript) lastBotIndex() int {
	for i := len(t.turns) - 1; i >= 0; i-- {
		if t.turns[i].Sender == SenderBot {
			return i
		}
	}
	return -1
}
