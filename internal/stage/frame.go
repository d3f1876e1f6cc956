package stage

// Frame is one event on the upstream pipeline boundary. Exactly three
// implementations exist: [TurnStarted], [TurnEnded], and [Text].
type Frame interface {
	frame()
}

// TurnStarted signals that the language model began a new spoken response.
type TurnStarted struct{}

// TurnEnded signals that the current spoken response is complete.
type TurnEnded struct{}

// Text carries one fragment of response text. A single turn may be split
// across many Text frames by the upstream pipeline.
type Text struct {
	Content string
}

func (TurnStarted) frame() {}
func (TurnEnded) frame()   {}
func (Text) frame()        {}
