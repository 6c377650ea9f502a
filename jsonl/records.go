package jsonl

// Response is one generated reply, persisted one per line in emission order.
type Response struct {
	Response string `json:"response"`
}

// Utterance is a seeker turn recorded alongside the generated replies.
type Utterance struct {
	Utterance string `json:"utterance"`
}
