package models

// Chunk is a contiguous span of document text, the unit of embedding and
// retrieval. Immutable once created.
type Chunk struct {
	Filename string `json:"filename"`
	Ordinal  int    `json:"ordinal"`
	Text     string `json:"text"`
}

// AnswerResult carries the generated answer plus up to three suggested
// follow-up questions. Suggestions may be empty when the model output
// does not parse.
type AnswerResult struct {
	Answer      string   `json:"answer"`
	Suggestions []string `json:"suggestions"`
}
