package rag

import "fmt"

// The answer template instructs the model to stay inside the retrieved
// context and admit ignorance otherwise. Grounding correctness is
// delegated entirely to the model and this wording.
const answerTemplate = `You are an AI assistant for the uploaded document(s). Use the following context to answer the question. If you don't know the answer from the context, just say that you don't know.
Context: %s
Question: %s
Helpful Answer:`

const followupTemplate = `Based on the last question and its answer, generate 3 new follow-up questions. Present them as a numbered list. Do not add any other text.
Last Question: "%s"
Last Answer: "%s"`

func answerPrompt(contextText, question string) string {
	return fmt.Sprintf(answerTemplate, contextText, question)
}

func followupPrompt(question, answer string) string {
	return fmt.Sprintf(followupTemplate, question, answer)
}
