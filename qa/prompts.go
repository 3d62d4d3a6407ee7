package qa

import "fmt"

// compressionPrompt instructs the utility model to reduce retrieved context.
const compressionPrompt = `You are an expert in context compression. Your task is to:
1. Analyze the context and question.
2. Extract and summarize only the most relevant information.
3. Preserve relevant code examples only if the user asked for an example in the question.
4. Format the output clearly.

Provide a compressed context with all crucial information.`

// chatSystemPrompt instructs the chat model how to answer.
const chatSystemPrompt = `You are an expert chatbot which can answer properly as per context and question.
Answer the user's question accurately with the context available.
If context is not available, inform the user that you are unable to answer the question.

The answer should be concise and properly formatted in markdown format.
If the context has a suitable example for the question, include it in the answer.

By default, keep your responses concise and to the point unless the user specifically asks for a detailed response or additional information.`

// User-visible placeholders and messages.
const (
	NoContext              = "No context available"
	NoContextDueToError    = "No context available due to error"
	NoDocumentsFound       = "No relevant documents found for the query"
	ApologyMessage         = "I encountered an error while processing your question. Please try again."
	defaultQuestion        = "No question provided"
	defaultRepositoryName  = "Unknown repository"
	retrievalErrorTemplate = "Error during retrieval: %v"
	chatErrorTemplate      = "Error during chat processing: %v"
)

func buildCompressionInput(question, contextText string) string {
	return fmt.Sprintf("Question: %s\nContext: %s", question, contextText)
}

func buildChatSystemPrompt(repository, compressed string) string {
	return fmt.Sprintf("%s\n\nRepository: %s\nContext:\n%s", chatSystemPrompt, repository, compressed)
}
