// Package llm is the boundary between graph nodes and a language model.
//
// Nodes depend only on the Client interface. Gemini talks to the Gemini
// API through genai and an eino chat model; MockClient serves canned
// responses in tests. Prompt renders fixed templates with eino's
// f-string formatter.
//
//	client, err := llm.NewGemini(ctx, apiKey, llm.WithModel("gemini-1.5-flash"))
//	resp, err := client.Complete(ctx, llm.UserRequest("What is 2+2?"))
package llm
