// Package llm provides language model based expense classification.
// It supports Gemini and OpenAI providers and degrades to a keyword
// classifier whenever the network path fails, with retry logic, rate
// limiting, and response caching.
package llm
