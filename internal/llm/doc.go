// Package llm provides the AI classification tier. It supports several text-completion
// providers (Gemini, OpenAI, Anthropic and the Claude Code CLI) behind one Client
// interface and adds batching, response caching, rate limiting and validation of the
// returned codes against the reference taxonomy.
package llm
