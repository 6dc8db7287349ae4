// Package summary talks to the OpenAI chat completions API to summarize
// books, identify them from free text and propose metadata edits.
//
// Every call needs OPENAI_API_KEY. Without it methods return
// ErrMissingAPIKey and callers carry on without the AI result.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mrlokans/alaya/internal/config"
)

const (
	userAgent = "alayascan/0.1.0"

	// UnavailableSummary is what the model is asked to reply for unknown books.
	UnavailableSummary = "Summary unavailable."
)

var (
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")
	ErrExternalAPI   = errors.New("openai request failed")
)

// Client calls the chat completions endpoint.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// NewClient creates a client from the summary configuration.
func NewClient(cfg config.Summary) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultSummaryModel
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultSummaryBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      model,
		baseURL:    baseURL,
	}
}

// HasAPIKey reports whether requests can be made at all.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Model returns the default model used when callers pass none.
func (c *Client) Model() string {
	return c.model
}

// WithModel returns a copy of the client that uses model by default. A blank
// model keeps the current one.
func (c *Client) WithModel(model string) *Client {
	clone := *c
	clone.model = c.modelOr(model)
	return &clone
}

// SummarizeBook asks for a one-sentence summary of the book titled title.
func (c *Client) SummarizeBook(ctx context.Context, title string) (string, error) {
	prompt := fmt.Sprintf(
		"Give me a single concise sentence summarizing the book titled \"%s\". "+
			"If you do not know it, reply with \"%s\"",
		title, UnavailableSummary,
	)

	return c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful literary assistant."},
			{Role: "user", Content: prompt},
		},
	})
}

// BookMetadata is the model's identification of a book.
type BookMetadata struct {
	Title           string  `json:"title"`
	Author          *string `json:"author"`
	ISBN            *string `json:"isbn"`
	PublicationYear *int    `json:"publication_year"`
}

// ExtractBookMetadata identifies the book described by query, which may be a
// misspelt title, an author and title, or any loose description.
func (c *Client) ExtractBookMetadata(ctx context.Context, query, model string) (*BookMetadata, error) {
	prompt := fmt.Sprintf("Identify this book: \"%s\"\n\n"+
		"Return the information as JSON with these fields:\n"+
		"- title: the correct full title\n"+
		"- author: the correct author name\n"+
		"- isbn: the ISBN-13 if known, otherwise null\n"+
		"- publication_year: the original publication year if known, otherwise null\n\n"+
		"Return ONLY valid JSON, no other text.", query)

	content, err := c.complete(ctx, chatRequest{
		Model:    c.modelOr(model),
		Messages: librarianMessages(prompt),
	})
	if err != nil {
		return nil, err
	}

	var metadata BookMetadata
	if err := decodeJSONContent(content, &metadata); err != nil {
		return nil, err
	}
	if strings.TrimSpace(metadata.Title) == "" {
		return nil, fmt.Errorf("%w: book metadata has no title", ErrExternalAPI)
	}
	return &metadata, nil
}

// BookFields are the editable fields sent along with an edit instruction.
type BookFields struct {
	Title           string
	Author          *string
	PublicationYear *int
}

// EditProposal is a suggested new set of book fields. Nothing is stored
// until the user applies it.
type EditProposal struct {
	Title           string  `json:"title"`
	Author          *string `json:"author"`
	PublicationYear *int    `json:"publication_year"`
	Explanation     string  `json:"explanation"`
}

// EditBook asks the model to apply a natural-language instruction to book.
func (c *Client) EditBook(ctx context.Context, book BookFields, instruction, model string) (*EditProposal, error) {
	current, err := json.Marshal(map[string]any{
		"title":            book.Title,
		"author":           book.Author,
		"publication_year": book.PublicationYear,
	})
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Here is a book record as JSON:\n%s\n\n"+
		"Apply this instruction to it: \"%s\"\n\n"+
		"Return the updated record as JSON with these fields:\n"+
		"- title: the full title\n"+
		"- author: the author name, or null\n"+
		"- publication_year: the year as a number, or null\n"+
		"- explanation: one sentence describing what you changed\n\n"+
		"Return ONLY valid JSON, no other text.", current, instruction)

	content, err := c.complete(ctx, chatRequest{
		Model:    c.modelOr(model),
		Messages: librarianMessages(prompt),
	})
	if err != nil {
		return nil, err
	}

	var proposal EditProposal
	if err := decodeJSONContent(content, &proposal); err != nil {
		return nil, err
	}
	if strings.TrimSpace(proposal.Title) == "" {
		return nil, fmt.Errorf("%w: proposed edit has no title", ErrExternalAPI)
	}
	return &proposal, nil
}

func librarianMessages(prompt string) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: "You are a knowledgeable librarian assistant. " +
			"Always respond with valid JSON only, no markdown or extra text."},
		{Role: "user", Content: prompt},
	}
}

func (c *Client) modelOr(model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete sends req and returns the first non-blank choice.
func (c *Client) complete(ctx context.Context, req chatRequest) (string, error) {
	if !c.HasAPIKey() {
		return "", ErrMissingAPIKey
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	log.Printf("OpenAI request: model=%s messages=%d", req.Model, len(req.Messages))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExternalAPI, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrExternalAPI, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w (%d): %s", ErrExternalAPI, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded chatResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrExternalAPI, err)
	}
	for _, choice := range decoded.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", fmt.Errorf("%w: empty response", ErrExternalAPI)
}

// decodeJSONContent parses a JSON object out of a model reply, tolerating a
// surrounding markdown code fence.
func decodeJSONContent(content string, v any) error {
	raw := strings.TrimSpace(content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: parse reply: %w\nRaw: %s", ErrExternalAPI, err, content)
	}
	return nil
}
