package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/justsurfingit/jobboard/internal/dtos"
)

// DecodeJobRecords parses the model reply into job records. A reply
// without a "jobs" key decodes to zero records; any other shape mismatch
// is an error.
func DecodeJobRecords(raw string) ([]dtos.JobRecord, error) {
	cleaned := cleanMarkdownJSON(raw)
	if cleaned == "" {
		return nil, errors.New("empty model reply")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &top); err != nil {
		return nil, fmt.Errorf("decode model reply (raw length: %d): %w", len(raw), err)
	}
	if top == nil {
		return nil, errors.New("model reply is null, expected an object")
	}

	jobsRaw, ok := top["jobs"]
	if !ok || string(bytes.TrimSpace(jobsRaw)) == "null" {
		return nil, nil
	}

	var reply dtos.ExtractionReply
	if err := json.Unmarshal(jobsRaw, &reply.Jobs); err != nil {
		return nil, fmt.Errorf("decode jobs array: %w", err)
	}
	return reply.Jobs, nil
}

// cleanMarkdownJSON removes code fences if the model wraps its reply in them.
func cleanMarkdownJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}
