// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

/*
geminimodel.go - Vertex AI generative video analysis client

This file implements Model against Vertex AI's generateContent REST
endpoint, the multimodal model that accepts a video URL inline and
returns the structured multi-IP verdict this package parses into an
AnalysisResult.
*/

package vision

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Ensure GeminiModel implements Model.
var _ Model = (*GeminiModel)(nil)

// GeminiModel calls a Vertex AI multimodal model's generateContent
// endpoint directly over HTTP. It authenticates with a bearer token the
// caller refreshes out of band (Application Default Credentials'
// access-token exchange has no stable Go client in this module's
// dependency set), so tokenSource is called fresh on every request.
type GeminiModel struct {
	project          string
	region           string
	modelName        string
	tokenSource      func(ctx context.Context) (string, error)
	httpClient       *http.Client
	inputPricePer1M  float64
	outputPricePer1M float64
}

// NewGeminiModel returns a ready GeminiModel.
func NewGeminiModel(project, region, modelName string, tokenSource func(ctx context.Context) (string, error), inputPricePer1M, outputPricePer1M float64) *GeminiModel {
	return &GeminiModel{
		project:          project,
		region:           region,
		modelName:        modelName,
		tokenSource:      tokenSource,
		httpClient:       &http.Client{Timeout: 20 * time.Minute},
		inputPricePer1M:  inputPricePer1M,
		outputPricePer1M: outputPricePer1M,
	}
}

type generateContentRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig  `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text     string          `json:"text,omitempty"`
	FileData *geminiFileData `json:"fileData,omitempty"`
	VideoMetadata *geminiVideoMetadata `json:"videoMetadata,omitempty"`
}

type geminiFileData struct {
	FileURI  string `json:"fileUri"`
	MIMEType string `json:"mimeType"`
}

type geminiVideoMetadata struct {
	FPS               float64 `json:"fps,omitempty"`
	StartOffset       string  `json:"startOffset,omitempty"`
	EndOffset         string  `json:"endOffset,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string `json:"responseMimeType"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int64 `json:"promptTokenCount"`
		CandidatesTokenCount int64 `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Analyze implements Model by sending the video URL and prompt to
// Vertex AI's generateContent endpoint and parsing its structured
// response back into an AnalysisResult (§4.5/§6).
func (m *GeminiModel) Analyze(ctx context.Context, req AnalyzeRequest) (AnalysisResult, Metrics, error) {
	start := time.Now()

	token, err := m.tokenSource(ctx)
	if err != nil {
		return AnalysisResult{}, Metrics{}, fmt.Errorf("obtain access token: %w", err)
	}

	body := generateContentRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{FileData: &geminiFileData{FileURI: req.VideoURL, MIMEType: "video/*"},
					VideoMetadata: &geminiVideoMetadata{
						FPS:         req.FPS,
						StartOffset: fmt.Sprintf("%ds", req.StartOffsetSeconds),
						EndOffset:   fmt.Sprintf("%ds", req.EndOffsetSeconds),
					},
				},
				{Text: req.Prompt},
			},
		}},
		GenerationConfig: geminiGenerationConfig{ResponseMIMEType: "application/json"},
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return AnalysisResult{}, Metrics{}, fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf(
		"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
		m.region, m.project, m.region, m.modelName,
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return AnalysisResult{}, Metrics{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return AnalysisResult{}, Metrics{}, fmt.Errorf("vertex ai request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusToSentinel(resp.StatusCode); err != nil {
		return AnalysisResult{}, Metrics{}, err
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return AnalysisResult{}, Metrics{}, fmt.Errorf("vertex ai returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return AnalysisResult{}, Metrics{}, fmt.Errorf("decode vertex ai response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return AnalysisResult{}, Metrics{}, ErrValidationFailed
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(parsed.Candidates[0].Content.Parts[0].Text), &result); err != nil {
		return AnalysisResult{}, Metrics{}, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	metrics := Metrics{
		InputTokens:    parsed.UsageMetadata.PromptTokenCount,
		OutputTokens:   parsed.UsageMetadata.CandidatesTokenCount,
		CostUSD:        tokenCost(parsed.UsageMetadata.PromptTokenCount, m.inputPricePer1M) + tokenCost(parsed.UsageMetadata.CandidatesTokenCount, m.outputPricePer1M),
		ProcessingTime: time.Since(start),
		FPSUsed:        req.FPS,
	}
	return result, metrics, nil
}

func tokenCost(tokens int64, pricePer1M float64) float64 {
	return float64(tokens) / 1_000_000 * pricePer1M
}

// statusToSentinel maps Vertex AI's HTTP status codes to this
// package's sentinel errors so RetryingModel's backoff policy applies.
func statusToSentinel(statusCode int) error {
	switch statusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusForbidden:
		return ErrPermissionDenied
	default:
		return nil
	}
}
