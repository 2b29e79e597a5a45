// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package vision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

const metadataServerTokenURL = "http://metadata.google.internal/computeMetadata/v1/instance/service-accounts/default/token"

type metadataTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// GCEMetadataTokenSource fetches a bearer token for the instance's
// attached service account from the GCE metadata server. No Application
// Default Credentials client appears anywhere in this module's
// dependency set, so this talks to the metadata server's plain HTTP
// endpoint directly rather than pulling in a new, unwired SDK.
func GCEMetadataTokenSource(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataServerTokenURL, nil)
	if err != nil {
		return "", fmt.Errorf("build metadata token request: %w", err)
	}
	req.Header.Set("Metadata-Flavor", "Google")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("metadata token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("metadata token request returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed metadataTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode metadata token response: %w", err)
	}
	return parsed.AccessToken, nil
}
