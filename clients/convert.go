package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// --- Conversion (/convert_to) ---
type ConvertReq struct {
	Split     string `json:"split_name"`
	ListPath  string `json:"list_path"`
	DataDir   string `json:"data_dir"`
	ModelType string `json:"model_type"`
}
type ConvertResp struct {
	Status     string `json:"status"`
	Utterances int    `json:"utterances"`
}

func (h *HTTP) ConvertTo(ctx context.Context, url string, in ConvertReq) (*ConvertResp, error) {
	b, _ := json.Marshal(in)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/convert_to", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("convert %s: %s", resp.Status, string(body))
	}

	var out ConvertResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("convert decode: %w", err)
	}
	return &out, nil
}
