package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remorses/leggiclip/internal/api"
	"github.com/remorses/leggiclip/internal/pipeline"
	"github.com/remorses/leggiclip/internal/svcctx"
)

// GenerateRequest is the body for POST /api/generate.
type GenerateRequest struct {
	LawText     string `json:"law_text"`
	Description string `json:"description"`
	NumItems    int    `json:"num_items"`
}

// GenerateEndpoint handles POST /api/generate. The response is a stream of
// newline-delimited JSON snapshots; each line is a full {"items": [...]}
// view of the run so far. A run that fails mid-stream terminates with a
// single {"error": "..."} line.
type GenerateEndpoint struct{}

func (e *GenerateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/generate", e.handler
}

func (e *GenerateEndpoint) RequiresInit() bool { return true }

func (e *GenerateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.LawText) == "" {
		writeError(w, http.StatusBadRequest, "law_text is required")
		return
	}

	orch := svcctx.OrchestratorFrom(r.Context())
	if orch == nil {
		writeError(w, http.StatusServiceUnavailable, "orchestrator not initialized")
		return
	}
	if orch.Running() {
		writeError(w, http.StatusConflict, pipeline.ErrRunInProgress.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	var last pipeline.Snapshot
	err := orch.Run(r.Context(), pipeline.Request{
		LawText:     req.LawText,
		Description: req.Description,
		NumItems:    req.NumItems,
	}, func(s pipeline.Snapshot) {
		last = s
		if err := enc.Encode(s); err != nil {
			return
		}
		flusher.Flush()
	})

	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			// Headers are already sent; surface it as a terminal line.
			enc.Encode(ErrorResponse{Error: err.Error()})
			flusher.Flush()
			return
		}
		logger := svcctx.LoggerFrom(r.Context())
		if logger != nil {
			logger.Error("Generation run failed", "error", err)
		}
		enc.Encode(ErrorResponse{Error: err.Error()})
		flusher.Flush()
		return
	}

	if st := svcctx.StoreFrom(r.Context()); st != nil && len(last.Items) > 0 {
		// The request context may be torn down as the client disconnects;
		// history still gets written.
		if _, err := st.RecordRun(context.WithoutCancel(r.Context()), last.Items); err != nil {
			logger := svcctx.LoggerFrom(r.Context())
			if logger != nil {
				logger.Error("Failed to record run history", "error", err)
			}
		}
	}
}

func (e *GenerateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		lawFile     string
		description string
		numItems    int
	)

	cmd := &cobra.Command{
		Use:   "generate [law text]",
		Short: "Generate videos from law text, streaming progress",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lawText := ""
			if len(args) > 0 {
				lawText = args[0]
			}
			if lawFile != "" {
				data, err := os.ReadFile(lawFile)
				if err != nil {
					return fmt.Errorf("failed to read law text file: %w", err)
				}
				lawText = string(data)
			}
			if strings.TrimSpace(lawText) == "" {
				return fmt.Errorf("provide law text as an argument or via --file")
			}

			client := api.NewClient(getServerURL())
			req := GenerateRequest{LawText: lawText, Description: description, NumItems: numItems}
			return client.PostStream(cmd.Context(), "/api/generate", req, func(line []byte) error {
				fmt.Println(string(line))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&lawFile, "file", "f", "", "Read law text from a file")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Extra guidance for the script")
	cmd.Flags().IntVarP(&numItems, "num-items", "n", 1, "Number of videos to generate")
	return cmd
}
