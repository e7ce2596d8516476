package endpoints

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remorses/leggiclip/internal/api"
	"github.com/remorses/leggiclip/internal/pdftext"
	"github.com/remorses/leggiclip/internal/svcctx"
)

const maxPDFUploadBytes = 32 << 20

// SourceTextResponse carries law text extracted from an external source.
type SourceTextResponse struct {
	Text  string `json:"text"`
	Pages int    `json:"pages,omitempty"`
}

// SourceURLRequest is the body for POST /api/source/url.
type SourceURLRequest struct {
	URL string `json:"url"`
}

// SourceURLEndpoint handles POST /api/source/url. It fetches a web page
// holding law text and returns it as markdown, ready to paste into a
// generate request.
type SourceURLEndpoint struct{}

func (e *SourceURLEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/source/url", e.handler
}

func (e *SourceURLEndpoint) RequiresInit() bool { return true }

func (e *SourceURLEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req SourceURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "url must be a valid http(s) URL")
		return
	}

	fetcher := svcctx.LawFetcherFrom(r.Context())
	if fetcher == nil {
		writeError(w, http.StatusServiceUnavailable, "law fetcher not initialized")
		return
	}

	text, err := fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusUnprocessableEntity, "no text content found at url")
		return
	}

	writeJSON(w, http.StatusOK, SourceTextResponse{Text: text})
}

func (e *SourceURLEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "url <url>",
		Short: "Fetch law text from a web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SourceTextResponse
			if err := client.Post(cmd.Context(), "/api/source/url", SourceURLRequest{URL: args[0]}, &resp); err != nil {
				return err
			}
			cmd.Println(resp.Text)
			return nil
		},
	}
}

// SourcePDFEndpoint handles POST /api/source/pdf. It accepts a multipart
// upload ("file" field) and returns the PDF's text layer.
type SourcePDFEndpoint struct{}

func (e *SourcePDFEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/source/pdf", e.handler
}

func (e *SourcePDFEndpoint) RequiresInit() bool { return true }

func (e *SourcePDFEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPDFUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPDFUploadBytes))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read upload: "+err.Error())
		return
	}

	text, err := pdftext.ExtractBytes(data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "failed to extract PDF text: "+err.Error())
		return
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusUnprocessableEntity, "PDF has no extractable text layer")
		return
	}

	pages := strings.Count(text, "\n\n") + 1
	writeJSON(w, http.StatusOK, SourceTextResponse{Text: text, Pages: pages})
}

func (e *SourcePDFEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "pdf <file.pdf>",
		Short: "Extract law text from a PDF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SourceTextResponse
			if err := client.PostFile(cmd.Context(), "/api/source/pdf", args[0], &resp); err != nil {
				return err
			}
			cmd.Println(resp.Text)
			return nil
		},
	}
}
