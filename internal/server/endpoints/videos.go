package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/remorses/leggiclip/internal/api"
	"github.com/remorses/leggiclip/internal/store"
	"github.com/remorses/leggiclip/internal/svcctx"
)

// ListVideosResponse is the response for listing generated videos.
type ListVideosResponse struct {
	Videos []store.Video `json:"videos"`
}

// ListVideosEndpoint handles GET /api/videos.
type ListVideosEndpoint struct{}

func (e *ListVideosEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/videos", e.handler
}

func (e *ListVideosEndpoint) RequiresInit() bool { return true }

func (e *ListVideosEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	st := svcctx.StoreFrom(r.Context())
	if st == nil {
		writeError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	videos, err := st.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if videos == nil {
		videos = []store.Video{}
	}
	writeJSON(w, http.StatusOK, ListVideosResponse{Videos: videos})
}

func (e *ListVideosEndpoint) Command(getServerURL func() string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generated videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/videos"
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}
			var resp ListVideosResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of videos to return")
	return cmd
}

// VideoStatusResponse is the response for a render status lookup.
type VideoStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
}

// VideoStatusEndpoint handles GET /api/video. It proxies a live status
// lookup to the avatar rendering provider by render job id.
type VideoStatusEndpoint struct{}

func (e *VideoStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/video", e.handler
}

func (e *VideoStatusEndpoint) RequiresInit() bool { return true }

func (e *VideoStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id query parameter is required")
		return
	}

	renderer := svcctx.RendererFrom(r.Context())
	if renderer == nil {
		writeError(w, http.StatusServiceUnavailable, "render client not initialized")
		return
	}

	status, err := renderer.Status(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, VideoStatusResponse{
		ID:     status.ID,
		Status: status.Status,
		URL:    status.VideoURL,
	})
}

func (e *VideoStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status <render-id>",
		Short: "Look up the status of one avatar render",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp VideoStatusResponse
			if err := client.Get(cmd.Context(), "/api/video?id="+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
