package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"seekmark/internal/domain"
	"seekmark/internal/httpserver/deps"
	"seekmark/internal/logger"
	"seekmark/internal/surface/popup"
)

const maxImportBytes = 1 << 20

type popupView struct {
	Applicable bool        `json:"applicable"`
	Message    string      `json:"message,omitempty"`
	VideoID    string      `json:"videoId,omitempty"`
	Bookmarks  domain.List `json:"bookmarks,omitempty"`
	EmptyHint  string      `json:"emptyHint,omitempty"`
}

type popupCommand struct {
	Tab        int     `json:"tab"`
	URL        string  `json:"url"`
	Time       float64 `json:"time"`
	BookmarkID string  `json:"bookmarkId,omitempty"`
	NewDesc    string  `json:"newDesc,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// openSession builds a transient popup session for one request. The tab's bus
// is attached through the router so commands reach the page surface for that
// tab even when the popup races the controller.
func openSession(r *http.Request, d deps.Deps, tab int, tabURL string) (*popup.Session, error) {
	bus := d.Router.Attach(tab)
	return popup.Open(r.Context(), tabURL, d.Sites, d.Records, d.Engine, bus, d.Logger)
}

func sessionFromQuery(r *http.Request, d deps.Deps) (*popup.Session, error) {
	tab, err := strconv.Atoi(r.URL.Query().Get("tab"))
	if err != nil {
		return nil, errors.New("missing or invalid tab parameter")
	}
	tabURL := r.URL.Query().Get("url")
	if tabURL == "" {
		return nil, errors.New("missing url parameter")
	}
	return openSession(r, d, tab, tabURL)
}

// PopupView renders the popup state for a tab: the bookmark list for watch
// pages, an empty hint when there are none, and a static placeholder message
// everywhere else. An optional q parameter filters by description.
func PopupView(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFromQuery(r, d)
		if errors.Is(err, popup.ErrNotApplicable) {
			writeJSON(w, http.StatusOK, popupView{
				Applicable: false,
				Message:    "This page is not supported. Open a video watch page to manage bookmarks.",
			})
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		list := s.Bookmarks()
		if q := r.URL.Query().Get("q"); q != "" {
			list = s.Search(q)
		}

		view := popupView{
			Applicable: true,
			VideoID:    s.VideoID(),
			Bookmarks:  list,
		}
		if len(s.Bookmarks()) == 0 {
			view.EmptyHint = popup.EmptyHint
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// PopupExport streams the current list as a downloadable JSON artifact.
func PopupExport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFromQuery(r, d)
		if errors.Is(err, popup.ErrNotApplicable) {
			writeError(w, http.StatusConflict, "not a video watch page")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		data, err := s.Export()
		if err != nil {
			d.Logger.Error("export failed", logger.String("video_id", s.VideoID()), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to serialize export")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="bookmarks-`+s.VideoID()+`.json"`)
		_, _ = w.Write(data)
	}
}

// PopupImport merges a user-supplied export file into the tab's stored list.
func PopupImport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessionFromQuery(r, d)
		if errors.Is(err, popup.ErrNotApplicable) {
			writeError(w, http.StatusConflict, "not a video watch page")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		merged, err := s.Import(r.Context(), data)
		if errors.Is(err, popup.ErrBadImport) {
			writeError(w, http.StatusBadRequest, "import file has no bookmarks array")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "import failed")
			return
		}

		writeJSON(w, http.StatusOK, popupView{
			Applicable: true,
			VideoID:    s.VideoID(),
			Bookmarks:  merged,
		})
	}
}

func decodeCommand(r *http.Request) (popupCommand, error) {
	var cmd popupCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		return cmd, errors.New("invalid JSON body")
	}
	if cmd.URL == "" {
		return cmd, errors.New("missing url field")
	}
	return cmd, nil
}

// PopupPlay asks the tab's page surface to seek to a bookmark.
func PopupPlay(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := decodeCommand(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		s, err := openSession(r, d, cmd.Tab, cmd.URL)
		if errors.Is(err, popup.ErrNotApplicable) {
			writeError(w, http.StatusConflict, "not a video watch page")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		s.Play(domain.Bookmark{ID: cmd.BookmarkID, Time: cmd.Time})
		w.WriteHeader(http.StatusAccepted)
	}
}

// PopupDelete removes a bookmark through the page surface and returns the
// post-operation list. A failed round trip restores the prior view and maps
// to 502 so the caller can re-render.
func PopupDelete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := decodeCommand(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		s, err := openSession(r, d, cmd.Tab, cmd.URL)
		if errors.Is(err, popup.ErrNotApplicable) {
			writeError(w, http.StatusConflict, "not a video watch page")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		list, err := s.Delete(r.Context(), domain.Bookmark{ID: cmd.BookmarkID, Time: cmd.Time})
		if errors.Is(err, popup.ErrRoundTripFailed) {
			writeError(w, http.StatusBadGateway, "page surface did not answer")
			return
		}

		writeJSON(w, http.StatusOK, popupView{
			Applicable: true,
			VideoID:    s.VideoID(),
			Bookmarks:  list,
		})
	}
}

// PopupEdit re-describes a bookmark through the page surface.
func PopupEdit(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := decodeCommand(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		s, err := openSession(r, d, cmd.Tab, cmd.URL)
		if errors.Is(err, popup.ErrNotApplicable) {
			writeError(w, http.StatusConflict, "not a video watch page")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		list, err := s.Edit(r.Context(), domain.Bookmark{ID: cmd.BookmarkID, Time: cmd.Time}, cmd.NewDesc)
		if errors.Is(err, popup.ErrRoundTripFailed) {
			writeError(w, http.StatusBadGateway, "page surface did not answer")
			return
		}

		writeJSON(w, http.StatusOK, popupView{
			Applicable: true,
			VideoID:    s.VideoID(),
			Bookmarks:  list,
		})
	}
}
