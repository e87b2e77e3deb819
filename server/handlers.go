package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/engine"
)

// DefaultSimilarTopN 是 /items/{itemID}/similar 未指定 top_n 时的条数。
const DefaultSimilarTopN = 5

type errorResponse struct {
	Error string `json:"error"`
}

type explainItem struct {
	ItemID int64             `json:"item_id"`
	Score  float64           `json:"score"`
	Labels map[string]string `json:"labels,omitempty"`
}

type recommendResponse struct {
	Status          string        `json:"status"`
	Recommendations []int64       `json:"recommendations"`
	Items           []explainItem `json:"items,omitempty"`
}

type segmentResponse struct {
	VisitorID int64  `json:"visitor_id"`
	Segment   string `json:"segment"`
}

type similarResponse struct {
	ItemID  int64   `json:"item_id"`
	Similar []int64 `json:"similar"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /recommendations/{visitorID}?top_n=&alpha=&explain=
func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	visitorID, err := strconv.ParseInt(chi.URLParam(r, "visitorID"), 10, 64)
	if err != nil {
		badRequest(w, "invalid visitor id")
		return
	}

	q := r.URL.Query()
	var opts []engine.RequestOption
	if v := q.Get("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(w, "top_n must be a positive integer")
			return
		}
		opts = append(opts, engine.TopN(n))
	}
	if v := q.Get("alpha"); v != "" {
		a, err := strconv.ParseFloat(v, 64)
		if err != nil || a < 0 || a > 1 {
			badRequest(w, "alpha must be within [0, 1]")
			return
		}
		opts = append(opts, engine.Alpha(a))
	}
	explain := false
	if v := q.Get("explain"); v != "" {
		explain, err = strconv.ParseBool(v)
		if err != nil {
			badRequest(w, "explain must be a boolean")
			return
		}
	}

	res := s.rec.Recommend(r.Context(), visitorID, opts...)
	resp := recommendResponse{Status: res.Segment.String(), Recommendations: res.Items}
	if resp.Recommendations == nil {
		resp.Recommendations = []int64{}
	}
	if explain {
		resp.Items = make([]explainItem, 0, len(res.Candidates))
		for _, c := range res.Candidates {
			it := explainItem{ItemID: c.ID, Score: c.Score}
			if len(c.Labels) > 0 {
				it.Labels = make(map[string]string, len(c.Labels))
				for k, lbl := range c.Labels {
					it.Labels[k] = lbl.Value
				}
			}
			resp.Items = append(resp.Items, it)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /visitors/{visitorID}/segment
func (s *Server) segment(w http.ResponseWriter, r *http.Request) {
	visitorID, err := strconv.ParseInt(chi.URLParam(r, "visitorID"), 10, 64)
	if err != nil {
		badRequest(w, "invalid visitor id")
		return
	}
	seg := s.rec.Segment(r.Context(), visitorID)
	writeJSON(w, http.StatusOK, segmentResponse{VisitorID: visitorID, Segment: seg.String()})
}

// GET /items/{itemID}/similar?top_n=
func (s *Server) similar(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		badRequest(w, "invalid item id")
		return
	}
	topN := DefaultSimilarTopN
	if v := r.URL.Query().Get("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(w, "top_n must be a positive integer")
			return
		}
		topN = n
	}
	ids := s.rec.SimilarItems(r.Context(), itemID, topN)
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, similarResponse{ItemID: itemID, Similar: ids})
}
