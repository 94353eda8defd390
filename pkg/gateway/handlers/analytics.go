package handlers

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prepai-dev/prepai/pkg/codeexec"
	"github.com/prepai-dev/prepai/pkg/store"
)

// AnalyticsHandler aggregates statistics over all stored sessions. Session
// scores are the average code-quality score of the session's submissions.
type AnalyticsHandler struct {
	Store store.Store
	Now   func() time.Time
}

func (h AnalyticsHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func sessionScore(s *store.Session) (float64, bool) {
	if len(s.CodeSubmissions) == 0 {
		return 0, false
	}
	return codeexec.Summarize(s.CodeSubmissions).AvgQualityScore, true
}

func (h AnalyticsHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Store.ListSessions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if len(sessions) == 0 {
		type emptyResponse struct {
			Success         bool   `json:"success"`
			TotalInterviews int    `json:"total_interviews"`
			Message         string `json:"message"`
		}
		writeJSON(w, http.StatusOK, emptyResponse{Success: true, Message: "No interview data yet"})
		return
	}

	var completed int
	types := make(map[string]int)
	candidates := make(map[string]struct{})
	var scoreTotal float64
	var scoreCount int
	for _, s := range sessions {
		if s.Status == "completed" {
			completed++
		}
		t := s.InterviewType
		if t == "" {
			t = "Unknown"
		}
		types[t]++
		candidates[s.CandidateName] = struct{}{}
		if score, ok := sessionScore(s); ok {
			scoreTotal += score
			scoreCount++
		}
	}

	avgScore := 0.0
	if scoreCount > 0 {
		avgScore = scoreTotal / float64(scoreCount)
	}

	type aggregateResponse struct {
		Success             bool           `json:"success"`
		TotalInterviews     int            `json:"total_interviews"`
		CompletedInterviews int            `json:"completed_interviews"`
		CompletionRate      float64        `json:"completion_rate"`
		AverageScore        float64        `json:"average_score"`
		InterviewTypes      map[string]int `json:"interview_types"`
		TotalCandidates     int            `json:"total_candidates"`
	}
	writeJSON(w, http.StatusOK, aggregateResponse{
		Success:             true,
		TotalInterviews:     len(sessions),
		CompletedInterviews: completed,
		CompletionRate:      round2f(float64(completed) / float64(len(sessions)) * 100),
		AverageScore:        round2f(avgScore),
		InterviewTypes:      types,
		TotalCandidates:     len(candidates),
	})
}

type percentiles struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

func calcPercentiles(values []float64) percentiles {
	if len(values) == 0 {
		return percentiles{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return percentiles{
		P25: sorted[n/4],
		P50: sorted[n/2],
		P75: sorted[3*n/4],
		P90: sorted[9*n/10],
		Min: sorted[0],
		Max: sorted[n-1],
		Avg: round2f(sum / float64(n)),
	}
}

func (h AnalyticsHandler) Benchmarks(w http.ResponseWriter, r *http.Request) {
	interviewType := r.PathValue("interview_type")
	sessions, err := h.Store.ListSessions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var scores []float64
	for _, s := range sessions {
		if !strings.EqualFold(s.InterviewType, interviewType) {
			continue
		}
		if score, ok := sessionScore(s); ok {
			scores = append(scores, score)
		}
	}

	if len(scores) == 0 {
		type noDataResponse struct {
			Success       bool   `json:"success"`
			InterviewType string `json:"interview_type"`
			HasData       bool   `json:"has_data"`
			Message       string `json:"message"`
		}
		writeJSON(w, http.StatusOK, noDataResponse{
			Success:       true,
			InterviewType: interviewType,
			HasData:       false,
			Message:       "No benchmark data available",
		})
		return
	}

	type benchmarksResponse struct {
		Success       bool        `json:"success"`
		InterviewType string      `json:"interview_type"`
		HasData       bool        `json:"has_data"`
		SampleSize    int         `json:"sample_size"`
		Benchmarks    percentiles `json:"benchmarks"`
	}
	writeJSON(w, http.StatusOK, benchmarksResponse{
		Success:       true,
		InterviewType: interviewType,
		HasData:       true,
		SampleSize:    len(scores),
		Benchmarks:    calcPercentiles(scores),
	})
}

func (h AnalyticsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			days = n
		}
	}

	sessions, err := h.Store.ListSessions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	cutoff := h.now().AddDate(0, 0, -days)
	type dayStats struct {
		scores []float64
		count  int
	}
	daily := make(map[string]*dayStats)
	for _, s := range sessions {
		if s.CreatedAt.Before(cutoff) {
			continue
		}
		score, ok := sessionScore(s)
		if !ok {
			continue
		}
		date := s.CreatedAt.Format("2006-01-02")
		st := daily[date]
		if st == nil {
			st = &dayStats{}
			daily[date] = st
		}
		st.scores = append(st.scores, score)
		st.count++
	}

	if len(daily) == 0 {
		type noDataResponse struct {
			Success bool   `json:"success"`
			Days    int    `json:"days"`
			HasData bool   `json:"has_data"`
			Message string `json:"message"`
		}
		writeJSON(w, http.StatusOK, noDataResponse{Success: true, Days: days, HasData: false, Message: "No data in timeframe"})
		return
	}

	dates := make([]string, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	type trendPoint struct {
		Date          string  `json:"date"`
		AverageScore  float64 `json:"average_score"`
		NumInterviews int     `json:"num_interviews"`
	}
	points := make([]trendPoint, 0, len(dates))
	for _, d := range dates {
		st := daily[d]
		var sum float64
		for _, v := range st.scores {
			sum += v
		}
		points = append(points, trendPoint{
			Date:          d,
			AverageScore:  round2f(sum / float64(len(st.scores))),
			NumInterviews: st.count,
		})
	}

	trend := "insufficient_data"
	change := 0.0
	if len(points) >= 2 {
		first, last := points[0].AverageScore, points[len(points)-1].AverageScore
		switch {
		case last > first:
			trend = "improving"
		case last < first:
			trend = "declining"
		default:
			trend = "stable"
		}
		change = round2f(last - first)
	}

	type trendsResponse struct {
		Success bool         `json:"success"`
		Days    int          `json:"days"`
		HasData bool         `json:"has_data"`
		Trend   string       `json:"trend"`
		Change  float64      `json:"change"`
		Data    []trendPoint `json:"data"`
	}
	writeJSON(w, http.StatusOK, trendsResponse{
		Success: true,
		Days:    days,
		HasData: true,
		Trend:   trend,
		Change:  change,
		Data:    points,
	})
}

func (h AnalyticsHandler) CandidateHistory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("candidate_name")
	sessions, err := h.Store.ListSessions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var matched []*store.Session
	for _, s := range sessions {
		if strings.EqualFold(s.CandidateName, name) {
			matched = append(matched, s)
		}
	}

	if len(matched) == 0 {
		type noHistoryResponse struct {
			Success       bool   `json:"success"`
			CandidateName string `json:"candidate_name"`
			HasHistory    bool   `json:"has_history"`
		}
		writeJSON(w, http.StatusOK, noHistoryResponse{Success: true, CandidateName: name, HasHistory: false})
		return
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	type historyPoint struct {
		Date          string   `json:"date"`
		InterviewType string   `json:"interview_type"`
		Score         *float64 `json:"score"`
	}
	var completed int
	points := make([]historyPoint, 0, len(matched))
	var latest *float64
	for _, s := range matched {
		if s.Status == "completed" {
			completed++
		}
		p := historyPoint{
			Date:          s.CreatedAt.Format(time.RFC3339),
			InterviewType: s.InterviewType,
		}
		if score, ok := sessionScore(s); ok {
			v := score
			p.Score = &v
			if latest == nil {
				latest = &v
			}
		}
		points = append(points, p)
	}

	type historyResponse struct {
		Success             bool           `json:"success"`
		CandidateName       string         `json:"candidate_name"`
		HasHistory          bool           `json:"has_history"`
		TotalInterviews     int            `json:"total_interviews"`
		CompletedInterviews int            `json:"completed_interviews"`
		ScoresOverTime      []historyPoint `json:"scores_over_time"`
		LatestScore         *float64       `json:"latest_score"`
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Success:             true,
		CandidateName:       name,
		HasHistory:          true,
		TotalInterviews:     len(matched),
		CompletedInterviews: completed,
		ScoresOverTime:      points,
		LatestScore:         latest,
	})
}

func round2f(f float64) float64 { return math.Round(f*100) / 100 }
