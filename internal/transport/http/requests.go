package http

import (
	"net/http"
	"time"

	"retentionpulse/internal/middleware"
	"retentionpulse/internal/services"
)

// DateRangeQuery is the optional cutoff date range of dashboard and export requests
type DateRangeQuery struct {
	From string `query:"from" validate:"omitempty,isodate"`
	To   string `query:"to" validate:"omitempty,isodate"`
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Question string `json:"question" validate:"required,max=1000"`
}

// UploadRequest describes the multipart upload after parsing
type UploadRequest struct {
	FileName string `json:"file" validate:"required,workbook"`
	Size     int64  `json:"size" validate:"gt=0"`
}

// parseRange validates the from/to query parameters into a ViewQuery
func parseRange(r *http.Request, v *middleware.ValidationMiddleware) (services.ViewQuery, error) {
	q := DateRangeQuery{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	if err := v.ValidateStruct(q); err != nil {
		return services.ViewQuery{}, err
	}

	var vq services.ViewQuery
	if q.From != "" {
		t, _ := time.Parse("2006-01-02", q.From)
		vq.From = &t
	}
	if q.To != "" {
		t, _ := time.Parse("2006-01-02", q.To)
		vq.To = &t
	}
	return vq, nil
}
