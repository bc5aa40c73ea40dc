package dto

import (
	"github.com/ashtonliu88/SlugScheduler/pkg/recommender"
)

// ── course sources ──

// ChatSourceRequest forwards a message to the recommendation backend.
type ChatSourceRequest struct {
	Message string `json:"message" binding:"required,min=1,max=2000"`
}

// CatalogSourceRequest pulls sections from the course catalog.
type CatalogSourceRequest struct {
	Term         string `json:"term"          binding:"required,max=20"`
	CoursePrefix string `json:"course_prefix" binding:"required,max=20"`
	CourseNumber string `json:"course_number" binding:"omitempty,max=20"`
	Limit        int    `json:"limit"         binding:"omitempty,min=1,max=200"`
}

// ICSSourceRequest imports a calendar by URL. The multipart form variant
// sends the file as field "file" instead.
type ICSSourceRequest struct {
	URL string `json:"url" form:"url" binding:"omitempty,url,max=2000"`
}

// SourceResponse is the outcome of adding records from any source.
type SourceResponse struct {
	RecommendResponse
	Reply      string                          `json:"reply,omitempty"`
	Transcript *recommender.TranscriptAnalysis `json:"transcript,omitempty"`
}
