package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ashtonliu88/SlugScheduler/config"
)

func newTestClient(url string, ttl time.Duration) *Client {
	return NewClient(&config.RecommenderConfig{BaseURL: url + "/", Timeout: 2 * time.Second, CacheTTL: ttl}, zap.NewNop())
}

func TestChat_DecodesAndMemoizes(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/chat" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["message"] == "" {
			t.Error("message missing")
		}
		io.WriteString(w, `{"response":"Try CSE101","courses":[{"Class Code":"CSE101","Days & Times":"MWF 01:20PM-02:25PM","units":5}]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Minute)
	reply, err := c.Chat(context.Background(), "Recommend a course")
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if reply.Response != "Try CSE101" || len(reply.Courses) != 1 {
		t.Fatalf("reply = %+v", reply)
	}
	if reply.Courses[0]["units"] != "5" {
		t.Errorf("units = %q", reply.Courses[0]["units"])
	}

	if _, err := c.Chat(context.Background(), "  recommend a COURSE "); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("backend called %d times, want 1", calls)
	}
}

func TestChat_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).Chat(context.Background(), "hi")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestUploadTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		if hdr.Filename != "transcript.pdf" || string(data) != "%PDF-1.4" {
			t.Errorf("file = %s %q", hdr.Filename, data)
		}
		io.WriteString(w, `{"success":true,"data":{"major":"CS","type":"BS","upper_div_electives_taken":2,
			"remaining_required_courses":[["CSE101"],["CSE130"]],
			"recommended_courses":[{"Class Code":"CSE130","Days & Times":"TuTh 09:50AM-11:25AM"}]}}`)
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, 0).UploadTranscript(context.Background(), "transcript.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("UploadTranscript error: %v", err)
	}
	if got.Major != "CS" || len(got.RecommendedCourses) != 1 {
		t.Errorf("analysis = %+v", got)
	}
}

func TestUploadTranscript_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"success":false,"error":"not a transcript"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).UploadTranscript(context.Background(), "x.txt", strings.NewReader("hello"))
	if !errors.Is(err, ErrRejected) || !strings.Contains(err.Error(), "not a transcript") {
		t.Errorf("expected ErrRejected, got %v", err)
	}
}
