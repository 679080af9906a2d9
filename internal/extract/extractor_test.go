package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const articlePage = `<!DOCTYPE html>
<html>
<head>
  <title>Shipping faster builds | Example Blog</title>
  <meta property="og:title" content="Shipping faster builds">
  <meta property="og:description" content="How we cut build times in half.">
  <meta property="og:image" content="/images/builds.png">
  <meta property="og:site_name" content="Example Blog">
</head>
<body>
  <article>
    <h1>Shipping faster builds</h1>
    <p>Our continuous integration pipeline used to take twenty minutes for every change. That was too slow for
    a team that merges dozens of pull requests every day, so we set out to fix it.</p>
    <p>We started by measuring where the time went. Dependency downloads, container builds and test execution
    each took a third of the total, and each had an obvious fix once we looked closely.</p>
    <p>Caching dependencies, layering images properly and splitting the test suite brought the pipeline down
    to under ten minutes, which changed how the whole team works.</p>
  </article>
</body>
</html>`

type ExtractorTestSuite struct {
	suite.Suite
	logger *slog.Logger
	hits   atomic.Int32
	srv    *httptest.Server
}

func (s *ExtractorTestSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.hits.Store(0)

	mux := http.NewServeMux()
	mux.HandleFunc("/post", func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articlePage)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.WriteHeader(http.StatusGone)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	s.srv = httptest.NewServer(mux)
}

func (s *ExtractorTestSuite) TearDownTest() {
	s.srv.Close()
}

func TestExtractorTestSuite(t *testing.T) {
	suite.Run(t, new(ExtractorTestSuite))
}

func (s *ExtractorTestSuite) newExtractor(timeout time.Duration) *Extractor {
	return New(s.srv.Client(), Config{Timeout: timeout, CacheTTL: time.Minute}, s.logger)
}

func (s *ExtractorTestSuite) TestExtract_ReadsMetadata() {
	meta, err := s.newExtractor(time.Second).Extract(context.Background(), s.srv.URL+"/post")

	s.Require().NoError(err)
	s.Equal("Shipping faster builds", meta.Title)
	s.Equal("How we cut build times in half.", meta.Description)
	s.Equal(s.srv.URL+"/images/builds.png", meta.ImageURL)
	s.Equal("Example Blog", meta.SiteName)
}

func (s *ExtractorTestSuite) TestExtract_CachesSuccess() {
	e := s.newExtractor(time.Second)

	_, err := e.Extract(context.Background(), s.srv.URL+"/post")
	s.Require().NoError(err)
	_, err = e.Extract(context.Background(), s.srv.URL+"/post")
	s.Require().NoError(err)

	s.Equal(int32(1), s.hits.Load())
}

func (s *ExtractorTestSuite) TestExtract_DoesNotCacheFailure() {
	e := s.newExtractor(time.Second)

	_, err := e.Extract(context.Background(), s.srv.URL+"/gone")
	s.Error(err)
	s.Contains(err.Error(), "unexpected status: 410")

	_, err = e.Extract(context.Background(), s.srv.URL+"/gone")
	s.Error(err)
	s.Equal(int32(2), s.hits.Load())
}

func (s *ExtractorTestSuite) TestExtract_Timeout() {
	start := time.Now()

	_, err := s.newExtractor(20*time.Millisecond).Extract(context.Background(), s.srv.URL+"/slow")

	s.Error(err)
	s.Less(time.Since(start), 500*time.Millisecond)
}

func (s *ExtractorTestSuite) TestResolve() {
	base, err := url.Parse("https://example.com/blog/post")
	s.Require().NoError(err)

	s.Equal("https://example.com/img.png", resolve(base, "/img.png"))
	s.Equal("https://cdn.example.com/a.png", resolve(base, "https://cdn.example.com/a.png"))
	s.Empty(resolve(base, ""))
}
