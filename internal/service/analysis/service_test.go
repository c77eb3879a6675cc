package analysis_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/service/analysis"
)

type memRepo struct {
	mu  sync.Mutex
	ads map[string]domain.Ad
}

func newMemRepo(ads ...domain.Ad) *memRepo {
	m := &memRepo{ads: make(map[string]domain.Ad)}
	for _, a := range ads {
		m.ads[a.AdID] = a
	}
	return m
}

func (m *memRepo) GetAd(_ context.Context, id string) (*domain.Ad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.ads[id]
	if !ok {
		return nil, analysis.ErrNotFound
	}
	return &a, nil
}

func (m *memRepo) SaveImageAnalysis(_ context.Context, a *domain.ImageAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ad := m.ads[a.AdID]
	ad.ImageAnalysis = a
	m.ads[a.AdID] = ad
	return nil
}

func (m *memRepo) SaveCopyAnalysis(_ context.Context, a *domain.CopyAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ad := m.ads[a.AdID]
	ad.CopyAnalysis = a
	m.ads[a.AdID] = ad
	return nil
}

type fakeAnalyzer struct {
	imageCalls, copyCalls int
	err                   error
	lastMedia             string
}

func (f *fakeAnalyzer) AnalyzeImage(_ context.Context, _ []byte, mediaType string) (*domain.ImageAnalysis, error) {
	f.imageCalls++
	f.lastMedia = mediaType
	if f.err != nil {
		return nil, f.err
	}
	tone := "bright"
	return &domain.ImageAnalysis{ColorTone: &tone}, nil
}

func (f *fakeAnalyzer) AnalyzeCopy(_ context.Context, body, title string) (*domain.CopyAnalysis, error) {
	f.copyCalls++
	if f.err != nil {
		return nil, f.err
	}
	h := title
	return &domain.CopyAnalysis{Headline: &h}, nil
}

type fakeLoader struct{}

func (fakeLoader) LoadImage(context.Context, domain.Ad) ([]byte, string, error) {
	return []byte{0xff, 0xd8}, "image/jpeg", nil
}

type syncDispatcher struct{ names []string }

func (d *syncDispatcher) Dispatch(name string, task func(ctx context.Context) error) error {
	d.names = append(d.names, name)
	_ = task(context.Background())
	return nil
}

var now = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func fixture() (*memRepo, *fakeAnalyzer, *syncDispatcher, *analysis.Service) {
	tone := "dark"
	repo := newMemRepo(
		domain.Ad{AdID: "full", SnapshotURL: "https://snap/1", CreativeBody: "Buy now", CreativeLinkTitle: "Sale"},
		domain.Ad{AdID: "bare"},
		domain.Ad{AdID: "done", SnapshotURL: "https://snap/2", CreativeBody: "x",
			ImageAnalysis: &domain.ImageAnalysis{ColorTone: &tone}, CopyAnalysis: &domain.CopyAnalysis{}},
	)
	an := &fakeAnalyzer{}
	d := &syncDispatcher{}
	svc := analysis.NewService(repo, an, fakeLoader{}, d, analysis.WithClock(func() time.Time { return now }))
	return repo, an, d, svc
}

func TestAnalyzeImage(t *testing.T) {
	repo, an, d, svc := fixture()

	res, err := svc.AnalyzeImage(context.Background(), "full")
	if err != nil {
		t.Fatalf("analyze image: %v", err)
	}
	if res.Status != analysis.StatusQueued {
		t.Fatalf("status = %q, want queued", res.Status)
	}
	if len(d.names) != 1 || an.imageCalls != 1 || an.lastMedia != "image/jpeg" {
		t.Fatalf("dispatch=%v calls=%d media=%q", d.names, an.imageCalls, an.lastMedia)
	}
	stored := repo.ads["full"].ImageAnalysis
	if stored == nil || stored.AdID != "full" || !stored.AnalyzedAt.Equal(now) {
		t.Fatalf("stored analysis = %+v", stored)
	}

	again, err := svc.AnalyzeImage(context.Background(), "full")
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != analysis.StatusAlreadyAnalyzed {
		t.Fatalf("second call status = %q", again.Status)
	}
	if an.imageCalls != 1 {
		t.Fatal("already analyzed ad must not be analyzed again")
	}
}

func TestAnalyzeImage_Errors(t *testing.T) {
	_, _, _, svc := fixture()
	if _, err := svc.AnalyzeImage(context.Background(), "missing"); !errors.Is(err, analysis.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.AnalyzeImage(context.Background(), "bare"); !errors.Is(err, analysis.ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestAnalyzeCopy(t *testing.T) {
	repo, an, _, svc := fixture()

	res, err := svc.AnalyzeCopy(context.Background(), "full")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != analysis.StatusQueued || an.copyCalls != 1 {
		t.Fatalf("status=%q calls=%d", res.Status, an.copyCalls)
	}
	if h := repo.ads["full"].CopyAnalysis.Headline; h == nil || *h != "Sale" {
		t.Fatalf("headline = %v", h)
	}
	if _, err := svc.AnalyzeCopy(context.Background(), "bare"); !errors.Is(err, analysis.ErrNoCopy) {
		t.Fatalf("expected ErrNoCopy, got %v", err)
	}
}

func TestRunImageAnalysis_AnalyzerFailureStoresNothing(t *testing.T) {
	repo, an, _, svc := fixture()
	an.err = errors.New("throttled")

	if _, err := svc.RunImageAnalysis(context.Background(), "full"); err == nil {
		t.Fatal("expected error")
	}
	if repo.ads["full"].ImageAnalysis != nil {
		t.Fatal("failed analysis must not be stored")
	}
}

func TestAnalyzeBatch(t *testing.T) {
	repo, an, d, svc := fixture()

	res, err := svc.AnalyzeBatch(context.Background(), analysis.BatchRequest{
		AdIDs: []string{"full", "done", "missing", "bare"},
	})
	if err != nil {
		t.Fatal(err)
	}
	// bare has neither analysis so it is queued; the run then skips it.
	if res.QueuedCount != 2 || res.SkippedCount != 2 {
		t.Fatalf("queued=%d skipped=%d, want 2/2", res.QueuedCount, res.SkippedCount)
	}
	if len(d.names) != 1 {
		t.Fatalf("dispatched %d tasks, want 1", len(d.names))
	}
	if an.imageCalls != 1 || an.copyCalls != 1 {
		t.Fatalf("image=%d copy=%d, want 1/1", an.imageCalls, an.copyCalls)
	}
	if repo.ads["full"].ImageAnalysis == nil || repo.ads["full"].CopyAnalysis == nil {
		t.Fatal("full ad not enriched")
	}
}

func TestAnalyzeBatch_InvalidType(t *testing.T) {
	_, _, _, svc := fixture()
	_, err := svc.AnalyzeBatch(context.Background(), analysis.BatchRequest{
		AdIDs: []string{"full"},
		Types: []domain.AnalysisType{"video"},
	})
	if !errors.Is(err, analysis.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
