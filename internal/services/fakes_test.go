package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jobly/cv-analyzer/internal/models"
	"jobly/cv-analyzer/internal/repositories"
	"jobly/cv-analyzer/internal/scoring"
)

const sampleCVText = `JANE DOE
jane.doe@example.com | +33 6 12 34 56 78
PROFESSIONAL EXPERIENCE
Senior engineer at Acme from 2019 to 2023
Developed and deployed services in python, docker and kubernetes
Improved latency by 40% over 5 years across 12 projects
EDUCATION
Master degree in computer science, 2015
SKILLS
python docker kubernetes postgresql redis`

// fakePDF returns bytes that pass upload validation; the content is
// irrelevant to fakeParser but changes the hash.
func fakePDF(body string) []byte {
	return []byte("%PDF-1.4\n" + body + "\n%%EOF\n")
}

// tickingClock advances one second per call.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

type fakeAnalysisRepo struct {
	mu        sync.Mutex
	analyses  map[string]models.CVAnalysis
	history   []models.CVAnalysisHistory
	findCalls int
	saveCalls int
	findErr   error
	saveErr   error
	addErr    error
	listErr   error
	saveCtxOK bool
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{analyses: make(map[string]models.CVAnalysis)}
}

func (r *fakeAnalysisRepo) FindByHash(ctx context.Context, hash string) (*models.CVAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	analysis, ok := r.analyses[hash]
	if !ok {
		return nil, repositories.ErrAnalysisNotFound
	}
	return &analysis, nil
}

func (r *fakeAnalysisRepo) SaveAnalysis(ctx context.Context, analysis *models.CVAnalysis, history *models.CVAnalysisHistory) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCalls++
	r.saveCtxOK = ctx.Err() == nil
	if r.saveErr != nil {
		return false, r.saveErr
	}
	_, exists := r.analyses[analysis.CVHash]
	if !exists {
		r.analyses[analysis.CVHash] = *analysis
	}
	if history != nil {
		r.history = append(r.history, *history)
	}
	return !exists, nil
}

func (r *fakeAnalysisRepo) AddHistory(ctx context.Context, history *models.CVAnalysisHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return r.addErr
	}
	r.history = append(r.history, *history)
	return nil
}

func (r *fakeAnalysisRepo) FindHistoryByUser(ctx context.Context, userID string) ([]models.CVAnalysisHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}

	var rows []models.CVAnalysisHistory
	for _, h := range r.history {
		if h.UserID != userID {
			continue
		}
		h.Analysis = r.analyses[h.CVHash]
		rows = append(rows, h)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AnalyzedAt.After(rows[j].AnalyzedAt)
	})
	return rows, nil
}

func (r *fakeAnalysisRepo) historyFor(userID string) []models.CVAnalysisHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rows []models.CVAnalysisHistory
	for _, h := range r.history {
		if h.UserID == userID {
			rows = append(rows, h)
		}
	}
	return rows
}

type fakeParser struct {
	mu       sync.Mutex
	text     string
	err      error
	calls    int
	sawFiles []string
	sawData  [][]byte
}

func (p *fakeParser) ExtractText(filePath string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if data, err := os.ReadFile(filePath); err == nil {
		p.sawFiles = append(p.sawFiles, filePath)
		p.sawData = append(p.sawData, data)
	}
	if p.err != nil {
		return "", p.err
	}
	return p.text, nil
}

func (p *fakeParser) ExtractTextWithMetaData(filePath string) (*PDFContent, error) {
	text, err := p.ExtractText(filePath)
	if err != nil {
		return nil, err
	}
	return &PDFContent{Text: text, PageCount: 1, FilePath: filePath}, nil
}

func (p *fakeParser) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestEngine(t *testing.T) *scoring.Engine {
	t.Helper()
	engine, err := scoring.NewEngine(scoring.DefaultVocabulary())
	require.NoError(t, err)
	return engine
}

// buildTestPDF writes a single page PDF with one text line per entry and a
// correct cross-reference table.
func buildTestPDF(lines ...string) []byte {
	var content strings.Builder
	content.WriteString("BT\n/F1 12 Tf\n14 TL\n72 720 Td\n")
	for _, line := range lines {
		fmt.Fprintf(&content, "(%s) Tj T*\n", line)
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefOffset)

	return buf.Bytes()
}
