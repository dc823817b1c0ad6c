package analysis

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/benvon/selfspeak/internal/aggregate"
	"github.com/benvon/selfspeak/internal/database"
	"github.com/benvon/selfspeak/internal/models"
	"github.com/benvon/selfspeak/internal/queue"
	"github.com/benvon/selfspeak/internal/services/ai"
)

var errStore = errors.New("store unavailable")

// wednesday is 2024-03-13; its week starts on 2024-03-11.
var wednesday = time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

type fakeAnalysisRepo struct {
	mu        sync.Mutex
	byJournal map[uuid.UUID]*models.DailyAnalysis
	createErr error
	deletes   int
}

var _ database.AnalysisRepositoryInterface = (*fakeAnalysisRepo)(nil)

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{byJournal: make(map[uuid.UUID]*models.DailyAnalysis)}
}

func (f *fakeAnalysisRepo) GetByJournalID(_ context.Context, journalID uuid.UUID) (*models.DailyAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byJournal[journalID], nil
}

func (f *fakeAnalysisRepo) DeleteByJournalID(_ context.Context, journalID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byJournal, journalID)
	f.deletes++
	return nil
}

func (f *fakeAnalysisRepo) Create(_ context.Context, a *models.DailyAnalysis) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byJournal[a.JournalID] = a
	return nil
}

func (f *fakeAnalysisRepo) ListByUserAndDateRange(_ context.Context, userID, start, end string) ([]*models.DailyAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.DailyAnalysis
	for _, a := range f.byJournal {
		if a.UserID == userID && a.EntryDate >= start && a.EntryDate <= end {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntryDate != out[j].EntryDate {
			return out[i].EntryDate < out[j].EntryDate
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeAnalysisRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byJournal)
}

type fakeUsageRepo struct {
	mu       sync.Mutex
	counts   map[string]int
	getErr   error
	upserts  int
	setCalls int
}

var _ database.UsageRepositoryInterface = (*fakeUsageRepo)(nil)

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{counts: make(map[string]int)}
}

func (f *fakeUsageRepo) Get(_ context.Context, userID, weekStart string) (*models.WeeklyUsage, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.counts[userID+"/"+weekStart]
	if !ok {
		return nil, nil
	}
	return &models.WeeklyUsage{UserID: userID, WeekStart: weekStart, AnalysisCount: n}, nil
}

func (f *fakeUsageRepo) Upsert(_ context.Context, userID, weekStart string, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[userID+"/"+weekStart] = count
	f.upserts++
	return nil
}

func (f *fakeUsageRepo) SetCount(_ context.Context, userID, weekStart string, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID + "/" + weekStart
	if _, ok := f.counts[key]; !ok {
		return errors.New("no usage row")
	}
	f.counts[key] = count
	f.setCalls++
	return nil
}

func (f *fakeUsageRepo) value(userID, weekStart string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[userID+"/"+weekStart]
}

type fakeInsightRepo struct {
	mu      sync.Mutex
	byWeek  map[string]*models.WeeklyInsight
	creates int
	deletes int
}

var _ database.InsightRepositoryInterface = (*fakeInsightRepo)(nil)

func newFakeInsightRepo() *fakeInsightRepo {
	return &fakeInsightRepo{byWeek: make(map[string]*models.WeeklyInsight)}
}

func (f *fakeInsightRepo) GetByUserAndWeek(_ context.Context, userID, weekStart string) (*models.WeeklyInsight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byWeek[userID+"/"+weekStart], nil
}

func (f *fakeInsightRepo) Create(_ context.Context, insight *models.WeeklyInsight) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := insight.UserID + "/" + insight.WeekStartDate
	if _, ok := f.byWeek[key]; ok {
		return errors.New("duplicate insight")
	}
	f.byWeek[key] = insight
	f.creates++
	return nil
}

func (f *fakeInsightRepo) DeleteByUserAndWeek(_ context.Context, userID, weekStart string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID + "/" + weekStart
	_, ok := f.byWeek[key]
	delete(f.byWeek, key)
	if ok {
		f.deletes++
	}
	return ok, nil
}

type fakeDailyEngine struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

var _ ai.DailyEngine = (*fakeDailyEngine)(nil)

func (f *fakeDailyEngine) AnalyzeEntry(context.Context, string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.response), nil
}

type fakeWeeklyEngine struct {
	mu        sync.Mutex
	narrative *ai.WeeklyNarrative
	err       error
	calls     int
	lastMeta  *aggregate.Metadata
	// during runs inside GenerateInsight, before it returns.
	during func()
}

var _ ai.WeeklyEngine = (*fakeWeeklyEngine)(nil)

func (f *fakeWeeklyEngine) GenerateInsight(_ context.Context, meta *aggregate.Metadata) (*ai.WeeklyNarrative, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastMeta = meta
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.narrative, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*queue.Event
	err    error
}

var _ queue.Publisher = (*recordingPublisher)(nil)

func (p *recordingPublisher) Publish(_ context.Context, event *queue.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error                      { return nil }
func (p *recordingPublisher) HealthCheck(context.Context) error { return nil }

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

const validDailyResponse = `{
	"confidence": 80, "abundance": 80, "clarity": 80, "gratitude": 80, "resistance": 20,
	"dominant_emotion": "Hopeful", "goal_present": true, "self_doubt_present": false,
	"time_horizon": "short", "overall_tone": "driven",
	"behavioral_tags": ["action_oriented", "growth_mindset"]
}`

func completeNarrative() *ai.WeeklyNarrative {
	return &ai.WeeklyNarrative{
		SummaryText:         "A steady week.",
		DominantWeekEmotion: "Calm",
		ReflectionQuestion:  "What helped most?",
		PatternSummary:      "Rest preceded clarity.",
		PatternExperiment:   "Try a short walk before writing.",
	}
}
