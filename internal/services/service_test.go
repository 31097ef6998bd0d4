package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/catprep/mocktest-service/internal/content"
	"github.com/catprep/mocktest-service/internal/models"
	"github.com/catprep/mocktest-service/internal/repositories"
	"github.com/catprep/mocktest-service/internal/utils"
	"gorm.io/gorm"
)

// memoryRepo is an in-memory repositories.Repository for service tests.
type memoryRepo struct {
	mu       sync.Mutex
	users    map[string]*models.User
	attempts []*models.Attempt
	nextID   uint
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]*models.User), nextID: 1}
}

func (r *memoryRepo) User() repositories.UserRepository       { return (*memoryUserRepo)(r) }
func (r *memoryRepo) Attempt() repositories.AttemptRepository { return (*memoryAttemptRepo)(r) }

type memoryUserRepo memoryRepo

func (r *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[strings.ToLower(user.Username)] = user
	return nil
}

func (r *memoryUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[strings.ToLower(username)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *memoryUserRepo) Exists(ctx context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[strings.ToLower(username)]
	return ok, nil
}

func (r *memoryUserRepo) IncrementAttempts(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[strings.ToLower(username)]; ok {
		user.TotalAttempts++
	}
	return nil
}

type memoryAttemptRepo memoryRepo

func (r *memoryAttemptRepo) Create(ctx context.Context, attempt *models.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt.ID = r.nextID
	r.nextID++
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *memoryAttemptRepo) GetByID(ctx context.Context, id uint) (*models.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryAttemptRepo) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Attempt, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryAttemptRepo) LatestForUser(ctx context.Context, username string) (*models.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Attempt
	for _, a := range r.attempts {
		if !strings.EqualFold(a.Username, username) {
			continue
		}
		if latest == nil || a.SubmittedAt.After(latest.SubmittedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (r *memoryAttemptRepo) LatestPerTest(ctx context.Context, username string) ([]*models.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := make(map[string]*models.Attempt)
	for _, a := range r.attempts {
		if !strings.EqualFold(a.Username, username) {
			continue
		}
		if cur, ok := latest[a.TestName]; !ok || a.SubmittedAt.After(cur.SubmittedAt) {
			latest[a.TestName] = a
		}
	}
	var out []*models.Attempt
	for _, a := range latest {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestName < out[j].TestName })
	return out, nil
}

func (r *memoryAttemptRepo) ListForUser(ctx context.Context, username string, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Attempt
	for _, a := range r.attempts {
		if strings.EqualFold(a.Username, username) {
			out = append(out, a)
		}
	}
	total := int64(len(out))
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, total, nil
}

// testLibrary builds a tiny two-test library for exam service tests.
func testLibrary() *content.Library {
	logger := utils.ToSlogLogger(utils.NewDevelopmentLogger())
	num := func(v string) content.FlexNumber {
		return content.FlexNumber{Value: v, Valid: true}
	}
	mkTest := func(name string) content.RawTest {
		return content.RawTest{
			Name: name,
			Data: map[string][]content.ContextBlock{
				content.SectionVARC: {{
					QAList: []content.RawQuestion{
						{QuestionNum: num("1"), QuestionType: content.TypeMCQ, Question: "v1", Options: []string{"a", "b"}, Answer: "a"},
						{QuestionNum: num("2"), QuestionType: content.TypeMCQ, Question: "v2", Options: []string{"a", "b"}, Answer: "b"},
					},
				}},
				content.SectionDILR: {{
					QAList: []content.RawQuestion{
						{QuestionNum: num("1"), QuestionType: content.TypeTITA, Question: "d1", Answer: "42"},
					},
				}},
				content.SectionQA: {{
					QAList: []content.RawQuestion{
						{QuestionNum: num("1"), QuestionType: content.TypeMCQ, Question: "q1", Options: []string{"a", "b"}, Answer: "a"},
					},
				}},
			},
		}
	}
	return content.NewLibrary([]content.RawTest{mkTest("CAT-2024-Slot-1"), mkTest("CAT-2024-Slot-2")}, logger)
}
