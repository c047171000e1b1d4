package agent

import (
	"strings"
	"sync"
	"time"

	"codedesk/internal/logging"
)

// Expertise levels. Within a process lifetime a profile's expertise only
// moves up, never down.
type Expertise string

const (
	ExpertiseBeginner     Expertise = "beginner"
	ExpertiseIntermediate Expertise = "intermediate"
	ExpertiseExpert       Expertise = "expert"
)

func expertiseRank(e Expertise) int {
	switch e {
	case ExpertiseIntermediate:
		return 1
	case ExpertiseExpert:
		return 2
	default:
		return 0
	}
}

// Profile bounds.
const (
	maxInterests         = 10
	maxPreviousQuestions = 20
	maxTopics            = 20
	maxTasks             = 10
)

// UserProfile is the chat agent's private per-user record. No other
// component reads or writes it.
type UserProfile struct {
	UserID            string
	Expertise         Expertise
	Interests         []string // least-recently-added evicted at maxInterests
	PreviousQuestions []string // oldest evicted at maxPreviousQuestions
	CreatedAt         time.Time
}

// ConversationContext is the chat agent's per-conversation extraction:
// bounded topics and tasks pulled heuristically from turn text.
type ConversationContext struct {
	ConversationID string
	Topics         []string // dedup by value, capped at maxTopics
	Tasks          []string // capped at maxTasks
	UpdatedAt      time.Time
}

// profileStore owns all UserProfiles and ConversationContexts for one chat
// agent instance. Created at service start, torn down with the agent.
type profileStore struct {
	mu       sync.Mutex
	profiles map[string]*UserProfile
	convs    map[string]*ConversationContext
}

func newProfileStore() *profileStore {
	return &profileStore{
		profiles: make(map[string]*UserProfile),
		convs:    make(map[string]*ConversationContext),
	}
}

var beginnerSignals = []string{"beginner", "new to", "just learning", "basics", "first time", "what is a"}
var expertSignals = []string{"optimize", "architecture", "concurrency", "performance", "internals", "benchmark"}

var interestSignals = []string{
	"go", "golang", "python", "javascript", "typescript", "rust", "java",
	"sql", "database", "docker", "kubernetes", "testing", "api", "frontend",
	"backend", "cli", "web",
}

var taskVerbs = []string{"implement", "fix", "add", "write", "create", "build", "refactor", "test", "debug"}

// observe updates the user profile from one request. Expertise is advanced
// only by signal keywords and never downgraded.
func (s *profileStore) observe(userID, input string) *UserProfile {
	if userID == "" {
		userID = "default"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		p = &UserProfile{
			UserID:    userID,
			Expertise: ExpertiseBeginner,
			CreatedAt: time.Now(),
		}
		s.profiles[userID] = p
		logging.AgentDebug("profile created for user %s", userID)
	}

	lower := strings.ToLower(input)

	detected := p.Expertise
	for _, sig := range expertSignals {
		if strings.Contains(lower, sig) {
			detected = ExpertiseExpert
			break
		}
	}
	if detected != ExpertiseExpert {
		isBeginner := false
		for _, sig := range beginnerSignals {
			if strings.Contains(lower, sig) {
				isBeginner = true
				break
			}
		}
		// Anything non-beginner with technical signal words nudges upward.
		if !isBeginner && len(lower) > 0 && expertiseRank(p.Expertise) < 1 {
			for _, sig := range interestSignals {
				if strings.Contains(lower, sig) {
					detected = ExpertiseIntermediate
					break
				}
			}
		}
	}
	if expertiseRank(detected) > expertiseRank(p.Expertise) {
		logging.AgentDebug("profile %s expertise %s -> %s", userID, p.Expertise, detected)
		p.Expertise = detected
	}

	for _, topic := range interestSignals {
		if !strings.Contains(lower, topic) {
			continue
		}
		p.Interests = appendBoundedDedup(p.Interests, topic, maxInterests)
	}

	p.PreviousQuestions = append(p.PreviousQuestions, input)
	if len(p.PreviousQuestions) > maxPreviousQuestions {
		p.PreviousQuestions = p.PreviousQuestions[len(p.PreviousQuestions)-maxPreviousQuestions:]
	}

	return &UserProfile{
		UserID:            p.UserID,
		Expertise:         p.Expertise,
		Interests:         append([]string(nil), p.Interests...),
		PreviousQuestions: append([]string(nil), p.PreviousQuestions...),
		CreatedAt:         p.CreatedAt,
	}
}

// observeConversation extracts topics and tasks from one turn's text.
func (s *profileStore) observeConversation(conversationID, text string) *ConversationContext {
	if conversationID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cc, ok := s.convs[conversationID]
	if !ok {
		cc = &ConversationContext{ConversationID: conversationID}
		s.convs[conversationID] = cc
	}

	lower := strings.ToLower(text)
	for _, topic := range interestSignals {
		if strings.Contains(lower, topic) {
			cc.Topics = appendBoundedDedup(cc.Topics, topic, maxTopics)
		}
	}

	for _, verb := range taskVerbs {
		idx := strings.Index(lower, verb+" ")
		if idx < 0 {
			continue
		}
		task := extractClause(text, idx)
		if task == "" {
			continue
		}
		cc.Tasks = appendBoundedDedup(cc.Tasks, task, maxTasks)
		break
	}

	cc.UpdatedAt = time.Now()

	return &ConversationContext{
		ConversationID: cc.ConversationID,
		Topics:         append([]string(nil), cc.Topics...),
		Tasks:          append([]string(nil), cc.Tasks...),
		UpdatedAt:      cc.UpdatedAt,
	}
}

// snapshot returns copies for the given ids without mutating anything.
func (s *profileStore) snapshot(userID, conversationID string) (*UserProfile, *ConversationContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p *UserProfile
	if userID == "" {
		userID = "default"
	}
	if stored, ok := s.profiles[userID]; ok {
		p = &UserProfile{
			UserID:            stored.UserID,
			Expertise:         stored.Expertise,
			Interests:         append([]string(nil), stored.Interests...),
			PreviousQuestions: append([]string(nil), stored.PreviousQuestions...),
			CreatedAt:         stored.CreatedAt,
		}
	}

	var cc *ConversationContext
	if stored, ok := s.convs[conversationID]; ok {
		cc = &ConversationContext{
			ConversationID: stored.ConversationID,
			Topics:         append([]string(nil), stored.Topics...),
			Tasks:          append([]string(nil), stored.Tasks...),
			UpdatedAt:      stored.UpdatedAt,
		}
	}
	return p, cc
}

// counts reports store sizes for the health snapshot.
func (s *profileStore) counts() (profiles, conversations int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles), len(s.convs)
}

// appendBoundedDedup appends value if absent and evicts the oldest entry
// past the cap.
func appendBoundedDedup(list []string, value string, cap int) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	list = append(list, value)
	if len(list) > cap {
		list = list[len(list)-cap:]
	}
	return list
}

// extractClause grabs the sentence fragment starting at idx, capped to a
// readable length.
func extractClause(text string, idx int) string {
	clause := text[idx:]
	if end := strings.IndexAny(clause, ".!?\n"); end > 0 {
		clause = clause[:end]
	}
	clause = strings.TrimSpace(clause)
	if len(clause) > 120 {
		clause = clause[:120]
	}
	if len(clause) < 4 {
		return ""
	}
	return clause
}
