package studio

import (
	"sync"
	"time"

	"hairtryapi/models"

	"github.com/google/uuid"
)

// Session is the per-upload studio state: the source photo, the preview
// collection and the final result slot. All mutation goes through the
// methods below; the preview collection has no concurrent writers because
// orchestrations are serialized by the in-flight flag.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu             sync.Mutex
	sourceImage    []byte
	sourceMimeType string
	status         models.SessionStatus
	lastError      *string
	resultImageURL *string
	archiveKey     *string
	previews       map[string]*models.GeneratedPreview
	inFlight       bool
}

// SessionView is the JSON-ready snapshot returned to polling clients.
type SessionView struct {
	ID             string                             `json:"id"`
	Status         models.SessionStatus               `json:"status"`
	LastError      *string                            `json:"last_error,omitempty"`
	ResultImageURL *string                            `json:"result_image_url,omitempty"`
	ArchiveKey     *string                            `json:"archive_key,omitempty"`
	Previews       map[string]models.GeneratedPreview `json:"previews"`
	CreatedAt      string                             `json:"created_at"`
}

func newSession(sourceImage []byte, mimeType string) *Session {
	return &Session{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		sourceImage:    sourceImage,
		sourceMimeType: mimeType,
		status:         models.SessionReady,
		previews:       map[string]*models.GeneratedPreview{},
	}
}

func (s *Session) HasSourceImage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sourceImage) > 0
}

func (s *Session) Source() ([]byte, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourceImage, s.sourceMimeType
}

// TryAcquireFlight marks one orchestration (batch, retry, refine or custom)
// as active. Exactly one can hold the flag at a time.
func (s *Session) TryAcquireFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	s.inFlight = true
	return true
}

func (s *Session) ReleaseFlight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	// A finished orchestration never leaves a transient status behind.
	if s.status == models.SessionBatchRunning || s.status == models.SessionRefining {
		s.status = models.SessionReady
	}
}

func (s *Session) SetStatus(status models.SessionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *Session) Status() models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SnapshotPreviews returns value copies; the batch loop takes its skip
// decisions from one snapshot captured at loop entry.
func (s *Session) SnapshotPreviews() map[string]models.GeneratedPreview {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]models.GeneratedPreview, len(s.previews))
	for id, preview := range s.previews {
		snapshot[id] = *preview
	}
	return snapshot
}

func (s *Session) Preview(styleID string) (models.GeneratedPreview, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	preview, ok := s.previews[styleID]
	if !ok {
		return models.GeneratedPreview{}, false
	}
	return *preview, true
}

func (s *Session) setPreview(styleID string, mutate func(preview *models.GeneratedPreview)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	preview, ok := s.previews[styleID]
	if !ok {
		preview = &models.GeneratedPreview{StyleID: styleID, Status: models.PreviewIdle}
		s.previews[styleID] = preview
	}
	mutate(preview)
}

func (s *Session) SetPreviewLoading(styleID string) {
	s.setPreview(styleID, func(preview *models.GeneratedPreview) {
		preview.Status = models.PreviewLoading
		preview.Error = nil
	})
}

func (s *Session) SetPreviewSuccess(styleID string, imageURL string) {
	s.setPreview(styleID, func(preview *models.GeneratedPreview) {
		preview.Status = models.PreviewSuccess
		preview.ImageURL = &imageURL
		preview.Error = nil
	})
}

func (s *Session) SetPreviewError(styleID string, message string) {
	s.setPreview(styleID, func(preview *models.GeneratedPreview) {
		preview.Status = models.PreviewError
		preview.Error = &message
	})
}

func (s *Session) SetResult(imageURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resultImageURL = &imageURL
	s.lastError = nil
	s.status = models.SessionCompleted
}

func (s *Session) SetArchiveKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archiveKey = &key
}

func (s *Session) ArchiveKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.archiveKey == nil {
		return ""
	}
	return *s.archiveKey
}

// SetLastError records a session-level (refine/custom) failure and reverts
// the session to the retryable ready state.
func (s *Session) SetLastError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = &message
	s.status = models.SessionReady
}

func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	previews := make(map[string]models.GeneratedPreview, len(s.previews))
	for id, preview := range s.previews {
		previews[id] = *preview
	}
	return SessionView{
		ID:             s.ID,
		Status:         s.status,
		LastError:      s.lastError,
		ResultImageURL: s.resultImageURL,
		ArchiveKey:     s.archiveKey,
		Previews:       previews,
		CreatedAt:      s.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Store is the in-memory session registry. Sessions live until they are
// explicitly cleared or replaced by a new upload; there is no durable
// storage behind them.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: map[string]*Session{}}
}

func (st *Store) Create(sourceImage []byte, mimeType string) *Session {
	session := newSession(sourceImage, mimeType)
	st.mu.Lock()
	st.sessions[session.ID] = session
	st.mu.Unlock()
	return session
}

func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	session, ok := st.sessions[id]
	return session, ok
}

// Delete detaches the session from the store. An orchestration already
// running against it is not cancelled; it finishes against the detached
// session and the result is simply unreachable.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
